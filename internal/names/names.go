package names

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Set 是名字集合：大小写敏感、按原文精确比较，重复自动折叠。
//
// 零值不可直接 Add；请用 New 构造。nil Set 可安全读取（视为空集）。
type Set map[string]struct{}

func New(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// FromLines 对每一行做 Normalize，丢弃空行后收集为 Set。
func FromLines(lines []string) Set {
	s := make(Set, len(lines))
	for _, l := range lines {
		if n := Normalize(l); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s Set) Add(name string) { s[name] = struct{}{} }

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted 返回按字节序（字典序）排序的元素；这是所有“确定性遍历”的唯一顺序。
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Minus 返回 s − other（不修改任何一方）。
func (s Set) Minus(other Set) Set {
	out := make(Set, len(s))
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Intersect 返回 s ∩ other。
func (s Set) Intersect(other Set) Set {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Set, len(small))
	for k := range small {
		if big.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Without 返回去掉 ignore 中名字与空串后的新集合。
func (s Set) Without(ignore Set) Set {
	out := make(Set, len(s))
	for k := range s {
		if k == "" || ignore.Has(k) {
			continue
		}
		out[k] = struct{}{}
	}
	return out
}

// Normalize 把 OCR/人工录入的名字规整为可比较的形式：
// NFKC（全角折叠为半角）后删除所有 Unicode 空白。
//
// 注意：Reconcile 本身不做规整；规整只发生在数据源（capture/roster）侧。
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
