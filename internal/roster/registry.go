package roster

import (
	"fmt"
	"strings"
)

// Registry 是 Source 的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Source
}

func NewRegistry(sources ...Source) (Registry, error) {
	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		if s == nil {
			return Registry{}, fmt.Errorf("source 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(s.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("source.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 source：%q", name)
		}
		byName[name] = s
	}
	return Registry{byName: byName}, nil
}

// DefaultRegistry 注册内置的 csv/html/text 三种格式。
func DefaultRegistry() Registry {
	reg, err := NewRegistry(CSV{}, HTML{}, Text{})
	if err != nil {
		panic(err)
	}
	return reg
}

func (r Registry) Get(name string) (Source, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	s, ok := r.byName[name]
	return s, ok
}

// Len 返回已注册的 source 数量；零值 Registry 为 0。
func (r Registry) Len() int { return len(r.byName) }
