// Package similarity 提供名字之间的相似度评分。
//
// 评分采用经典的 indel 比率：Levenshtein 距离中替换代价记为 2（等价于一删一插），
// 再按两串总长度归一化到 [0,100]。该公式对称、相同串为 100，且在总长度固定时
// 随编辑距离单调递减。
package similarity

import "math"

// Ratio 返回 a 与 b 的相似度（0–100，按 rune 计算，四舍五入）。
//
// 边界：两者都为空返回 100；仅一方为空返回 0。
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	d := indel(ra, rb)
	return int(math.Round(100 * float64(total-d) / float64(total)))
}

// Distance 返回 a 与 b 的 indel 距离（只允许插入与删除）。
func Distance(a, b string) int {
	return indel([]rune(a), []rune(b))
}

// indel = |a| + |b| − 2·LCS(a, b)。
func indel(a, b []rune) int {
	return len(a) + len(b) - 2*lcs(a, b)
}

// lcs 计算最长公共子序列长度；两行滚动，O(|a|·|b|) 时间、O(min) 空间。
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
