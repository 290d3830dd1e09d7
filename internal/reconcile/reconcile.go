// Package reconcile 把观测名单与权威名单划分为：精确匹配、模糊匹配、两侧剩余。
package reconcile

import (
	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/names"
	"github.com/John-Robertt/mcheck/internal/similarity"
)

// Scorer 计算两个名字的相似度（0–100，对称）。
type Scorer func(a, b string) int

type Options struct {
	// Threshold：模糊匹配的最低分（含）。不在此处截断到 [0,100]，由配置层校验。
	Threshold int
	// Ignore：仅作用于观测名单；空串无论是否列出都会被忽略。
	Ignore names.Set
	// Scorer 为空时使用 similarity.Ratio。
	Scorer Scorer
}

// Reconcile 执行一次名单比对。没有错误路径：空输入得到空（或全剩余）的结果。
//
// 确定性契约：
//   - 权威名按字典序依次贪心匹配
//   - 候选观测名按字典序打分，只有严格更高的分数才替换当前最优，
//     因此同分时选中字典序最小的观测名
//   - 每个观测名最多被一条模糊匹配消耗
func Reconcile(observed, authoritative names.Set, opts Options) domain.Reconciliation {
	score := opts.Scorer
	if score == nil {
		score = similarity.Ratio
	}

	observed = observed.Without(opts.Ignore)

	exact := observed.Intersect(authoritative)
	remObserved := observed.Minus(authoritative)
	remAuthoritative := authoritative.Minus(observed)

	out := domain.Reconciliation{
		Threshold:              opts.Threshold,
		Exact:                  exact.Sorted(),
		Fuzzy:                  []domain.MatchPair{},
		UnmatchedAuthoritative: []string{},
	}

	// 候选列表保持有序；消耗时原地删除，避免每轮重新排序。
	candidates := remObserved.Sorted()
	for _, a := range remAuthoritative.Sorted() {
		best, bestScore := -1, -1
		for i, o := range candidates {
			if s := score(a, o); s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 || bestScore < opts.Threshold {
			out.UnmatchedAuthoritative = append(out.UnmatchedAuthoritative, a)
			continue
		}
		out.Fuzzy = append(out.Fuzzy, domain.MatchPair{
			Authoritative: a,
			Observed:      candidates[best],
			Score:         bestScore,
		})
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	out.UnmatchedObserved = candidates
	if out.UnmatchedObserved == nil {
		out.UnmatchedObserved = []string{}
	}

	domain.SortFuzzy(out.Fuzzy)
	return out
}
