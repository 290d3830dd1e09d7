package domain

import "sort"

// MatchPair 是一条模糊匹配：权威名单中的名字与观测名单中的名字相似度达到阈值。
// 仅对“不完全相同”的名字产生。
type MatchPair struct {
	Authoritative string `json:"authoritative"`
	Observed      string `json:"observed"`
	Score         int    `json:"score"`
}

// Reconciliation 是一次名单比对的结构化结果。
//
// 所有切片都是确定性的：名字列表按字典序，Fuzzy 按分数降序（同分按权威名、观测名升序）。
type Reconciliation struct {
	Threshold int `json:"threshold"`

	Exact                  []string    `json:"exact"`
	Fuzzy                  []MatchPair `json:"fuzzy"`
	UnmatchedAuthoritative []string    `json:"unmatched_authoritative"`
	UnmatchedObserved      []string    `json:"unmatched_observed"`
}

// SortFuzzy 把 pairs 排为报告顺序。
func SortFuzzy(pairs []MatchPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Authoritative != b.Authoritative {
			return a.Authoritative < b.Authoritative
		}
		return a.Observed < b.Observed
	})
}

// Clean 表示两侧都没有剩余（所有人都对上了，精确或模糊）。
func (r Reconciliation) Clean() bool {
	return len(r.UnmatchedAuthoritative) == 0 && len(r.UnmatchedObserved) == 0
}

// Evidence 把观测名映射到一段图像字节（例如 OCR 行裁切），只用于导出供人工复核。
type Evidence map[string][]byte
