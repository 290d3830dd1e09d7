package reconcile

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/names"
	"github.com/John-Robertt/mcheck/internal/similarity"
)

func TestReconcile_Scenario(t *testing.T) {
	observed := names.New("Alice", "Bob", "Carol")
	authoritative := names.New("Alice", "Bobb", "Dave")

	got := Reconcile(observed, authoritative, Options{Threshold: 75})

	assert.Equal(t, []string{"Alice"}, got.Exact)
	require.Len(t, got.Fuzzy, 1)
	assert.Equal(t, "Bobb", got.Fuzzy[0].Authoritative)
	assert.Equal(t, "Bob", got.Fuzzy[0].Observed)
	assert.GreaterOrEqual(t, got.Fuzzy[0].Score, 75)
	assert.Equal(t, []string{"Dave"}, got.UnmatchedAuthoritative)
	assert.Equal(t, []string{"Carol"}, got.UnmatchedObserved)
	assert.Equal(t, 75, got.Threshold)
}

func TestReconcile_IdenticalSets(t *testing.T) {
	x := names.New("小明", "小華", "Alice", "Bob")
	for _, th := range []int{0, 50, 100, 101} {
		got := Reconcile(x, x, Options{Threshold: th})
		assert.Equal(t, x.Sorted(), got.Exact, "threshold=%d", th)
		assert.Empty(t, got.Fuzzy)
		assert.Empty(t, got.UnmatchedAuthoritative)
		assert.Empty(t, got.UnmatchedObserved)
	}
}

func TestReconcile_EmptySides(t *testing.T) {
	y := names.New("a", "b")

	got := Reconcile(names.New(), y, Options{Threshold: 0})
	assert.Equal(t, []string{"a", "b"}, got.UnmatchedAuthoritative)
	assert.Empty(t, got.Exact)
	assert.Empty(t, got.Fuzzy)
	assert.Empty(t, got.UnmatchedObserved)

	got = Reconcile(y, names.New(), Options{Threshold: 0})
	assert.Equal(t, []string{"a", "b"}, got.UnmatchedObserved)
	assert.Empty(t, got.Exact)
	assert.Empty(t, got.Fuzzy)
	assert.Empty(t, got.UnmatchedAuthoritative)

	got = Reconcile(nil, nil, Options{Threshold: 75})
	assert.NotNil(t, got.Exact)
	assert.NotNil(t, got.Fuzzy)
	assert.NotNil(t, got.UnmatchedAuthoritative)
	assert.NotNil(t, got.UnmatchedObserved)
}

func TestReconcile_IgnoreListAppliesToObservedOnly(t *testing.T) {
	observed := names.New("", "管理員1", "管理員2", "小明")
	authoritative := names.New("小明", "管理員1")

	got := Reconcile(observed, authoritative, Options{
		Threshold: 101,
		Ignore:    names.New("管理員1", "管理員2"),
	})

	assert.Equal(t, []string{"小明"}, got.Exact)
	// 权威名单不受 ignore 影响：管理員1 在观测侧被过滤后，只能作为权威剩余出现。
	assert.Equal(t, []string{"管理員1"}, got.UnmatchedAuthoritative)
	assert.Empty(t, got.UnmatchedObserved)
}

func TestReconcile_TieBreakIsLexicographic(t *testing.T) {
	// 两个候选对 "ab" 的分数相同（都是 80），必须选字典序更小的 "abc"。
	observed := names.New("abd", "abc")
	authoritative := names.New("ab")
	require.Equal(t, similarity.Ratio("ab", "abc"), similarity.Ratio("ab", "abd"))

	for i := 0; i < 20; i++ {
		got := Reconcile(observed, authoritative, Options{Threshold: 50})
		require.Len(t, got.Fuzzy, 1)
		assert.Equal(t, "abc", got.Fuzzy[0].Observed)
		assert.Equal(t, []string{"abd"}, got.UnmatchedObserved)
	}
}

func TestReconcile_GreedyOrderIsLexicographicOnAuthoritative(t *testing.T) {
	// "Bob" 对 "Bobb"(86) 与 "Bobby"(75) 都可匹配；按权威名字典序，"Bobb" 先消耗 "Bob"。
	observed := names.New("Bob")
	authoritative := names.New("Bobby", "Bobb")

	got := Reconcile(observed, authoritative, Options{Threshold: 70})
	require.Len(t, got.Fuzzy, 1)
	assert.Equal(t, domain.MatchPair{Authoritative: "Bobb", Observed: "Bob", Score: 86}, got.Fuzzy[0])
	assert.Equal(t, []string{"Bobby"}, got.UnmatchedAuthoritative)
}

func TestReconcile_FuzzySortedDescending(t *testing.T) {
	observed := names.New("Jonathan", "Bob", "Christophe")
	authoritative := names.New("Jonathon", "Bobb", "Christopher")

	got := Reconcile(observed, authoritative, Options{Threshold: 50})
	require.Len(t, got.Fuzzy, 3)
	for i := 1; i < len(got.Fuzzy); i++ {
		assert.GreaterOrEqual(t, got.Fuzzy[i-1].Score, got.Fuzzy[i].Score)
	}
}

func TestReconcile_CustomScorer(t *testing.T) {
	calls := 0
	constant := func(a, b string) int { calls++; return 90 }

	got := Reconcile(names.New("x", "y"), names.New("p", "q"), Options{Threshold: 90, Scorer: constant})
	// 常数打分：每个权威名都取第一个剩余候选。
	assert.Equal(t, []domain.MatchPair{
		{Authoritative: "p", Observed: "x", Score: 90},
		{Authoritative: "q", Observed: "y", Score: 90},
	}, got.Fuzzy)
	assert.Equal(t, 3, calls) // 2 + 1：候选被消耗后不再参与打分
}

func TestReconcile_Properties(t *testing.T) {
	inputs := []struct {
		observed, authoritative []string
	}{
		{[]string{"Alice", "Bob", "Carol"}, []string{"Alice", "Bobb", "Dave"}},
		{[]string{"王小明", "王小眀", "李四", "張三"}, []string{"王小明", "李思", "张三", "趙六"}},
		{[]string{"a", "ab", "abc", "abcd"}, []string{"b", "bc", "abd"}},
		{[]string{"x"}, []string{"y", "z", "xx", "xy"}},
		{nil, []string{"only"}},
		{[]string{"only"}, nil},
	}
	thresholds := []int{0, 30, 60, 75, 90, 100, 101}

	for i, in := range inputs {
		for _, th := range thresholds {
			t.Run(fmt.Sprintf("case%d/t%d", i, th), func(t *testing.T) {
				obs := names.New(in.observed...)
				auth := names.New(in.authoritative...)
				got := Reconcile(obs, auth, Options{Threshold: th})

				// 每个权威名恰好被计入一次。
				seenA := map[string]int{}
				for _, n := range got.Exact {
					seenA[n]++
				}
				for _, p := range got.Fuzzy {
					seenA[p.Authoritative]++
				}
				for _, n := range got.UnmatchedAuthoritative {
					seenA[n]++
				}
				assert.Len(t, seenA, auth.Len())
				for n, c := range seenA {
					assert.True(t, auth.Has(n), "unexpected authoritative %q", n)
					assert.Equal(t, 1, c, "authoritative %q counted %d times", n, c)
				}

				// 每个保留的观测名恰好被计入一次（隐含：至多被一条模糊匹配消耗）。
				seenO := map[string]int{}
				for _, n := range got.Exact {
					seenO[n]++
				}
				for _, p := range got.Fuzzy {
					seenO[p.Observed]++
				}
				for _, n := range got.UnmatchedObserved {
					seenO[n]++
				}
				assert.Len(t, seenO, obs.Len())
				for n, c := range seenO {
					assert.True(t, obs.Has(n), "unexpected observed %q", n)
					assert.Equal(t, 1, c, "observed %q counted %d times", n, c)
				}

				for _, p := range got.Fuzzy {
					assert.GreaterOrEqual(t, p.Score, th)
					assert.NotEqual(t, p.Authoritative, p.Observed)
				}
			})
		}
	}
}

func TestReconcile_ThresholdExtremes(t *testing.T) {
	observed := names.New("Bob", "Carol", "Eve", "Mallory")
	authoritative := names.New("Bobb", "Dave", "Evan")

	// 低于所有分数：每个权威名都能拿到一个候选（候选数足够时）。
	low := Reconcile(observed, authoritative, Options{Threshold: 0})
	assert.Len(t, low.Fuzzy, 3)
	assert.Empty(t, low.UnmatchedAuthoritative)
	assert.Len(t, low.UnmatchedObserved, 1)

	// 高于所有分数：所有模糊匹配回落到两侧剩余。
	high := Reconcile(observed, authoritative, Options{Threshold: 101})
	assert.Empty(t, high.Fuzzy)
	assert.Equal(t, authoritative.Sorted(), high.UnmatchedAuthoritative)
	assert.Equal(t, observed.Sorted(), high.UnmatchedObserved)

	mid := Reconcile(observed, authoritative, Options{Threshold: 75})
	assert.LessOrEqual(t, len(mid.Fuzzy), len(low.Fuzzy))
	assert.GreaterOrEqual(t, len(mid.Fuzzy), len(high.Fuzzy))
}

func TestReconcile_Deterministic(t *testing.T) {
	observed := names.New("aa", "ab", "ba", "bb", "ca", "cb")
	authoritative := names.New("ac", "bc", "cc", "a", "b")

	first, err := json.Marshal(Reconcile(observed, authoritative, Options{Threshold: 40}))
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		b, err := json.Marshal(Reconcile(observed.Clone(), authoritative.Clone(), Options{Threshold: 40}))
		require.NoError(t, err)
		require.Equal(t, string(first), string(b))
	}
}
