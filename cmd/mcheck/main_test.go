package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/mcheck/internal/app/run"
	"github.com/John-Robertt/mcheck/internal/domain"
)

type testCLI struct {
	*cli
	cwd    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestCLI(t *testing.T, tty bool) *testCLI {
	t.Helper()
	t.Setenv("MCHECK_LOG_LEVEL", "")
	t.Setenv("MCHECK_LOG_FORMAT", "")

	tc := &testCLI{cwd: t.TempDir(), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	tc.cli = &cli{
		stdout: tc.stdout,
		stderr: tc.stderr,
		getwd:  func() (string, error) { return tc.cwd, nil },
		isTTY:  func(io.Writer) bool { return tty },
		deps: func(log zerolog.Logger) run.Deps {
			d := run.DefaultDeps(log)
			d.Now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }
			return d
		},
	}
	return tc
}

func (tc *testCLI) write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(tc.cwd, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRun_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	tc := newTestCLI(t, false)
	tc.write(t, "members.csv", "名稱\nAlice\nBob\nCarol\n")
	tc.write(t, "seen.txt", "Alice\nBobb\nZed\n")

	code := tc.execute(context.Background(), []string{"run", "--roster", "members.csv", "--column", "名稱", "--observed", "seen.txt"})
	assert.Equal(t, exitFail, code, "两侧有剩余时退出码为 1\nstderr=%s", tc.stderr.String())

	// stdout 必须是单个 JSON。
	dec := json.NewDecoder(bytes.NewReader(tc.stdout.Bytes()))
	var rr domain.RunReport
	require.NoError(t, dec.Decode(&rr), "stdout=%q", tc.stdout.String())
	assert.False(t, dec.More(), "stdout 只能有一个 JSON")

	assert.Nil(t, rr.Error)
	assert.Equal(t, []string{"Alice"}, rr.Reconciliation.Exact)
	assert.Equal(t, []domain.MatchPair{{Authoritative: "Bob", Observed: "Bobb", Score: 86}}, rr.Reconciliation.Fuzzy)
	assert.Equal(t, []string{"Carol"}, rr.Reconciliation.UnmatchedAuthoritative)
	assert.Equal(t, []string{"Zed"}, rr.Reconciliation.UnmatchedObserved)

	assert.Contains(t, tc.stderr.String(), "完成：exact=1 fuzzy=1 unmatched_authoritative=1 unmatched_observed=1")
}

func TestRun_AllMatchedExitsZero(t *testing.T) {
	tc := newTestCLI(t, false)
	tc.write(t, "members.txt", "Alice\nBob\n")
	tc.write(t, "seen.txt", "Alice\nBobb\n管理員\n")
	tc.write(t, "mcheck.yaml", "roster: {path: members.txt}\nobserved: {path: seen.txt}\nignore: [管理員]\n")

	code := tc.execute(context.Background(), []string{"run"})
	assert.Equal(t, exitOK, code, "stderr=%s", tc.stderr.String())

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(tc.stdout.Bytes(), &rr))
	assert.Equal(t, 2, rr.Summary.Observed)
	assert.True(t, rr.Reconciliation.Clean())
}

func TestRun_ThresholdFlagOverridesConfig(t *testing.T) {
	tc := newTestCLI(t, false)
	tc.write(t, "members.txt", "Bob\n")
	tc.write(t, "seen.txt", "Bobb\n")
	tc.write(t, "mcheck.yaml", "threshold: 50\nroster: {path: members.txt}\nobserved: {path: seen.txt}\n")

	code := tc.execute(context.Background(), []string{"run", "--threshold", "90"})
	assert.Equal(t, exitFail, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(tc.stdout.Bytes(), &rr))
	assert.Equal(t, 90, rr.Reconciliation.Threshold)
	assert.Empty(t, rr.Reconciliation.Fuzzy)
}

func TestRun_ConfigErrorReportsCode(t *testing.T) {
	tc := newTestCLI(t, false)

	code := tc.execute(context.Background(), []string{"run", "--roster", "members.csv"})
	assert.Equal(t, exitFail, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(tc.stdout.Bytes(), &rr))
	require.NotNil(t, rr.Error)
	assert.Equal(t, domain.ErrCodeConfigMissingInput, rr.Error.Code)
	assert.Contains(t, tc.stderr.String(), domain.ErrCodeConfigMissingInput)
}

func TestRun_RosterFailureReportsCode(t *testing.T) {
	tc := newTestCLI(t, false)
	tc.write(t, "seen.txt", "Alice\n")

	code := tc.execute(context.Background(), []string{"run", "--roster", "missing.csv", "--observed", "seen.txt"})
	assert.Equal(t, exitFail, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal(tc.stdout.Bytes(), &rr))
	require.NotNil(t, rr.Error)
	assert.Equal(t, domain.ErrCodeRosterReadFailed, rr.Error.Code)
}

func TestExecute_UsageErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown_command":  {"nope"},
		"unknown_flag":     {"run", "--bogus"},
		"positional":       {"run", "extra"},
		"exclusive_inputs": {"run", "--roster", "a.csv", "--observed", "b.txt", "--screenshots", "shots"},
		"bad_threshold":    {"run", "--threshold", "high"},
		"score_arity":      {"score", "only-one"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			tc := newTestCLI(t, false)
			code := tc.execute(context.Background(), args)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, tc.stdout.String())
			assert.Contains(t, tc.stderr.String(), "参数错误")
		})
	}
}

func TestRun_TTYRendersTables(t *testing.T) {
	tc := newTestCLI(t, true)
	tc.write(t, "members.csv", "名稱\nAlice\nBob\nCarol\n")
	tc.write(t, "seen.txt", "Alice\nBobb\nZed\n")

	code := tc.execute(context.Background(), []string{"run", "--roster", "members.csv", "--column", "名稱", "--observed", "seen.txt"})
	assert.Equal(t, exitFail, code)

	out := tc.stdout.String()
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "终端模式不应输出 JSON")
	assert.Contains(t, out, "精确匹配")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "模糊匹配")
	assert.Contains(t, out, "Bobb")
	assert.Contains(t, out, "Carol")
	assert.Contains(t, out, "Zed")

	// 交互模式下进度写 stderr。
	assert.Contains(t, tc.stderr.String(), "mcheck run")
	assert.Contains(t, tc.stderr.String(), "比对: exact=1 fuzzy=1")
}

func TestDefaultDeps_WiresRecognizer(t *testing.T) {
	d := defaultDeps(zerolog.Nop())
	assert.NotNil(t, d.NewRecognizer)
	assert.NotNil(t, d.Now)
}

func TestScore(t *testing.T) {
	tc := newTestCLI(t, false)

	code := tc.execute(context.Background(), []string{"score", "Bobb", "Bo b"})
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "86\n", tc.stdout.String())
}

func TestVersion(t *testing.T) {
	tc := newTestCLI(t, false)

	code := tc.execute(context.Background(), []string{"version"})
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "mcheck version dev\n", tc.stdout.String())
}
