package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	ErrCodeConfigNotFound     = "config_not_found"
	ErrCodeConfigInvalid      = "config_invalid"
	ErrCodeConfigMissingInput = "config_missing_input"
	ErrCodeConfigConflict     = "config_conflict"
	ErrCodeRosterReadFailed   = "roster_read_failed"
	ErrCodeRosterParseFailed  = "roster_parse_failed"
	ErrCodeCaptureFailed      = "capture_failed"
	ErrCodeCaptureNoFrames    = "capture_no_frames"
	ErrCodeExportFailed       = "export_failed"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	RunID string `json:"run_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Inputs  RunInputs     `json:"inputs"`
	Summary ReportSummary `json:"summary"`

	Reconciliation Reconciliation `json:"reconciliation"`
	Export         *ExportResult  `json:"export,omitempty"`

	// Error 非空表示本次运行被外部协作者的失败中止（名单读取/截图识别等）。
	Error *RunError `json:"error,omitempty"`
}

type RunInputs struct {
	Roster       string   `json:"roster"`
	RosterFormat string   `json:"roster_format"`
	Column       string   `json:"column"`
	Observed     string   `json:"observed"`
	ObservedKind string   `json:"observed_kind"` // "list" | "screenshots"
	Ignore       []string `json:"ignore"`

	// Frames/SkippedFrames 仅 screenshots 模式有意义。
	Frames        int `json:"frames"`
	SkippedFrames int `json:"skipped_frames"`
}

type ReportSummary struct {
	Authoritative          int `json:"authoritative"`
	Observed               int `json:"observed"`
	Exact                  int `json:"exact"`
	Fuzzy                  int `json:"fuzzy"`
	UnmatchedAuthoritative int `json:"unmatched_authoritative"`
	UnmatchedObserved      int `json:"unmatched_observed"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExportResult 记录证据导出的落盘情况。
type ExportResult struct {
	Dir      string         `json:"dir"`
	Files    []ExportFile   `json:"files"`
	Failures []ExportFailed `json:"failures"`
}

type ExportFile struct {
	Category string `json:"category"` // "fuzzy" | "remain"
	Name     string `json:"name"`     // 观测名
	Path     string `json:"path"`     // 相对 Dir
}

type ExportFailed struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Error    string `json:"error"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 名单/文件列表稳定排序，nil 切片归一为空切片（JSON 输出 [] 而不是 null）
// 3) summary 由 reconciliation 计算得出
//
// Authoritative/Observed 总数由调用方在 Finalize 前填入 Summary（它们来自输入而非结果）。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	rec := &r.Reconciliation
	rec.Exact = sortedOrEmpty(rec.Exact)
	rec.UnmatchedAuthoritative = sortedOrEmpty(rec.UnmatchedAuthoritative)
	rec.UnmatchedObserved = sortedOrEmpty(rec.UnmatchedObserved)
	if rec.Fuzzy == nil {
		rec.Fuzzy = []MatchPair{}
	}
	SortFuzzy(rec.Fuzzy)
	r.Inputs.Ignore = sortedOrEmpty(r.Inputs.Ignore)

	if r.Export != nil {
		if r.Export.Files == nil {
			r.Export.Files = []ExportFile{}
		}
		if r.Export.Failures == nil {
			r.Export.Failures = []ExportFailed{}
		}
		sort.SliceStable(r.Export.Files, func(i, j int) bool { return r.Export.Files[i].Path < r.Export.Files[j].Path })
	}

	r.Summary.Exact = len(rec.Exact)
	r.Summary.Fuzzy = len(rec.Fuzzy)
	r.Summary.UnmatchedAuthoritative = len(rec.UnmatchedAuthoritative)
	r.Summary.UnmatchedObserved = len(rec.UnmatchedObserved)
}

func sortedOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	sort.Strings(in)
	return in
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
