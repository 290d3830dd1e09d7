package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/John-Robertt/mcheck/internal/app/run"
	"github.com/John-Robertt/mcheck/internal/capture"
	"github.com/John-Robertt/mcheck/internal/config"
	"github.com/John-Robertt/mcheck/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的简洁进度输出。
//
// 约束：
// - 只写 stderr，不污染 stdout 的报告
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - 事件在调用 run.Execute 的 goroutine 上同步到达，不需要加锁
type progressUI struct {
	w io.Writer

	startedAt time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()
	p.startedAt = now

	fmt.Fprintf(p.w, "[%s] mcheck run\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigPath)
	}
	fmt.Fprintf(p.w, "  roster: %s%s\n", eff.RosterPath, formatColumn(eff.RosterFormat, eff.Column))
	if eff.Screenshots != "" {
		fmt.Fprintf(p.w, "  screenshots: %s (ocr=%s, crop=%s)\n", eff.Screenshots, orDefault(eff.OCR.Languages, capture.DefaultLanguages), formatCrop(eff))
	} else {
		fmt.Fprintf(p.w, "  observed: %s\n", eff.ObservedPath)
	}
	fmt.Fprintf(p.w, "  threshold: %d\n", eff.Threshold)
	fmt.Fprintf(p.w, "  ignore: %s\n", formatStringListJSON(eff.Ignore))
	if eff.EvidenceEnabled {
		fmt.Fprintf(p.w, "  evidence: %s\n", eff.EvidenceDir)
	} else {
		fmt.Fprintln(p.w, "  evidence: off")
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case run.PhaseRoster:
		fmt.Fprintf(p.w, "权威名单: names=%d (%s)\n", intField(fields, "names"), formatShortDuration(dur))
	case run.PhaseCapture:
		if _, ok := fields["frames"]; ok {
			fmt.Fprintf(p.w, "截图识别: frames=%d skipped=%d names=%d (%s)\n",
				intField(fields, "frames"), intField(fields, "skipped"), intField(fields, "names"), formatShortDuration(dur),
			)
			return
		}
		fmt.Fprintf(p.w, "观测名单: names=%d (%s)\n", intField(fields, "names"), formatShortDuration(dur))
	case run.PhaseReconcile:
		fmt.Fprintf(p.w, "比对: exact=%d fuzzy=%d unmatched_authoritative=%d unmatched_observed=%d (%s)\n",
			intField(fields, "exact"),
			intField(fields, "fuzzy"),
			intField(fields, "unmatched_authoritative"),
			intField(fields, "unmatched_observed"),
			formatShortDuration(dur),
		)
	case run.PhaseExport:
		fmt.Fprintf(p.w, "证据导出: files=%d failures=%d (%s)\n",
			intField(fields, "files"), intField(fields, "failures"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnFinish(rr domain.RunReport) {
	elapsed := time.Since(p.startedAt)
	if rr.Error != nil {
		fmt.Fprintf(p.w, "中止: %s: %s (%s)\n\n", rr.Error.Code, truncate(rr.Error.Message, 160), formatElapsed(elapsed))
		return
	}
	if rr.Export != nil {
		fmt.Fprintf(p.w, "report: %s/report.json\n", rr.Export.Dir)
	}
	fmt.Fprintf(p.w, "用时 %s\n\n", formatElapsed(elapsed))
}

func formatColumn(format, column string) string {
	var parts []string
	if format != "" {
		parts = append(parts, "format="+format)
	}
	if column != "" {
		parts = append(parts, "column="+column)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func formatCrop(eff config.EffectiveConfig) string {
	m := eff.OCR.Crop
	if m.IsZero() {
		return "none"
	}
	return fmt.Sprintf("l%d t%d r%d b%d", m.Left, m.Top, m.Right, m.Bottom)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatStringListJSON(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return fmt.Sprintf("%v", xs)
	}
	return string(b)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
