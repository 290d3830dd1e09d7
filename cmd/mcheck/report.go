package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/John-Robertt/mcheck/internal/domain"
)

// emitReport 按 stdout 是否为终端选择输出形态：
// - 终端：摘要 + 表格（人读）
// - 非终端：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）
func (c *cli) emitReport(rr domain.RunReport) {
	if c.isTTY(c.stdout) {
		renderHuman(c.stdout, rr)
		if rr.Error != nil {
			fmt.Fprintf(c.stderr, "%s: %s\n", rr.Error.Code, rr.Error.Message)
		}
		return
	}

	enc := json.NewEncoder(c.stdout)
	_ = enc.Encode(rr)
	fmt.Fprintln(c.stderr, summaryLine(rr))
	if rr.Error != nil {
		fmt.Fprintf(c.stderr, "%s: %s\n", rr.Error.Code, rr.Error.Message)
	}
}

func summaryLine(rr domain.RunReport) string {
	if rr.Error != nil {
		return fmt.Sprintf("失败：%s", rr.Error.Code)
	}
	s := rr.Summary
	return fmt.Sprintf("完成：exact=%d fuzzy=%d unmatched_authoritative=%d unmatched_observed=%d",
		s.Exact, s.Fuzzy, s.UnmatchedAuthoritative, s.UnmatchedObserved,
	)
}

// renderHuman 输出人读报告：精确匹配、模糊匹配与两侧剩余都逐条列出。
func renderHuman(w io.Writer, rr domain.RunReport) {
	fmt.Fprintln(w, summaryLine(rr))
	if rr.Error != nil {
		return
	}
	rec := rr.Reconciliation

	fmt.Fprintf(w, "权威名单 %d 人，观测 %d 人，阈值 %d\n", rr.Summary.Authoritative, rr.Summary.Observed, rec.Threshold)

	if len(rec.Exact) > 0 {
		t := newTable(w, "精确匹配")
		t.AppendHeader(table.Row{"#", "名字"})
		for i, name := range rec.Exact {
			t.AppendRow(table.Row{strconv.Itoa(i + 1), name})
		}
		t.Render()
	}

	if len(rec.Fuzzy) > 0 {
		t := newTable(w, "模糊匹配（请人工确认）")
		t.AppendHeader(table.Row{"分数", "权威名单", "观测"})
		for _, p := range rec.Fuzzy {
			t.AppendRow(table.Row{p.Score, p.Authoritative, p.Observed})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
		t.Render()
	}

	if len(rec.UnmatchedAuthoritative) > 0 || len(rec.UnmatchedObserved) > 0 {
		t := newTable(w, "未匹配")
		t.AppendHeader(table.Row{"#", "权威名单中未出现", "观测中多出"})
		n := max(len(rec.UnmatchedAuthoritative), len(rec.UnmatchedObserved))
		for i := 0; i < n; i++ {
			t.AppendRow(table.Row{strconv.Itoa(i + 1), at(rec.UnmatchedAuthoritative, i), at(rec.UnmatchedObserved, i)})
		}
		t.Render()
	} else {
		fmt.Fprintln(w, text.FgGreen.Sprint("两侧名单全部对上"))
	}

	if rr.Export != nil {
		fmt.Fprintf(w, "证据：%s（%d 个文件", rr.Export.Dir, len(rr.Export.Files))
		if n := len(rr.Export.Failures); n > 0 {
			fmt.Fprintf(w, "，%s", text.FgYellow.Sprintf("%d 个失败", n))
		}
		fmt.Fprintln(w, "）")
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func at(xs []string, i int) string {
	if i < len(xs) {
		return xs[i]
	}
	return ""
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
