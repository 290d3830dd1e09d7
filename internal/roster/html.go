package roster

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// headerScanRows 是在一个表格中寻找表头行的最大行数。
// 发布页（pubhtml）的 thead 只有 A/B/C 列标，真正的表头在 tbody 第一行。
const headerScanRows = 5

// HTML 读取“发布到网络”的表格页面（另存为本地 .html）中的一列。
//
// 取第一个在前几行内出现 column 表头的 <table>；表头行之后的所有行都是数据。
// column 为空时以第一行为表头、取第一列。
type HTML struct{}

func (HTML) Name() string { return "html" }

func (HTML) Parse(data []byte, column string) ([]string, error) {
	if len(data) == 0 {
		return nil, errors.New("html 为空")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, errors.New("页面中没有 <table>")
	}

	var (
		out     []string
		found   bool
		lastErr error
	)
	tables.EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		rows := tbl.Find("tr")
		if rows.Length() == 0 {
			return true
		}

		headerRow, idx, err := locateHeader(rows, column)
		if err != nil {
			lastErr = err
			return true
		}

		found = true
		out = make([]string, 0, rows.Length())
		rows.Slice(headerRow+1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("td,th")
			if idx >= cells.Length() {
				return
			}
			out = append(out, cellText(cells.Eq(idx)))
		})
		return false
	})
	if !found {
		if lastErr == nil {
			lastErr = errors.New("表格没有任何行")
		}
		return nil, lastErr
	}
	return out, nil
}

// locateHeader 返回表头行下标与列下标。
func locateHeader(rows *goquery.Selection, column string) (int, int, error) {
	if cleanCell(column) == "" {
		idx, err := findColumn(rowTexts(rows.First()), column)
		return 0, idx, err
	}

	var lastErr error
	n := rows.Length()
	if n > headerScanRows {
		n = headerScanRows
	}
	for i := 0; i < n; i++ {
		idx, err := findColumn(rowTexts(rows.Eq(i)), column)
		if err == nil {
			return i, idx, nil
		}
		lastErr = err
	}
	return -1, -1, lastErr
}

func rowTexts(tr *goquery.Selection) []string {
	cells := tr.ChildrenFiltered("td,th")
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, cellText(c))
	})
	return out
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
