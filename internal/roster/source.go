// Package roster 读取权威名单：从本地表格文件的某一列得到名字集合。
package roster

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source 把“文件格式差异”限制在 roster 包内部；上层只拿到名字列表。
//
// 约束：Parse 必须是纯函数（相同输入 => 相同输出），不做规整与去重（由 Load 统一处理）。
type Source interface {
	Name() string
	Parse(data []byte, column string) ([]string, error)
}

// Error 是名单读取阶段的可追溯错误。
// 上层据此把失败归类为 roster_read_failed / roster_parse_failed。
type Error struct {
	Source string // csv / html / text
	Stage  string // "read" 或 "parse"
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("roster source=%s stage=%s path=%q: %v", e.Source, e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ColumnNotFoundError 表示表头中找不到指定列。
type ColumnNotFoundError struct {
	Column string
	Header []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("找不到列 %q（表头：%s）", e.Column, strings.Join(e.Header, ", "))
}

// DetectFormat 按扩展名推断格式：.csv → csv，.htm/.html → html，其它 → text。
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".htm", ".html":
		return "html"
	default:
		return "text"
	}
}

// findColumn 在表头中定位列；column 为空时选第一列。
func findColumn(header []string, column string) (int, error) {
	column = cleanCell(column)
	if column == "" {
		if len(header) == 0 {
			return -1, &ColumnNotFoundError{Column: column, Header: header}
		}
		return 0, nil
	}
	for i, h := range header {
		if cleanCell(h) == column {
			return i, nil
		}
	}
	return -1, &ColumnNotFoundError{Column: column, Header: header}
}

// cleanCell 去掉首尾空白与 UTF-8 BOM（Excel/Google Sheets 导出的 CSV 常带 BOM）。
func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
