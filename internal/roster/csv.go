package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

// CSV 读取带表头的 CSV（例如 Google Sheets “发布到网络”导出的 output=csv）。
type CSV struct{}

func (CSV) Name() string { return "csv" }

func (CSV) Parse(data []byte, column string) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	// 表格导出经常出现行尾缺列；不强制每行字段数一致。
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV 为空（缺少表头）")
		}
		return nil, err
	}
	idx, err := findColumn(header, column)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, 64)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if idx < len(rec) {
			out = append(out, rec[idx])
		}
	}
	return out, nil
}
