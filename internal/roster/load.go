package roster

import (
	"fmt"
	"os"
	"strings"

	"github.com/John-Robertt/mcheck/internal/names"
)

// Load 读取 path 指定的名单文件并取出 column 列，规整、去空、去重后返回。
//
// format 为空时按扩展名推断（DetectFormat）。失败一律返回 *Error。
func Load(reg Registry, path, format, column string) (names.Set, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DetectFormat(path)
	}

	src, ok := reg.Get(format)
	if !ok {
		return nil, &Error{Source: format, Stage: "read", Path: path, Err: fmt.Errorf("未知的名单格式：%q", format)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Source: src.Name(), Stage: "read", Path: path, Err: err}
	}

	raw, err := src.Parse(data, column)
	if err != nil {
		return nil, &Error{Source: src.Name(), Stage: "parse", Path: path, Err: err}
	}
	return names.FromLines(raw), nil
}
