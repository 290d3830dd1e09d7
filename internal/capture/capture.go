// Package capture 产出观测名单：来自纯文本名单，或来自已截好的成员列表截图（OCR）。
//
// 截图模式同时产出证据：每个名字第一次出现时所在行的裁切图（PNG）。
package capture

import (
	"errors"
	"fmt"
	"os"

	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/names"
	"github.com/John-Robertt/mcheck/internal/roster"
)

// ErrNoFrames 表示截图目录中没有任何可用图片。
var ErrNoFrames = errors.New("没有找到截图（支持 .png/.jpg/.jpeg）")

// Result 是观测侧的输入：名字集合 + 可选证据。
type Result struct {
	Names    names.Set
	Evidence domain.Evidence

	// Frames 为实际识别的帧数；Skipped 为被判定为重复而跳过的帧数。
	Frames  int
	Skipped int
}

// Error 是观测名单采集阶段的可追溯错误。这类失败会直接中止本次运行。
type Error struct {
	Stage string // "read" / "scan" / "decode" / "ocr"
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture stage=%s path=%q: %v", e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 把采集错误映射为 report 的 error code。
func Code(err error) string {
	if errors.Is(err, ErrNoFrames) {
		return domain.ErrCodeCaptureNoFrames
	}
	return domain.ErrCodeCaptureFailed
}

// LoadList 读取“一行一个名字”的观测名单（没有证据）。
func LoadList(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &Error{Stage: "read", Path: path, Err: err}
	}
	lines, err := roster.ReadLines(b)
	if err != nil {
		return Result{}, &Error{Stage: "read", Path: path, Err: err}
	}
	return Result{Names: names.FromLines(lines), Evidence: domain.Evidence{}}, nil
}
