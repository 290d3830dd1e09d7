//go:build notesseract

package main

import (
	"errors"

	"github.com/John-Robertt/mcheck/internal/capture"
	"github.com/John-Robertt/mcheck/internal/config"
)

// 以 -tags notesseract 构建时不链接 libtesseract；只支持 --observed 文本名单。
func newRecognizer(config.EffectiveOCR) (capture.Recognizer, error) {
	return nil, errors.New("此构建未包含 tesseract（-tags notesseract），无法识别截图")
}
