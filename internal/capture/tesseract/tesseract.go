// Package tesseract 用 gosseract（cgo，依赖 libtesseract/leptonica）实现 capture.Recognizer。
//
// 单独成包，使 capture 及其上层在没有 tesseract 开发库的环境下也能编译和测试。
package tesseract

import (
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/John-Robertt/mcheck/internal/capture"
	"github.com/John-Robertt/mcheck/internal/infra/imgx"
)

var _ capture.Recognizer = (*Recognizer)(nil)

// Recognizer 用 gosseract 做逐行识别。一个实例复用同一个 tesseract 句柄，不可并发使用。
type Recognizer struct {
	client *gosseract.Client
}

// New 创建识别器。languages 形如 "eng+chi_tra"（为空取 capture.DefaultLanguages）；tessdata 为空时使用系统默认路径。
func New(languages, tessdata string) (*Recognizer, error) {
	c := gosseract.NewClient()

	if strings.TrimSpace(languages) == "" {
		languages = capture.DefaultLanguages
	}
	langs := strings.FieldsFunc(languages, func(r rune) bool { return r == '+' || r == ',' || r == ' ' })
	if err := c.SetLanguage(langs...); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		_ = c.Close()
		return nil, err
	}
	if tessdata != "" {
		c.SetTessdataPrefix(tessdata)
	}
	return &Recognizer{client: c}, nil
}

func (t *Recognizer) Lines(img image.Image) ([]capture.Line, error) {
	b, err := imgx.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := t.client.SetImageFromBytes(b); err != nil {
		return nil, err
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, err
	}
	out := make([]capture.Line, 0, len(boxes))
	for _, bb := range boxes {
		out = append(out, capture.Line{Text: bb.Word, Box: bb.Box})
	}
	return out, nil
}

func (t *Recognizer) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}
