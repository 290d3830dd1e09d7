package capture

import "image"

// DefaultLanguages 与常见的中文聊天室名单匹配：英文 + 繁体中文。
const DefaultLanguages = "eng+chi_tra"

// Line 是 OCR 识别出的一行文本及其在图片中的位置。
type Line struct {
	Text string
	Box  image.Rectangle
}

// Recognizer 把一帧图片识别为文本行。实现可以持有外部资源（例如 tesseract 句柄），
// 因此必须 Close。
type Recognizer interface {
	Lines(img image.Image) ([]Line, error)
	Close() error
}
