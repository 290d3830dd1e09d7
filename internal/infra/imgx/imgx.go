package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
)

// Margins 描述从四边裁掉的像素数（对应截图中窗口标题栏/边框等非名单区域）。
type Margins struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

func (m Margins) IsZero() bool { return m == Margins{} }

// Decode 解码 PNG/JPEG 等图片字节；按 EXIF 方向自动旋正。
func Decode(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, errors.New("图片为空")
	}
	return imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
}

// Trim 按 Margins 裁掉四边；裁完尺寸无效时返回错误。
func Trim(img image.Image, m Margins) (image.Image, error) {
	if m.IsZero() {
		return img, nil
	}
	b := img.Bounds()
	// image.Rect 会交换反向坐标，必须先用原始值判断。
	x0, y0 := b.Min.X+m.Left, b.Min.Y+m.Top
	x1, y1 := b.Max.X-m.Right, b.Max.Y-m.Bottom
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("裁边 %+v 超出图片尺寸 %dx%d", m, b.Dx(), b.Dy())
	}
	return imaging.Crop(img, image.Rect(x0, y0, x1, y1)), nil
}

// CropPNG 裁出 rect（四周外扩 pad 像素并限制在图片范围内），编码为 PNG。
// 用于把 OCR 行区域导出为人工复核证据。
func CropPNG(img image.Image, rect image.Rectangle, pad int) ([]byte, error) {
	r := rect.Inset(-pad).Intersect(img.Bounds())
	if r.Empty() {
		return nil, errors.New("裁切区域为空")
	}
	return EncodePNG(imaging.Crop(img, r))
}

func EncodePNG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.PNG); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Hash 是平均哈希（aHash）的位集合，长度 size*size 位。
type Hash []uint64

// AverageHash 计算 size×size 的平均哈希：缩放 + 灰度，像素亮度高于均值记 1。
// 连续两帧滚动截图的哈希距离很小，说明列表已经滚到底（或重复截了同一屏）。
// 空图片返回 nil。
func AverageHash(img image.Image, size int) Hash {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if size < 2 {
		size = 2
	}
	small := imaging.Grayscale(imaging.Resize(img, size, size, imaging.Box))

	n := size * size
	vals := make([]uint32, n)
	var sum uint64
	for i := 0; i < n; i++ {
		// Grayscale 后 R=G=B；NRGBA 的 Pix 每像素 4 字节。
		v := uint32(small.Pix[i*4])
		vals[i] = v
		sum += uint64(v)
	}
	mean := uint32(sum / uint64(n))

	h := make(Hash, (n+63)/64)
	for i, v := range vals {
		if v > mean {
			h[i/64] |= 1 << (uint(i) % 64)
		}
	}
	return h
}

// Distance 返回两个哈希的汉明距离；长度不同视为完全不同。
func (h Hash) Distance(o Hash) int {
	if len(h) != len(o) {
		return len(h)*64 + len(o)*64
	}
	d := 0
	for i := range h {
		d += bits.OnesCount64(h[i] ^ o[i])
	}
	return d
}
