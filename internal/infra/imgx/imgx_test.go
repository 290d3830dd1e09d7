package imgx

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripes(w, h, period int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	for y := 0; y < h; y++ {
		if (y/period)%2 == 0 {
			continue
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestEncodeDecodeRoundTripSize(t *testing.T) {
	b, err := EncodePNG(imaging.New(30, 20, color.White))
	require.NoError(t, err)

	img, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	_, err = Decode(nil)
	require.Error(t, err)
	_, err = Decode([]byte("not an image"))
	require.Error(t, err)
}

func TestTrim(t *testing.T) {
	img := imaging.New(100, 80, color.White)

	out, err := Trim(img, Margins{Left: 10, Top: 20, Right: 5, Bottom: 5})
	require.NoError(t, err)
	assert.Equal(t, 85, out.Bounds().Dx())
	assert.Equal(t, 55, out.Bounds().Dy())

	same, err := Trim(img, Margins{})
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), same.Bounds())

	for _, m := range []Margins{
		{Left: 60, Right: 60},
		{Top: 500},
		{Top: 40, Bottom: 40},
		{Right: 100},
	} {
		_, err = Trim(img, m)
		assert.Error(t, err, "%+v", m)
	}
}

func TestAverageHash_EmptyImage(t *testing.T) {
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	assert.Nil(t, AverageHash(empty, 16))
	assert.Nil(t, AverageHash(nil, 16))
}

func TestCropPNG_ClipsToBounds(t *testing.T) {
	img := imaging.New(50, 50, color.White)

	b, err := CropPNG(img, image.Rect(40, 40, 60, 60), 2)
	require.NoError(t, err)
	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 12), out.Bounds())

	_, err = CropPNG(img, image.Rect(100, 100, 120, 120), 0)
	require.Error(t, err)
}

func TestAverageHash_DistanceDetectsDuplicates(t *testing.T) {
	a := stripes(200, 200, 20)
	b := stripes(200, 200, 20)
	c := stripes(200, 200, 7)

	ha, hb, hc := AverageHash(a, 16), AverageHash(b, 16), AverageHash(c, 16)
	assert.Len(t, ha, 4) // 256 位
	assert.Equal(t, 0, ha.Distance(hb))
	assert.Greater(t, ha.Distance(hc), 5)

	assert.Equal(t, 64+256, AverageHash(a, 8).Distance(ha))
}
