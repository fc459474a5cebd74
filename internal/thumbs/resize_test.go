package thumbs

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeTestImage renders a solid-color image of the given size.
func encodeTestImage(t *testing.T, width, height int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func encodePNG(buf *bytes.Buffer, img image.Image) error  { return png.Encode(buf, img) }
func encodeJPEG(buf *bytes.Buffer, img image.Image) error { return jpeg.Encode(buf, img, nil) }

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestThumbnailPNG(t *testing.T) {
	original := encodeTestImage(t, 50, 40, encodePNG)

	thumb, err := Thumbnail(original, 25)
	require.NoError(t, err)

	w, h := decodeSize(t, thumb)
	assert.Equal(t, 25, w)
	assert.Equal(t, 20, h, "aspect ratio preserved")
}

func TestThumbnailJPEGUpscale(t *testing.T) {
	original := encodeTestImage(t, 50, 50, encodeJPEG)

	thumb, err := Thumbnail(original, 500)
	require.NoError(t, err)

	w, _ := decodeSize(t, thumb)
	assert.Equal(t, 500, w)
}

func TestThumbnailNotAnImage(t *testing.T) {
	_, err := Thumbnail([]byte("definitely not pixels"), 100)
	require.Error(t, err)
}

func TestSupportedWidth(t *testing.T) {
	for _, w := range Widths {
		assert.True(t, SupportedWidth(w))
	}
	assert.False(t, SupportedWidth(0))
	assert.False(t, SupportedWidth(333))
}
