package thumbs

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Thumbnail decodes an image, resizes it to the target width preserving
// aspect ratio, and re-encodes it in the source format.
func Thumbnail(data []byte, width int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var encoding imaging.Format
	switch format {
	case "jpeg":
		encoding = imaging.JPEG
	case "png":
		encoding = imaging.PNG
	case "gif":
		encoding = imaging.GIF
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, encoding); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
