package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	thumbMaxWidth  = 100
	thumbMaxHeight = 100
)

type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

// Thumbnail bounds the image to 100x100 preserving aspect ratio and
// encodes the result as PNG. Images already inside the bound are
// re-encoded unchanged in size.
func (p *ImageProcessor) Thumbnail(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - ctx.Err: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - imaging.Decode: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > thumbMaxWidth || bounds.Dy() > thumbMaxHeight {
		img = imaging.Fit(img, thumbMaxWidth, thumbMaxHeight, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - ctx.Err: %w", err)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
