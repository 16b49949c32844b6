package processor_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure/processor"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestThumbnailDownscalesWide(t *testing.T) {
	p := processor.New()

	out, err := p.Thumbnail(context.Background(), pngBytes(t, 400, 200))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 100 || h != 50 {
		t.Fatalf("thumbnail size = %dx%d, want 100x50", w, h)
	}
}

func TestThumbnailDownscalesTall(t *testing.T) {
	p := processor.New()

	out, err := p.Thumbnail(context.Background(), pngBytes(t, 50, 500))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 10 || h != 100 {
		t.Fatalf("thumbnail size = %dx%d, want 10x100", w, h)
	}
}

func TestThumbnailKeepsSmallImage(t *testing.T) {
	p := processor.New()

	out, err := p.Thumbnail(context.Background(), pngBytes(t, 64, 48))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 64 || h != 48 {
		t.Fatalf("thumbnail size = %dx%d, want 64x48", w, h)
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	p := processor.New()

	if _, err := p.Thumbnail(context.Background(), []byte("not an image")); err == nil {
		t.Fatal("Thumbnail accepted garbage input")
	}
}

func TestThumbnailHonorsCancelledContext(t *testing.T) {
	p := processor.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Thumbnail(ctx, pngBytes(t, 400, 200)); err == nil {
		t.Fatal("Thumbnail ignored cancelled context")
	}
}
