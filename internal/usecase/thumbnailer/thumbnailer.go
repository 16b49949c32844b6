package thumbnailer

import (
	"context"
	"fmt"

	"github.com/VaibhavChidrawar/thumbnail-api/internal/infrastructure"
)

type ThumbnailerUseCase struct {
	p infrastructure.ImageProcessor
}

func New(p infrastructure.ImageProcessor) *ThumbnailerUseCase {
	return &ThumbnailerUseCase{p}
}

func (uc *ThumbnailerUseCase) Thumbnail(ctx context.Context, data []byte) ([]byte, error) {
	result, err := uc.p.Thumbnail(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ThumbnailerUseCase - Thumbnail: %w", err)
	}

	return result, nil
}
