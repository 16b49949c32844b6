package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/VaibhavChidrawar/thumbnail-api/pkg/s3client"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ArtifactS3Repo is the alternate artifact backend; keys mirror the fs
// layout inside one bucket.
type ArtifactS3Repo struct {
	*s3client.S3Client
	bucket string
}

func NewArtifactS3Repo(s3c *s3client.S3Client, bucket string) *ArtifactS3Repo {
	return &ArtifactS3Repo{s3c, bucket}
}

func (r *ArtifactS3Repo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("ArtifactS3Repo - Upload - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ArtifactS3Repo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ArtifactS3Repo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ArtifactS3Repo) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("ArtifactS3Repo - Download: %w", errs.ErrArtifactMissing)
		}
		return nil, fmt.Errorf("ArtifactS3Repo - Download - r.Client.GetObject: %w", err)
	}

	return result.Body, nil
}

func (r *ArtifactS3Repo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	body, err := r.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("ArtifactS3Repo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *ArtifactS3Repo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ArtifactS3Repo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}
