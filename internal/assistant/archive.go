package assistant

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// ImageArchive stores complaint photos outside the document store.
type ImageArchive interface {
	Enabled() bool
	Put(ctx context.Context, img *Image) (key string, err error)
}

// S3API is the subset of the S3 client used by S3ImageArchive.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageArchive writes complaint photos to a bucket. With no bucket every
// call is a no-op.
type S3ImageArchive struct {
	bucket string
	client S3API
	logger *logging.Logger
	now    func() time.Time
}

func NewS3ImageArchive(client S3API, bucket string, logger *logging.Logger) *S3ImageArchive {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3ImageArchive{bucket: bucket, client: client, logger: logger, now: time.Now}
}

func (a *S3ImageArchive) Enabled() bool {
	return a != nil && a.bucket != "" && a.client != nil
}

// Put uploads img under complaints/v1/by-date/YYYY/MM/DD/<uuid>.<ext>.
func (a *S3ImageArchive) Put(ctx context.Context, img *Image) (string, error) {
	if !a.Enabled() || img == nil {
		return "", nil
	}
	now := a.now().UTC()
	key := fmt.Sprintf("complaints/v1/by-date/%d/%02d/%02d/%s.%s",
		now.Year(), now.Month(), now.Day(), uuid.NewString(), extension(img.MIMEType))

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.MIMEType),
	})
	if err != nil {
		return "", fmt.Errorf("assistant: s3 put %s: %w", key, err)
	}
	a.logger.Info("archived complaint image", "s3_key", key, "bytes", len(img.Data))
	return key, nil
}

func extension(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}
	return "jpg"
}
