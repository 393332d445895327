package s3blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// reportContentType is the fallback content type. The archive bucket
	// holds nothing but JSON scan reports.
	reportContentType = "application/json"

	// minPartSize is S3's floor for multipart parts (5 MiB).
	minPartSize int64 = 5 * 1024 * 1024
)

// Writer uploads scan reports to an S3-compatible bucket. It implements
// domain.BlobWriter for the report archiver, which keys objects by scan date
// and run ID.
type Writer struct {
	client *s3.Client
	bucket string
}

// NewWriter creates a Writer that uploads into the given client's configured
// archive bucket.
func NewWriter(c *Client) *Writer {
	return &Writer{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// Put uploads a report as a single PutObject request. Reports from a typical
// catalog fit in one shot; only full-universe scans need PutMultipart. An
// empty contentType defaults to JSON.
func (w *Writer) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	if contentType == "" {
		contentType = reportContentType
	}

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put report %s: %w", key, err)
	}
	return nil
}

// PutMultipart uploads a large report through the S3 upload manager, which
// splits the payload into parts and uploads them concurrently. partSize is
// clamped to the S3 minimum, so callers can pass zero to get the default.
func (w *Writer) PutMultipart(ctx context.Context, key string, data io.Reader, partSize int64) error {
	if partSize < minPartSize {
		partSize = minPartSize
	}

	uploader := manager.NewUploader(w.client, func(u *manager.Uploader) {
		u.PartSize = partSize
	})

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(reportContentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: multipart report %s: %w", key, err)
	}
	return nil
}
