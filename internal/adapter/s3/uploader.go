// Package s3 uploads run artifacts to an S3-compatible object store.
package s3

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/station-temperature-etl/internal/config"
)

// Uploader puts local files under <prefix>/<run-id>/ in a bucket.
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewUploader creates a client for the configured endpoint.
func NewUploader(cfg config.S3Config, logger *slog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, logger: logger}, nil
}

// Key returns the object key of a file uploaded for a run.
func (u *Uploader) Key(runID, file string) string {
	return path.Join(u.prefix, runID, filepath.Base(file))
}

// Upload puts each file under the run's prefix and returns the object keys.
// It stops at the first failure.
func (u *Uploader) Upload(ctx context.Context, runID string, files ...string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := u.Key(runID, f)
		info, err := u.client.FPutObject(ctx, u.bucket, key, f, minio.PutObjectOptions{
			ContentType: contentType(f),
		})
		if err != nil {
			return keys, fmt.Errorf("s3 put object %s: %w", key, err)
		}
		u.logger.Info("uploaded artifact", "bucket", u.bucket, "key", key, "bytes", info.Size)
		keys = append(keys, key)
	}
	return keys, nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	}
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return "application/octet-stream"
}
