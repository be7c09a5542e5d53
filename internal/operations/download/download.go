// Package download fetches objects into memory or onto a filesystem.
package download

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	GetObject(
		ctx context.Context,
		input *s3.GetObjectInput,
		opts ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

// Downloader retrieves objects.
type Downloader struct {
	client S3Interface
}

// New creates a new Downloader.
func New(client S3Interface) *Downloader {
	return &Downloader{
		client: client,
	}
}

// To streams bucket/key into w and returns the number of bytes written.
func (d *Downloader) To(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()

	return io.Copy(w, out.Body)
}

// ToFile downloads bucket/key to dst on fs. The object is written to a
// temporary file next to dst and renamed into place, so dst is never left
// half-written. Parent directories are created as needed.
func (d *Downloader) ToFile(ctx context.Context, bucket, key string, fs billy.Filesystem, dst string) (int64, error) {
	dir := path.Dir(dst)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp := path.Join(dir, "."+path.Base(dst)+"."+uuid.NewString()+".tmp")
	f, err := fs.Create(tmp)
	if err != nil {
		return 0, err
	}

	n, err := d.To(ctx, bucket, key, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fs.Remove(tmp)
		return 0, err
	}

	if err := fs.Rename(tmp, dst); err != nil {
		_ = fs.Remove(tmp)
		return 0, err
	}
	return n, nil
}
