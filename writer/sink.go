package writer

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3path"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// Sink stores flushed objects. Put must either store all of data at path or
// fail; the writer keeps its buffer when Put fails.
type Sink interface {
	Put(ctx context.Context, path string, data []byte) error
}

// ExistenceChecker is implemented by sinks that can tell whether an object
// already exists. Writers configured with FailIfExists consult it before
// every flush.
type ExistenceChecker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// ObjectStore is the part of the S3 client used by S3Sink.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.UploadOption) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// S3Sink writes objects to s3:// paths.
type S3Sink struct {
	store ObjectStore
	opts  []s3types.UploadOption
}

// NewS3Sink creates a sink over store. opts are applied to every upload,
// after the Content-Encoding derived from the object suffix.
//
//	tags, _ := tagger.ObjectTags("people-export")
//	sink := writer.NewS3Sink(client, s3.WithTags(tags))
func NewS3Sink(store ObjectStore, opts ...s3types.UploadOption) *S3Sink {
	return &S3Sink{store: store, opts: opts}
}

// Put uploads data to the s3:// path.
func (s *S3Sink) Put(ctx context.Context, p string, data []byte) error {
	bucket, key, err := s3path.Split(p)
	if err != nil {
		return err
	}

	opts := make([]s3types.UploadOption, 0, len(s.opts)+1)
	if encoding := contentEncoding(key); encoding != "" {
		opts = append(opts, func(c *s3types.UploadOptionConfig) {
			c.ContentEncoding = encoding
		})
	}
	opts = append(opts, s.opts...)
	return s.store.Put(ctx, bucket, key, data, opts...)
}

// Exists reports whether an object exists at the s3:// path.
func (s *S3Sink) Exists(ctx context.Context, p string) (bool, error) {
	bucket, key, err := s3path.Split(p)
	if err != nil {
		return false, err
	}
	return s.store.Exists(ctx, bucket, key)
}

func contentEncoding(key string) string {
	for _, c := range []Compressor{Gzip, Zstd} {
		if strings.HasSuffix(key, "."+c.Suffix) {
			return c.ContentEncoding
		}
	}
	return ""
}

// FSSink writes objects to a go-billy filesystem. Paths may carry a
// "file://" prefix. Parent directories are created as needed.
type FSSink struct {
	fs billy.Filesystem
}

// NewFSSink creates a sink over fs.
func NewFSSink(fs billy.Filesystem) *FSSink {
	return &FSSink{fs: fs}
}

// Put writes data to p, replacing any existing file.
func (s *FSSink) Put(_ context.Context, p string, data []byte) error {
	p = localPath(p)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return util.WriteFile(s.fs, p, data, 0o644)
}

// Exists reports whether a file exists at p.
func (s *FSSink) Exists(_ context.Context, p string) (bool, error) {
	_, err := s.fs.Stat(localPath(p))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewError("exists", err).WithKey(p)
}

func localPath(p string) string {
	return strings.TrimPrefix(p, "file://")
}

var (
	_ ExistenceChecker = (*S3Sink)(nil)
	_ ExistenceChecker = (*FSSink)(nil)
)
