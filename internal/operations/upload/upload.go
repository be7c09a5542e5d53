// Package upload performs single-request object uploads.
//
// Objects produced by this module are bounded by the writer's flush size, so
// every upload is one PutObject call with the body held in memory.
package upload

import (
	"bytes"
	"context"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/s3api"
)

// DefaultContentType is used when neither the key nor the content identify a type.
const DefaultContentType = "application/octet-stream"

// extensionTypes covers data formats missing from the mime package's
// built-in table.
var extensionTypes = map[string]string{
	".jsonl":   "application/x-ndjson",
	".ndjson":  "application/x-ndjson",
	".csv":     "text/csv; charset=utf-8",
	".yaml":    "application/yaml",
	".yml":     "application/yaml",
	".parquet": "application/vnd.apache.parquet",
}

// Uploader puts objects.
type Uploader struct {
	s3Client s3api.S3API
}

// New creates a new Uploader.
func New(s3Client s3api.S3API) *Uploader {
	return &Uploader{
		s3Client: s3Client,
	}
}

// Put uploads data to bucket/key. When config.ContentType is empty the type
// is derived from the key's extension, then from the content itself.
func (u *Uploader) Put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *s3types.UploadOptionConfig,
) (*s3.PutObjectOutput, error) {
	contentType := config.ContentType
	if contentType == "" {
		contentType = DetectContentType(key, data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}

	if config.ContentEncoding != "" {
		input.ContentEncoding = aws.String(config.ContentEncoding)
	}
	if config.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(config.StorageClass)
	}
	if len(config.Metadata) > 0 {
		input.Metadata = config.Metadata
	}
	if len(config.Tags) > 0 {
		input.Tagging = aws.String(EncodeTags(config.Tags))
	}

	return u.s3Client.PutObject(ctx, input)
}

// DetectContentType returns the MIME type for an object. A trailing
// compression suffix is ignored when the rest of the key has a known type.
func DetectContentType(key string, data []byte) string {
	base := key
	for _, suffix := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, suffix)
	}
	if base != key {
		if t := typeByExtension(path.Ext(base)); t != "" {
			return t
		}
	}
	if t := typeByExtension(path.Ext(key)); t != "" {
		return t
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return DefaultContentType
}

func typeByExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// EncodeTags renders tags in the URL query form expected by the Tagging header.
func EncodeTags(tags map[string]string) string {
	values := url.Values{}
	for k, v := range tags {
		values.Set(k, v)
	}
	return values.Encode()
}
