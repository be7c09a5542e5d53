package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/copy"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/delete"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/validation"
)

// Put uploads data to bucket/key in a single request.
// The content type is detected from the key and the content unless
// WithContentType is given.
//
// Errors:
//   - ErrInvalidInput: If the bucket name, key or tags are invalid
//   - ErrAccessDenied: If the credentials lack permission to upload
//   - ErrBucketNotFound: If the specified bucket doesn't exist
//
// Example:
//
//	err := client.Put(ctx, "my-bucket", "exports/people.csv", data,
//	    s3.WithTags(map[string]string{"owner": "data"}),
//	)
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.UploadOption) error {
	if err := validateObject("put", bucket, key); err != nil {
		return err
	}

	config := &s3types.UploadOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if err := validation.ValidateTags(config.Tags); err != nil {
		return dataerrors.NewObjectError("put", bucket, key, dataerrors.ErrInvalidInput).WithCause(err)
	}

	if _, err := upload.New(c.s3Client).Put(ctx, bucket, key, data, config); err != nil {
		return dataerrors.NewObjectError("put", bucket, key, convertAWSError(err))
	}
	return nil
}

// Upload reads r to the end and uploads it to bucket/key.
// It accepts the same options as Put.
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	r io.Reader,
	opts ...s3types.UploadOption,
) error {
	if r == nil {
		return dataerrors.NewObjectError("upload", bucket, key, dataerrors.ErrInvalidInput).
			WithMessage("reader cannot be nil")
	}

	buf := pool.Get()
	defer pool.Put(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return dataerrors.NewObjectError("upload", bucket, key, err)
	}
	return c.Put(ctx, bucket, key, buf.Bytes(), opts...)
}

// Get downloads the object at bucket/key into memory.
//
// Errors:
//   - ErrInvalidInput: If the bucket name or key is invalid
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrBucketNotFound: If the specified bucket doesn't exist
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateObject("get", bucket, key); err != nil {
		return nil, err
	}

	buf := pool.Get()
	defer pool.Put(buf)

	if _, err := download.New(c.s3Client).To(ctx, bucket, key, buf); err != nil {
		return nil, dataerrors.NewObjectError("get", bucket, key, convertAWSError(err))
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Download streams the object at bucket/key into w and returns the number of
// bytes written.
func (c *Client) Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	if err := validateObject("download", bucket, key); err != nil {
		return 0, err
	}
	if w == nil {
		return 0, dataerrors.NewObjectError("download", bucket, key, dataerrors.ErrInvalidInput).
			WithMessage("writer cannot be nil")
	}

	n, err := download.New(c.s3Client).To(ctx, bucket, key, w)
	if err != nil {
		return n, dataerrors.NewObjectError("download", bucket, key, convertAWSError(err))
	}
	return n, nil
}

// List returns every object under prefix, in key order. Pagination is
// handled internally.
//
// Example:
//
//	objects, err := client.List(ctx, "my-bucket", "exports/2024/")
//	for _, obj := range objects {
//	    fmt.Println(obj.Key, obj.Size)
//	}
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, dataerrors.NewObjectError("list", bucket, prefix, dataerrors.ErrInvalidInput).WithCause(err)
	}
	if err := validation.ValidatePrefix(prefix); err != nil {
		return nil, dataerrors.NewObjectError("list", bucket, prefix, dataerrors.ErrInvalidInput).WithCause(err)
	}

	objects, err := list.New(c.s3Client).All(ctx, bucket, prefix)
	if err != nil {
		return nil, dataerrors.NewObjectError("list", bucket, prefix, convertAWSError(err))
	}
	return objects, nil
}

// Delete removes the object at bucket/key. Deleting a missing object succeeds.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validateObject("delete", bucket, key); err != nil {
		return err
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return dataerrors.NewObjectError("delete", bucket, key, convertAWSError(err))
	}
	return nil
}

// DeleteMany removes keys from bucket in batches of up to 1000 keys, running
// at most Concurrency batches at once.
//
// Returns:
//   - *DeleteResult: The keys removed and the keys S3 refused to delete
//   - error: Returns an error if a request fails
func (c *Client) DeleteMany(ctx context.Context, bucket string, keys []string) (*s3types.DeleteResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, dataerrors.NewError("deleteMany", dataerrors.ErrInvalidInput).WithBucket(bucket).WithCause(err)
	}
	for _, key := range keys {
		if err := validation.ValidateObjectKey(key); err != nil {
			return nil, dataerrors.NewObjectError("deleteMany", bucket, key, dataerrors.ErrInvalidInput).WithCause(err)
		}
	}

	result, err := delete.New(c.s3Client, c.concurrency).Delete(ctx, bucket, keys)
	if err != nil {
		return result, dataerrors.NewError("deleteMany", convertAWSError(err)).WithBucket(bucket)
	}
	return result, nil
}

// Exists reports whether the object at bucket/key exists.
// A missing object is not an error; a missing bucket is.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := validateObject("exists", bucket, key); err != nil {
		return false, err
	}

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		converted := convertAWSError(err)
		if errors.Is(converted, dataerrors.ErrObjectNotFound) {
			return false, nil
		}
		return false, dataerrors.NewObjectError("exists", bucket, key, converted)
	}
	return true, nil
}

// GetMetadata retrieves metadata for an S3 object without downloading the content.
//
// Errors:
//   - ErrInvalidInput: If the bucket name or key is invalid
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrAccessDenied: If the credentials lack permission to access
func (c *Client) GetMetadata(ctx context.Context, bucket, key string) (*s3types.ObjectMetadata, error) {
	if err := validateObject("getMetadata", bucket, key); err != nil {
		return nil, err
	}

	out, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, dataerrors.NewObjectError("getMetadata", bucket, key, convertAWSError(err))
	}

	return &s3types.ObjectMetadata{
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		ContentLength:   aws.ToInt64(out.ContentLength),
		LastModified:    aws.ToTime(out.LastModified),
		ETag:            aws.ToString(out.ETag),
		Metadata:        out.Metadata,
	}, nil
}

// Copy performs a server-side copy, overwriting the destination if it exists.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := validateObject("copy", srcBucket, srcKey); err != nil {
		return err
	}
	if err := validateObject("copy", dstBucket, dstKey); err != nil {
		return err
	}

	err := copy.New(c.s3Client, 1).Copy(ctx, copy.Pair{
		SrcBucket: srcBucket,
		SrcKey:    srcKey,
		DstBucket: dstBucket,
		DstKey:    dstKey,
	})
	if err != nil {
		return dataerrors.NewObjectError("copy", srcBucket, srcKey, convertAWSError(err)).
			WithMessage(fmt.Sprintf("to %s/%s", dstBucket, dstKey))
	}
	return nil
}

func validateObject(op, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return dataerrors.NewObjectError(op, bucket, key, dataerrors.ErrInvalidInput).WithCause(err)
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return dataerrors.NewObjectError(op, bucket, key, dataerrors.ErrInvalidInput).WithCause(err)
	}
	return nil
}

// convertAWSError classifies SDK errors by their API error code. The SDK
// error stays in the chain.
func convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", dataerrors.ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", dataerrors.ErrBucketNotFound, err)
	case "AccessDenied", "Forbidden":
		return fmt.Errorf("%w: %w", dataerrors.ErrAccessDenied, err)
	}
	return err
}
