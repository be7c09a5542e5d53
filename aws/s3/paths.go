package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3path"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/copy"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/isojson"
)

// GzipContentType is the content type of objects written by GzipWriteString.
const GzipContentType = "application/gzip"

// GzipWriteString gzips s and writes it to path.
func (c *Client) GzipWriteString(ctx context.Context, s, path string) error {
	bucket, key, err := splitPath("gzipWriteString", path)
	if err != nil {
		return err
	}

	buf := pool.Get()
	defer pool.Put(buf)

	zw := gzip.NewWriter(buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		return dataerrors.NewObjectError("gzipWriteString", bucket, key, err)
	}
	if err := zw.Close(); err != nil {
		return dataerrors.NewObjectError("gzipWriteString", bucket, key, err)
	}
	return c.Put(ctx, bucket, key, buf.Bytes(), WithContentType(GzipContentType))
}

// ReadObject returns the content of the object at path.
func (c *Client) ReadObject(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := splitPath("readObject", path)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, bucket, key)
}

// ReadString returns the content of the object at path as a string.
func (c *Client) ReadString(ctx context.Context, path string) (string, error) {
	data, err := c.ReadObject(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON decodes the JSON object at path into v.
func (c *Client) ReadJSON(ctx context.Context, path string, v any) error {
	data, err := c.ReadObject(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return dataerrors.NewError("readJSON", dataerrors.ErrInvalidInput).WithKey(path).WithCause(err)
	}
	return nil
}

// WriteJSON encodes v as JSON and writes it to path. Time values are written
// as ISO-8601 strings.
//
// Example:
//
//	err := client.WriteJSON(ctx, manifest, "s3://my-bucket/exports/manifest.json",
//	    s3.WithIndent("  "),
//	)
func (c *Client) WriteJSON(ctx context.Context, v any, path string, opts ...s3types.WriteOption) error {
	bucket, key, err := splitPath("writeJSON", path)
	if err != nil {
		return err
	}

	config := &s3types.WriteOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var data []byte
	if config.Indent != "" {
		data, err = isojson.MarshalIndent(v, "", config.Indent)
	} else {
		data, err = isojson.Marshal(v)
	}
	if err != nil {
		return dataerrors.NewObjectError("writeJSON", bucket, key, dataerrors.ErrInvalidInput).WithCause(err)
	}
	return c.Put(ctx, bucket, key, data, WithContentType("application/json"))
}

// ReadYAML decodes the YAML object at path into v.
func (c *Client) ReadYAML(ctx context.Context, path string, v any) error {
	data, err := c.ReadObject(ctx, path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return dataerrors.NewError("readYAML", dataerrors.ErrInvalidInput).WithKey(path).WithCause(err)
	}
	return nil
}

// ListPaths returns the sorted s3:// paths of the objects under folder.
// folder is treated as a folder whether or not it ends in "/". Zero-byte
// objects are skipped unless WithZeroByteFiles(true) is given.
//
// Example:
//
//	paths, err := client.ListPaths(ctx, "s3://my-bucket/exports", s3.WithExtension("json"))
//	// ["s3://my-bucket/exports/a.json", "s3://my-bucket/exports/sub/b.json"]
func (c *Client) ListPaths(ctx context.Context, folder string, opts ...s3types.ListOption) ([]string, error) {
	config := &s3types.ListOptionConfig{}
	for _, opt := range opts {
		opt(config)
	}

	bucket, _, objects, err := c.listFolder(ctx, "listPaths", folder, !config.IncludeZeroByte)
	if err != nil {
		return nil, err
	}

	ext := config.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	paths := make([]string, 0, len(objects))
	for _, obj := range objects {
		if ext != "" && !strings.HasSuffix(obj.Key, ext) {
			continue
		}
		paths = append(paths, s3path.Join(bucket, obj.Key))
	}
	slices.Sort(paths)
	return paths, nil
}

// CopyObject copies the object at from to to.
func (c *Client) CopyObject(ctx context.Context, from, to string) error {
	srcBucket, srcKey, err := splitPath("copyObject", from)
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := splitPath("copyObject", to)
	if err != nil {
		return err
	}
	return c.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
}

// DeleteObject deletes the object at path.
func (c *Client) DeleteObject(ctx context.Context, path string) error {
	bucket, key, err := splitPath("deleteObject", path)
	if err != nil {
		return err
	}
	return c.Delete(ctx, bucket, key)
}

// ObjectExists reports whether an object exists at path.
func (c *Client) ObjectExists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := splitPath("objectExists", path)
	if err != nil {
		return false, err
	}
	return c.Exists(ctx, bucket, key)
}

// CopyFolder copies every object under from to the same relative key under
// to. Copies run server-side, at most Concurrency at a time; the first
// failure stops the copies not yet started.
func (c *Client) CopyFolder(ctx context.Context, from, to string, excludeZeroByte bool) error {
	srcBucket, srcPrefix, objects, err := c.listFolder(ctx, "copyFolder", from, excludeZeroByte)
	if err != nil {
		return err
	}
	dstBucket, dstPrefix, err := splitPath("copyFolder", s3path.EnsureTrailingSlash(to))
	if err != nil {
		return err
	}

	pairs := make([]copy.Pair, 0, len(objects))
	for _, obj := range objects {
		pairs = append(pairs, copy.Pair{
			SrcBucket: srcBucket,
			SrcKey:    obj.Key,
			DstBucket: dstBucket,
			DstKey:    dstPrefix + strings.TrimPrefix(obj.Key, srcPrefix),
		})
	}

	if err := copy.New(c.s3Client, c.concurrency).CopyMany(ctx, pairs); err != nil {
		return dataerrors.NewObjectError("copyFolder", srcBucket, srcPrefix, convertAWSError(err))
	}
	c.logger.Debug("copied folder", "from", from, "to", to, "objects", len(pairs))
	return nil
}

// DeleteFolder deletes every object under folder using batched requests.
func (c *Client) DeleteFolder(ctx context.Context, folder string, excludeZeroByte bool) error {
	bucket, prefix, objects, err := c.listFolder(ctx, "deleteFolder", folder, excludeZeroByte)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}

	result, err := c.DeleteMany(ctx, bucket, keys)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		return dataerrors.NewObjectError("deleteFolder", bucket, prefix,
			fmt.Errorf("%d objects not deleted, first %s: %s %s",
				len(result.Errors), first.Key, first.Code, first.Message))
	}
	c.logger.Debug("deleted folder", "folder", folder, "objects", len(result.Deleted))
	return nil
}

// listFolder lists the objects under folder, which gets a trailing slash.
func (c *Client) listFolder(
	ctx context.Context,
	op, folder string,
	excludeZeroByte bool,
) (bucket, prefix string, objects []s3types.Object, err error) {
	bucket, prefix, err = splitPath(op, s3path.EnsureTrailingSlash(folder))
	if err != nil {
		return "", "", nil, err
	}

	err = list.New(c.s3Client).Each(ctx, bucket, prefix, func(obj s3types.Object) error {
		if excludeZeroByte && obj.Size == 0 {
			return nil
		}
		objects = append(objects, obj)
		return nil
	})
	if err != nil {
		return "", "", nil, dataerrors.NewObjectError(op, bucket, prefix, convertAWSError(err))
	}
	return bucket, prefix, objects, nil
}

func splitPath(op, path string) (bucket, key string, err error) {
	bucket, key, err = s3path.Split(path)
	if err != nil {
		return "", "", dataerrors.NewError(op, err).WithKey(path)
	}
	return bucket, key, nil
}
