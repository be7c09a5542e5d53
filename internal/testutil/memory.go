package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/s3api"
)

// StoredObject is an object held by MemoryS3, with the headers it was put with.
type StoredObject struct {
	Data            []byte
	ContentType     string
	ContentEncoding string
	Metadata        map[string]string
	Tagging         string
	StorageClass    types.StorageClass
	LastModified    time.Time
}

// MemoryS3 is an in-memory S3 fake covering the S3API subset. Buckets must be
// created up front; operations on other buckets fail with NoSuchBucket.
// It is safe for concurrent use.
type MemoryS3 struct {
	mu       sync.Mutex
	buckets  map[string]map[string]*StoredObject
	failPuts int
	putErr   error
	puts     int
	lists    int
}

// NewMemoryS3 creates a fake with the given buckets.
func NewMemoryS3(buckets ...string) *MemoryS3 {
	m := &MemoryS3{buckets: make(map[string]map[string]*StoredObject)}
	for _, b := range buckets {
		m.buckets[b] = make(map[string]*StoredObject)
	}
	return m
}

// FailNextPuts makes the next n PutObject calls fail with err.
func (m *MemoryS3) FailNextPuts(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPuts, m.putErr = n, err
}

// Seed stores data at bucket/key without going through PutObject.
func (m *MemoryS3) Seed(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string]*StoredObject)
	}
	m.buckets[bucket][key] = &StoredObject{Data: slices.Clone(data), LastModified: time.Now()}
}

// Object returns a copy of the object at bucket/key.
func (m *MemoryS3) Object(bucket, key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return StoredObject{}, false
	}
	out := *obj
	out.Data = slices.Clone(obj.Data)
	return out, true
}

// Keys returns the sorted keys in bucket.
func (m *MemoryS3) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.buckets[bucket]))
}

// Puts returns the number of PutObject calls, including failed ones.
func (m *MemoryS3) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Lists returns the number of ListObjectsV2 calls.
func (m *MemoryS3) Lists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

func (m *MemoryS3) bucket(name *string) (map[string]*StoredObject, error) {
	b, ok := m.buckets[aws.ToString(name)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	return b, nil
}

// PutObject stores the body and headers.
func (m *MemoryS3) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.failPuts > 0 {
		m.failPuts--
		return nil, m.putErr
	}
	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}

	var data []byte
	if params.Body != nil {
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}
	b[aws.ToString(params.Key)] = &StoredObject{
		Data:            data,
		ContentType:     aws.ToString(params.ContentType),
		ContentEncoding: aws.ToString(params.ContentEncoding),
		Metadata:        maps.Clone(params.Metadata),
		Tagging:         aws.ToString(params.Tagging),
		StorageClass:    params.StorageClass,
		LastModified:    time.Now(),
	}
	return &s3.PutObjectOutput{ETag: aws.String(etag(data))}, nil
}

// GetObject returns the stored body.
func (m *MemoryS3) GetObject(
	_ context.Context,
	params *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:            io.NopCloser(bytes.NewReader(slices.Clone(obj.Data))),
		ContentLength:   aws.Int64(int64(len(obj.Data))),
		ContentType:     aws.String(obj.ContentType),
		ContentEncoding: aws.String(obj.ContentEncoding),
		Metadata:        maps.Clone(obj.Metadata),
		LastModified:    aws.Time(obj.LastModified),
		ETag:            aws.String(etag(obj.Data)),
	}, nil
}

// HeadObject returns the stored headers.
func (m *MemoryS3) HeadObject(
	_ context.Context,
	params *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}
	return &s3.HeadObjectOutput{
		ContentLength:   aws.Int64(int64(len(obj.Data))),
		ContentType:     aws.String(obj.ContentType),
		ContentEncoding: aws.String(obj.ContentEncoding),
		Metadata:        maps.Clone(obj.Metadata),
		LastModified:    aws.Time(obj.LastModified),
		ETag:            aws.String(etag(obj.Data)),
	}, nil
}

// CopyObject copies between buckets held by the fake.
func (m *MemoryS3) CopyObject(
	_ context.Context,
	params *s3.CopyObjectInput,
	_ ...func(*s3.Options),
) (*s3.CopyObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, err := url.PathUnescape(aws.ToString(params.CopySource))
	if err != nil {
		return nil, err
	}
	srcBucket, srcKey, _ := strings.Cut(strings.TrimPrefix(source, "/"), "/")

	src, err := m.bucket(aws.String(srcBucket))
	if err != nil {
		return nil, err
	}
	dst, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := src[srcKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	clone := *obj
	clone.Data = slices.Clone(obj.Data)
	clone.LastModified = time.Now()
	dst[aws.ToString(params.Key)] = &clone
	return &s3.CopyObjectOutput{}, nil
}

// DeleteObject removes a key. Deleting a missing key succeeds.
func (m *MemoryS3) DeleteObject(
	_ context.Context,
	params *s3.DeleteObjectInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}
	delete(b, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// DeleteObjects removes up to 1000 keys.
func (m *MemoryS3) DeleteObjects(
	_ context.Context,
	params *s3.DeleteObjectsInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}
	if params.Delete == nil || len(params.Delete.Objects) > 1000 {
		return nil, fmt.Errorf("MalformedXML: expected 1 to 1000 keys")
	}

	out := &s3.DeleteObjectsOutput{}
	for _, id := range params.Delete.Objects {
		delete(b, aws.ToString(id.Key))
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: id.Key})
	}
	return out, nil
}

// ListObjectsV2 lists keys in order, honouring Prefix, MaxKeys and
// ContinuationToken.
func (m *MemoryS3) ListObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists++
	b, err := m.bucket(params.Bucket)
	if err != nil {
		return nil, err
	}

	maxKeys := int(aws.ToInt32(params.MaxKeys))
	if maxKeys <= 0 || maxKeys > 1000 {
		maxKeys = 1000
	}
	prefix := aws.ToString(params.Prefix)
	after := aws.ToString(params.ContinuationToken)

	out := &s3.ListObjectsV2Output{
		Name:   params.Bucket,
		Prefix: params.Prefix,
	}
	for _, key := range slices.Sorted(maps.Keys(b)) {
		if !strings.HasPrefix(key, prefix) || (after != "" && key <= after) {
			continue
		}
		if len(out.Contents) == maxKeys {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = out.Contents[len(out.Contents)-1].Key
			break
		}
		obj := b[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.Data))),
			LastModified: aws.Time(obj.LastModified),
			ETag:         aws.String(etag(obj.Data)),
		})
	}
	if out.IsTruncated == nil {
		out.IsTruncated = aws.Bool(false)
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func etag(data []byte) string {
	return fmt.Sprintf("\"%x\"", len(data))
}

// Verify that MemoryS3 implements S3API
var _ s3api.S3API = (*MemoryS3)(nil)
