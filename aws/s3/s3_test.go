package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
)

// TestClient_Put_WithMock tests the Put method with mocked S3 client.
func TestClient_Put_WithMock(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		key       string
		content   string
		opts      []s3types.UploadOption
		setupMock func(*testutil.MockS3Client)
		wantErr   error
	}{
		{
			name:    "successful put",
			bucket:  "test-bucket",
			key:     "test-key.json",
			content: `{"a":1}`,
			setupMock: func(m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
					assert.Equal(t, "test-key.json", aws.ToString(params.Key))
					assert.Equal(t, "application/json", aws.ToString(params.ContentType))
					assert.Nil(t, params.Tagging)

					body, err := io.ReadAll(params.Body)
					require.NoError(t, err)
					assert.Equal(t, `{"a":1}`, string(body))
					return &s3.PutObjectOutput{ETag: aws.String("etag")}, nil
				}
			},
		},
		{
			name:    "put with headers and tags",
			bucket:  "test-bucket",
			key:     "data/part-0.jsonl.gz",
			content: "zipped",
			opts: []s3types.UploadOption{
				WithContentEncoding("gzip"),
				WithMetadata(map[string]string{"author": "test-author"}),
				WithTags(map[string]string{"business-unit": "Platforms"}),
				WithStorageClass(s3types.StorageClassStandardIA),
			},
			setupMock: func(m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Equal(t, "application/x-ndjson", aws.ToString(params.ContentType))
					assert.Equal(t, "gzip", aws.ToString(params.ContentEncoding))
					assert.Equal(t, "test-author", params.Metadata["author"])
					assert.Equal(t, "business-unit=Platforms", aws.ToString(params.Tagging))
					assert.Equal(t, types.StorageClassStandardIa, params.StorageClass)
					return &s3.PutObjectOutput{}, nil
				}
			},
		},
		{
			name:    "invalid bucket name",
			bucket:  "Invalid_Bucket",
			key:     "key",
			wantErr: dataerrors.ErrInvalidInput,
		},
		{
			name:    "empty key",
			bucket:  "test-bucket",
			key:     "",
			wantErr: dataerrors.ErrInvalidObjectKey,
		},
		{
			name:   "too many tags",
			bucket: "test-bucket",
			key:    "key",
			opts: []s3types.UploadOption{WithTags(map[string]string{
				"a": "1", "b": "2", "c": "3", "d": "4", "e": "5", "f": "6",
				"g": "7", "h": "8", "i": "9", "j": "10", "k": "11",
			})},
			wantErr: dataerrors.ErrInvalidInput,
		},
		{
			name:   "access denied",
			bucket: "test-bucket",
			key:    "key",
			setupMock: func(m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
				}
			},
			wantErr: dataerrors.ErrAccessDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			client := NewWithClient(mock)

			err := client.Put(context.Background(), tt.bucket, tt.key, []byte(tt.content), tt.opts...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClient_Upload(t *testing.T) {
	var got []byte
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			var err error
			got, err = io.ReadAll(params.Body)
			return &s3.PutObjectOutput{}, err
		},
	}
	client := NewWithClient(mock)

	err := client.Upload(context.Background(), "test-bucket", "stream.txt", strings.NewReader("streamed"))
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(got))

	err = client.Upload(context.Background(), "test-bucket", "stream.txt", nil)
	assert.ErrorIs(t, err, dataerrors.ErrInvalidInput)
}

func TestClient_Get_WithMock(t *testing.T) {
	tests := []struct {
		name    string
		getErr  error
		body    string
		wantErr error
	}{
		{
			name: "successful get",
			body: "hello",
		},
		{
			name:    "missing key",
			getErr:  &types.NoSuchKey{Message: aws.String("missing")},
			wantErr: dataerrors.ErrObjectNotFound,
		},
		{
			name:    "missing bucket",
			getErr:  &types.NoSuchBucket{Message: aws.String("missing")},
			wantErr: dataerrors.ErrBucketNotFound,
		},
		{
			name:    "unclassified error",
			getErr:  errors.New("connection reset"),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					if tt.getErr != nil {
						return nil, tt.getErr
					}
					return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(tt.body))}, nil
				},
			}
			client := NewWithClient(mock)

			data, err := client.Get(context.Background(), "test-bucket", "key")
			switch {
			case tt.getErr == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(data))
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, tt.getErr)
			default:
				assert.ErrorIs(t, err, tt.getErr)
				assert.Equal(t, dataerrors.CodeUnknown, dataerrors.CodeOf(err))
			}
		})
	}
}

func TestClient_Download(t *testing.T) {
	mock := &testutil.MockS3Client{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("0123456789"))}, nil
		},
	}
	client := NewWithClient(mock)

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "test-bucket", "key", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", buf.String())

	_, err = client.Download(context.Background(), "test-bucket", "key", nil)
	assert.ErrorIs(t, err, dataerrors.ErrInvalidInput)
}

func TestClient_Exists(t *testing.T) {
	tests := []struct {
		name    string
		headErr error
		want    bool
		wantErr error
	}{
		{name: "exists", want: true},
		{name: "not found", headErr: &types.NotFound{}, want: false},
		{name: "no such key", headErr: &types.NoSuchKey{}, want: false},
		{name: "missing bucket", headErr: &types.NoSuchBucket{}, wantErr: dataerrors.ErrBucketNotFound},
		{
			name:    "forbidden",
			headErr: &smithy.GenericAPIError{Code: "Forbidden"},
			wantErr: dataerrors.ErrAccessDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{
				HeadObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
					if tt.headErr != nil {
						return nil, tt.headErr
					}
					return &s3.HeadObjectOutput{}, nil
				},
			}
			client := NewWithClient(mock)

			got, err := client.Exists(context.Background(), "test-bucket", "key")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_GetMetadata(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := &testutil.MockS3Client{
		HeadObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{
				ContentType:     aws.String("application/json"),
				ContentEncoding: aws.String("gzip"),
				ContentLength:   aws.Int64(42),
				LastModified:    aws.Time(modified),
				ETag:            aws.String(`"abc"`),
				Metadata:        map[string]string{"author": "me"},
			}, nil
		},
	}
	client := NewWithClient(mock)

	meta, err := client.GetMetadata(context.Background(), "test-bucket", "key")
	require.NoError(t, err)
	assert.Equal(t, &s3types.ObjectMetadata{
		ContentType:     "application/json",
		ContentEncoding: "gzip",
		ContentLength:   42,
		LastModified:    modified,
		ETag:            `"abc"`,
		Metadata:        map[string]string{"author": "me"},
	}, meta)
}

func TestClient_Copy(t *testing.T) {
	mock := &testutil.MockS3Client{
		CopyObjectFunc: func(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
			assert.Equal(t, "dst-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "b/c.txt", aws.ToString(params.Key))
			assert.Equal(t, "src-bucket/a%20b/c.txt", aws.ToString(params.CopySource))
			return &s3.CopyObjectOutput{}, nil
		},
	}
	client := NewWithClient(mock)

	require.NoError(t, client.Copy(context.Background(), "src-bucket", "a b/c.txt", "dst-bucket", "b/c.txt"))

	err := client.Copy(context.Background(), "src-bucket", "../x", "dst-bucket", "b/c.txt")
	assert.ErrorIs(t, err, dataerrors.ErrInvalidInput)
}

func TestClient_DeleteMany_Batches(t *testing.T) {
	var calls int
	mock := &testutil.MockS3Client{
		DeleteObjectsFunc: func(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			calls++
			out := &s3.DeleteObjectsOutput{}
			for _, obj := range params.Delete.Objects {
				if aws.ToString(obj.Key) == "locked" {
					out.Errors = append(out.Errors, types.Error{Key: obj.Key, Code: aws.String("AccessDenied")})
					continue
				}
				out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
			}
			return out, nil
		},
	}
	client := NewWithClient(mock, WithConcurrency(1))

	keys := make([]string, 0, 2501)
	for i := range 2500 {
		keys = append(keys, "k/"+strings.Repeat("x", i%7)+string(rune('a'+i%26)))
	}
	keys = append(keys, "locked")

	result, err := client.DeleteMany(context.Background(), "test-bucket", keys)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, result.Deleted, 2500)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "locked", result.Errors[0].Key)
}

func TestConvertAWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &types.NoSuchKey{}, dataerrors.ErrObjectNotFound},
		{"not found", &types.NotFound{}, dataerrors.ErrObjectNotFound},
		{"no such bucket", &types.NoSuchBucket{}, dataerrors.ErrBucketNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, dataerrors.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertAWSError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, convertAWSError(nil))
	plain := errors.New("plain")
	assert.Same(t, plain, convertAWSError(plain))
}
