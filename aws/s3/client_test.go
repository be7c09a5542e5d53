package s3

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
)

// TestClient_New tests the New() constructor with a supplied AWS configuration,
// so no credential chain lookup happens.
func TestClient_New(t *testing.T) {
	tests := []struct {
		name       string
		awsCfg     aws.Config
		opts       []s3types.Option
		wantRegion string
	}{
		{
			name:       "region from aws config",
			awsCfg:     aws.Config{Region: "eu-west-2"},
			wantRegion: "eu-west-2",
		},
		{
			name:       "region option overrides aws config",
			awsCfg:     aws.Config{Region: "eu-west-2"},
			opts:       []s3types.Option{WithRegion("us-west-2")},
			wantRegion: "us-west-2",
		},
		{
			name:       "default region when none configured",
			awsCfg:     aws.Config{},
			wantRegion: DefaultRegion,
		},
		{
			name:   "endpoint, path style and timeout",
			awsCfg: aws.Config{Region: "us-east-1"},
			opts: []s3types.Option{
				WithEndpoint("http://localhost:4566"),
				WithForcePathStyle(true),
				WithTimeout(5 * time.Second),
				WithMaxRetries(5),
			},
			wantRegion: "us-east-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			awsCfg := tt.awsCfg
			opts := append([]s3types.Option{WithAWSConfig(&awsCfg)}, tt.opts...)

			client, err := New(opts...)
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.NotNil(t, client.s3Client)
			assert.Equal(t, tt.wantRegion, client.Region())
			assert.NotNil(t, client.Filesystem())
		})
	}
}

// TestClient_New_DoesNotMutateAWSConfig checks that options are applied to a copy.
func TestClient_New_DoesNotMutateAWSConfig(t *testing.T) {
	awsCfg := aws.Config{Region: "eu-west-2"}

	_, err := New(WithAWSConfig(&awsCfg), WithRegion("us-west-2"), WithMaxRetries(7))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-2", awsCfg.Region)
	assert.Equal(t, 0, awsCfg.RetryMaxAttempts)
}

func TestNewWithClient_Defaults(t *testing.T) {
	client := NewWithClient(&testutil.MockS3Client{})

	assert.Equal(t, DefaultConcurrency, client.concurrency)
	assert.NotNil(t, client.logger)
	assert.NotNil(t, client.fs)
	assert.True(t, client.absLocal)
}

func TestNewWithClient_Options(t *testing.T) {
	fs := memfs.New()
	logger, _ := logging.New(logging.Config{})

	client := NewWithClient(&testutil.MockS3Client{},
		WithFilesystem(fs),
		WithLogger(logger),
		WithConcurrency(12),
		WithConcurrency(0),
	)

	assert.Same(t, fs, client.Filesystem())
	assert.Same(t, logger, client.logger)
	assert.Equal(t, 12, client.concurrency)
	assert.False(t, client.absLocal)
}

func TestUploadOptions(t *testing.T) {
	cfg := &s3types.UploadOptionConfig{}
	for _, opt := range []s3types.UploadOption{
		WithContentType("text/csv"),
		WithContentEncoding("gzip"),
		WithMetadata(map[string]string{"a": "1"}),
		WithMetadata(map[string]string{"b": "2"}),
		WithTags(map[string]string{"owner": "data"}),
		WithStorageClass(s3types.StorageClassStandardIA),
	} {
		opt(cfg)
	}

	assert.Equal(t, "text/csv", cfg.ContentType)
	assert.Equal(t, "gzip", cfg.ContentEncoding)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.Metadata)
	assert.Equal(t, map[string]string{"owner": "data"}, cfg.Tags)
	assert.Equal(t, s3types.StorageClassStandardIA, cfg.StorageClass)
}
