package s3

import (
	"log/slog"
	"maps"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
)

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxRetries sets the maximum number of attempts the SDK makes per request.
// Default is 3.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the HTTP client timeout for individual S3 requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the maximum number of concurrent requests issued by
// the folder helpers. Default is 5.
func WithConcurrency(concurrency int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithFilesystem sets the filesystem used by the local transfer helpers.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger for the client. Nothing is logged by default.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithContentType sets the content type for upload operations.
// Without it the type is detected from the key and the content.
func WithContentType(contentType string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithContentEncoding sets the Content-Encoding header, e.g. "gzip".
func WithContentEncoding(encoding string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ContentEncoding = encoding
	}
}

// WithMetadata sets metadata for upload operations.
func WithMetadata(metadata map[string]string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		maps.Copy(c.Metadata, metadata)
	}
}

// WithTags sets object tags for upload operations.
func WithTags(tags map[string]string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		if c.Tags == nil {
			c.Tags = make(map[string]string)
		}
		maps.Copy(c.Tags, tags)
	}
}

// WithStorageClass sets the storage class for upload operations.
func WithStorageClass(storageClass s3types.StorageClass) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithExtension keeps only paths ending in ext. The leading dot is optional.
func WithExtension(ext string) s3types.ListOption {
	return func(c *s3types.ListOptionConfig) {
		c.Extension = ext
	}
}

// WithZeroByteFiles controls whether zero-byte objects, typically folder
// markers, are listed. They are excluded by default.
func WithZeroByteFiles(include bool) s3types.ListOption {
	return func(c *s3types.ListOptionConfig) {
		c.IncludeZeroByte = include
	}
}

// WithIndent pretty-prints JSON written by WriteJSON.
func WithIndent(indent string) s3types.WriteOption {
	return func(c *s3types.WriteOptionConfig) {
		c.Indent = indent
	}
}
