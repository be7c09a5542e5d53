// Package s3types provides shared type definitions for the S3 package.
package s3types

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
)

// StorageClass represents the S3 storage class for objects.
type StorageClass string

// Predefined S3 storage classes
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// Object represents an S3 object with its basic metadata.
type Object struct {
	// Key is the S3 object key (path)
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the S3 entity tag for the object
	ETag string
}

// ObjectMetadata contains detailed metadata about an S3 object.
type ObjectMetadata struct {
	ContentType     string
	ContentEncoding string
	ContentLength   int64
	LastModified    time.Time
	ETag            string

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// DeleteResult contains the result of a batch delete.
type DeleteResult struct {
	// Deleted contains the keys that were removed
	Deleted []string

	// Errors contains per-key failures reported by S3
	Errors []DeleteError
}

// DeleteError represents a key that S3 refused to delete.
type DeleteError struct {
	Key     string
	Code    string
	Message string
}

// ClientConfig holds configuration for the S3 client.
type ClientConfig struct {
	Region          string
	Endpoint        string
	MaxRetries      int
	Timeout         time.Duration
	Concurrency     int
	ForcePathStyle  bool
	CustomAWSConfig *aws.Config
	Filesystem      billy.Filesystem
	Logger          *slog.Logger
}

// UploadOptionConfig holds configuration for upload operations.
type UploadOptionConfig struct {
	ContentType     string
	ContentEncoding string
	Metadata        map[string]string
	Tags            map[string]string
	StorageClass    StorageClass
}

// ListOptionConfig holds configuration for path listings.
type ListOptionConfig struct {
	// Extension keeps only keys ending in this suffix ("json" or ".json")
	Extension string

	// IncludeZeroByte keeps zero-byte objects, usually folder markers
	IncludeZeroByte bool
}

// WriteOptionConfig holds configuration for JSON writes.
type WriteOptionConfig struct {
	Indent string
}

type (
	// Option is a functional option for configuring the S3 client.
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring S3 upload operations.
	UploadOption func(*UploadOptionConfig)
	// ListOption is a functional option for configuring path listings.
	ListOption func(*ListOptionConfig)
	// WriteOption is a functional option for configuring JSON writes.
	WriteOption func(*WriteOptionConfig)
)
