// Package validation checks bucket names, object keys and tags before they
// are sent to S3 or mapped onto the local filesystem.
package validation

import (
	"net"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// S3 limits.
const (
	MaxKeyLength      = 1024
	MaxTags           = 10
	MaxTagKeyLength   = 128
	MaxTagValueLength = 256
)

// ValidateBucketName checks the DNS-compliant naming rules for buckets.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(msg)
	}

	if bucket == "" {
		return fail("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for _, r := range bucket {
		if !isBucketChar(r) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	if !isAlnum(bucket[0]) || !isAlnum(bucket[len(bucket)-1]) {
		return fail("bucket name must start and end with a letter or number")
	}
	if strings.Contains(bucket, "..") {
		return fail("bucket name cannot contain two adjacent periods")
	}
	if net.ParseIP(bucket) != nil {
		return fail("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey checks that key is a usable object key. Keys with ".."
// segments are rejected because downloaded keys become local paths.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(msg)
	}

	if key == "" {
		return fail("object key cannot be empty")
	}
	if err := ValidatePrefix(key); err != nil {
		return err
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return fail("object key cannot contain path traversal sequences")
		}
	}
	return nil
}

// ValidatePrefix checks a listing prefix. Unlike a key it may be empty.
func ValidatePrefix(prefix string) error {
	if len(prefix) > MaxKeyLength {
		return errors.NewError("validatePrefix", errors.ErrInvalidObjectKey).
			WithKey(prefix[:64] + "...").
			WithMessage("key cannot exceed 1024 bytes")
	}
	if strings.IndexFunc(prefix, unicode.IsControl) >= 0 {
		return errors.NewError("validatePrefix", errors.ErrInvalidObjectKey).
			WithKey(prefix).
			WithMessage("key cannot contain control characters")
	}
	return nil
}

// ValidateTags checks the S3 object tagging limits.
func ValidateTags(tags map[string]string) error {
	if len(tags) > MaxTags {
		return errors.NewError("validateTags", errors.ErrInvalidInput).
			WithMessage("an object can have at most 10 tags")
	}
	for k, v := range tags {
		if k == "" || len(k) > MaxTagKeyLength {
			return errors.NewError("validateTags", errors.ErrInvalidInput).
				WithMessage("tag key must be between 1 and 128 characters: " + k)
		}
		if len(v) > MaxTagValueLength {
			return errors.NewError("validateTags", errors.ErrInvalidInput).
				WithMessage("tag value cannot exceed 256 characters: " + k)
		}
	}
	return nil
}

func isBucketChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-'
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
