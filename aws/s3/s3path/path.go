// Package s3path converts between object-store URIs and bucket/key pairs.
//
// Paths have the form scheme://bucket/key. The scheme prefix is stripped
// before the split and the split happens on the first "/" only, so keys keep
// their own separators.
package s3path

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// DefaultScheme is the scheme used by Join.
const DefaultScheme = "s3"

const schemeSep = "://"

// Split splits an object-store path into its bucket and key.
//
//	bucket, key, err := s3path.Split("s3://bucket-name/folder/key.json")
//	// bucket == "bucket-name", key == "folder/key.json"
//
// A path without a "/" after the bucket has no key component and is rejected
// with ErrInvalidPath. A trailing "/" yields an empty key, which is the
// bucket-root folder used by prefix listings.
func Split(path string) (bucket, key string, err error) {
	rest := stripScheme(path)
	bucket, key, found := strings.Cut(rest, "/")
	if !found {
		return "", "", errors.NewError("split", errors.ErrInvalidPath).
			WithKey(path).
			WithMessage("path has no key component")
	}
	if bucket == "" {
		return "", "", errors.NewError("split", errors.ErrInvalidPath).
			WithKey(path).
			WithMessage("path has no bucket component")
	}
	return bucket, key, nil
}

// Join builds an s3:// path from a bucket and key. It is the left inverse of
// Split for well-formed s3:// paths.
func Join(bucket, key string) string {
	return JoinScheme(DefaultScheme, bucket, key)
}

// JoinScheme builds a path for an arbitrary scheme.
func JoinScheme(scheme, bucket, key string) string {
	return scheme + schemeSep + bucket + "/" + key
}

// EnsureTrailingSlash appends "/" if absent, which gives a path folder
// semantics before prefix-listing operations.
func EnsureTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// Scheme returns the scheme of path, or "" when the path has none.
func Scheme(path string) string {
	scheme, _, found := strings.Cut(path, schemeSep)
	if !found || strings.Contains(scheme, "/") {
		return ""
	}
	return scheme
}

// Base returns the final element of a key or path.
func Base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func stripScheme(path string) string {
	if scheme := Scheme(path); scheme != "" {
		return path[len(scheme)+len(schemeSep):]
	}
	return path
}
