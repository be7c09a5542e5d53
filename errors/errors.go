package errors

import (
	"errors"
	"fmt"
)

// Error represents a failed operation with context about what was being done.
// It wraps the underlying cause (AWS SDK, database driver, filesystem) so that
// errors.Is and errors.As keep working through it.
type Error struct {
	// Op is the operation that failed (e.g., "flush", "open", "listPaths")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key or local path (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code classifies the error by the first sentinel found in its chain.
func (e *Error) Code() ErrorCode {
	return CodeOf(e.Err)
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// WithCause attaches a second error to the chain so that both the sentinel
// and the underlying cause are reachable through errors.Is / errors.As.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	e.Err = fmt.Errorf("%w: %w", e.Err, cause)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfiguration indicates a bad batch size, threshold or setting
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidPath indicates a malformed object-store path
	ErrInvalidPath = errors.New("invalid path")

	// ErrQueryExecution indicates a cursor execute or fetch failure
	ErrQueryExecution = errors.New("query execution failed")

	// ErrUpload indicates an object-store write failure
	ErrUpload = errors.New("upload failed")

	// ErrAlreadyExists indicates the target exists and overwrite was not requested
	ErrAlreadyExists = errors.New("already exists")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrSecretNotFound indicates that the requested secret does not exist
	ErrSecretNotFound = errors.New("secret not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("invalid object key")

	// ErrWriterClosed indicates a write or flush after Close
	ErrWriterClosed = errors.New("writer closed")
)

var codes = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidConfiguration, CodeInvalidConfig},
	{ErrInvalidPath, CodeInvalidPath},
	{ErrInvalidBucketName, CodeInvalidInput},
	{ErrInvalidObjectKey, CodeInvalidInput},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrQueryExecution, CodeQueryFailed},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrObjectNotFound, CodeNotFound},
	{ErrBucketNotFound, CodeNotFound},
	{ErrSecretNotFound, CodeNotFound},
	{ErrAccessDenied, CodeForbidden},
	{ErrWriterClosed, CodeClosed},
	{ErrUpload, CodeUploadFailed},
}

// CodeOf returns the ErrorCode for err, or CodeUnknown when no sentinel matches.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAlreadyExists checks if an error indicates the target already exists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidConfiguration checks if an error indicates a configuration problem.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsInvalidPath checks if an error indicates a malformed path.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsUpload checks if an error indicates a failed upload.
func IsUpload(err error) bool {
	return errors.Is(err, ErrUpload)
}
