// Package errors provides the error taxonomy shared by the dataeng packages.
// It extends Go's standard error handling with string error codes, operation
// context (bucket and key for object-store failures) and sentinel values that
// work with errors.Is.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Configuration errors.

	// CodeInvalidConfig indicates a bad batch size, threshold or other setting.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeInvalidPath indicates a malformed object-store path.
	CodeInvalidPath ErrorCode = "INVALID_PATH"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Infrastructure errors.

	// CodeQueryFailed indicates a cursor execute or fetch failed.
	CodeQueryFailed ErrorCode = "QUERY_EXECUTION_FAILED"

	// CodeUploadFailed indicates an object-store write failed.
	CodeUploadFailed ErrorCode = "UPLOAD_FAILED"

	// Resource errors.

	// CodeNotFound indicates a requested object or bucket does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a target already exists and overwrite was not requested.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeForbidden indicates the caller lacks permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeClosed indicates the resource was used after Close.
	CodeClosed ErrorCode = "CLOSED"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}
