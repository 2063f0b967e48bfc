package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the parent of every client-fault validation error.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrIDRequired       = fmt.Errorf("%w: id is required", ErrInvalidInput)
	ErrReaderNil        = fmt.Errorf("%w: reader is nil", ErrInvalidInput)
	ErrFilenameRequired = fmt.Errorf("%w: filename is required", ErrInvalidInput)
	ErrUnsupportedType  = fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	ErrEmptyFile        = fmt.Errorf("%w: file is empty", ErrInvalidInput)
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrInvalidDocType   = fmt.Errorf("%w: unknown doc_type", ErrInvalidInput)
	ErrTitleRequired    = fmt.Errorf("%w: title is required", ErrInvalidInput)
)

var (
	ErrSecurityRejected   = errors.New("rejected by malware scan")
	ErrScannerUnavailable = errors.New("malware scanner unavailable")
	ErrStorageUnavailable = errors.New("object storage unavailable")
	ErrPersistenceFailed  = errors.New("metadata persistence failed")
	ErrNotFound           = errors.New("document not found")
	ErrBlobMissing        = errors.New("document content missing from storage")
	ErrLinkUnsupported    = errors.New("download links not supported by the configured storage")
)

// outcome labels an Upload result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSecurityRejected):
		return "security_rejected"
	case errors.Is(err, ErrScannerUnavailable):
		return "scanner_unavailable"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrPersistenceFailed):
		return "persistence_failed"
	default:
		return "error"
	}
}
