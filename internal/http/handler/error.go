package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type apiError struct {
	status  int
	code    string
	message string
}

// serviceErrors is checked in order; the first match wins, so specific
// validation errors precede ErrInvalidInput.
var serviceErrors = []struct {
	target error
	apiError
}{
	{service.ErrUnsupportedType, apiError{fiber.StatusBadRequest, "UNSUPPORTED_TYPE", "only PDF, DOC and DOCX files are accepted"}},
	{service.ErrEmptyFile, apiError{fiber.StatusBadRequest, "EMPTY_FILE", "file is empty"}},
	{service.ErrFileTooLarge, apiError{fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file too large"}},
	{service.ErrInvalidDocType, apiError{fiber.StatusBadRequest, "INVALID_DOC_TYPE", "unknown doc_type"}},
	{service.ErrFilenameRequired, apiError{fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"}},
	{service.ErrReaderNil, apiError{fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"}},
	{service.ErrTitleRequired, apiError{fiber.StatusBadRequest, "TITLE_REQUIRED", "title is required"}},
	{service.ErrIDRequired, apiError{fiber.StatusBadRequest, "INVALID_ID", "invalid id format"}},
	{service.ErrInvalidInput, apiError{fiber.StatusBadRequest, "INVALID_INPUT", "invalid input"}},
	{service.ErrSecurityRejected, apiError{fiber.StatusBadRequest, "SECURITY_REJECTED", "file rejected by security scan"}},
	{service.ErrScannerUnavailable, apiError{fiber.StatusServiceUnavailable, "SCANNER_UNAVAILABLE", "upload scanning is temporarily unavailable"}},
	{service.ErrStorageUnavailable, apiError{fiber.StatusInternalServerError, "STORAGE_UNAVAILABLE", "file storage unavailable"}},
	{service.ErrPersistenceFailed, apiError{fiber.StatusInternalServerError, "PERSISTENCE_FAILED", "could not save document"}},
	{service.ErrNotFound, apiError{fiber.StatusNotFound, "NOT_FOUND", "document not found"}},
	{service.ErrBlobMissing, apiError{fiber.StatusGone, "BLOB_MISSING", "document content is no longer available"}},
	{service.ErrLinkUnsupported, apiError{fiber.StatusNotImplemented, "LINK_UNSUPPORTED", "download links are not available"}},
}

func mapError(err error) apiError {
	for _, se := range serviceErrors {
		if errors.Is(err, se.target) {
			return se.apiError
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusBadRequest:
			return apiError{fe.Code, "BAD_REQUEST", "bad request"}
		case fiber.StatusNotFound:
			return apiError{fe.Code, "NOT_FOUND", "resource not found"}
		case fiber.StatusMethodNotAllowed:
			return apiError{fe.Code, "METHOD_NOT_ALLOWED", "method not allowed"}
		case fiber.StatusRequestEntityTooLarge:
			return apiError{fe.Code, "FILE_TOO_LARGE", "file too large"}
		case fiber.StatusTooManyRequests:
			return apiError{fe.Code, "RATE_LIMITED", "too many requests"}
		case fiber.StatusServiceUnavailable:
			return apiError{fe.Code, "SERVICE_UNAVAILABLE", "service unavailable"}
		}
		return apiError{fe.Code, "INTERNAL_ERROR", "internal server error"}
	}
	return apiError{fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Server faults are logged with the request id; the client only sees the code.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	log = log.With("component", "http")

	return func(c *fiber.Ctx, err error) error {
		ae := mapError(err)
		if ae.status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"request_id", middleware.RequestIDFrom(c),
				"method", c.Method(),
				"path", c.Path(),
				"code", ae.code,
				"error", err,
			)
		}
		return writeError(c, ae.status, ae.code, ae.message)
	}
}
