package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/model"
	scanMocks "docvault/internal/scanner/mocks"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"
)

func newTestApp(cfg ...fiber.Config) *fiber.App {
	c := fiber.Config{}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	c.ErrorHandler = ErrorHandler(logger.Discard())
	app := fiber.New(c)
	app.Use(middleware.RequestID())
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// multipartBody builds an upload form with one file part of the given content type.
func multipartBody(t *testing.T, filename, contentType, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	sc := new(scanMocks.MockScanner)
	app := newTestApp()
	app.Get("/health", HealthCheck(db, sc))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing()
		sc.On("Ping", mock.Anything).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("database down", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("scanner down", func(t *testing.T) {
		dbMock.ExpectPing()
		sc.On("Ping", mock.Anything).Return(errors.New("clamd gone")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
	sc.AssertExpectations(t)
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{ID: uuid.NewString(), OriginalName: "test.pdf"}},
			Total: 7,
		}
		want := service.ListQuery{Search: "report", From: "2024-01-01", To: "2024-01-31", DocType: "work", Limit: 10, Offset: 5}
		mockSvc.On("List", mock.Anything, want).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?search=report&from=2024-01-01&to=2024-01-31&type=work&limit=10&offset=5", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "7", resp.Header.Get(TotalCountHeader))

		var items []model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
		assert.Len(t, items, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, service.ListQuery{DocType: "process"}).
			Return(&service.DocumentListResult{Items: []model.Document{}}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents?doc_type=process", nil))
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
		assert.Equal(t, "0", resp.Header.Get(TotalCountHeader))
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("invalid offset", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents?offset=x", nil))
		require.NoError(t, err)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, service.ListQuery{}).Return(nil, errors.New("service error")).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "service error")
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := newTestApp()
		app.Post("/documents", UploadDocument(mockSvc))

		body, ct := multipartBody(t, "report.pdf", model.MimePDF, "%PDF-1.7", map[string]string{
			"title":       "Q1",
			"description": "first quarter",
			"doc_type":    "work",
		})

		expectedDoc := &model.Document{ID: uuid.NewString(), OriginalName: "report.pdf"}
		mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			b, err := io.ReadAll(in.Reader)
			return err == nil && string(b) == "%PDF-1.7" &&
				in.OriginalName == "report.pdf" &&
				in.ContentType == model.MimePDF &&
				in.Title == "Q1" &&
				in.Description == "first quarter" &&
				in.DocType == "work"
		})).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, expectedDoc.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		app := newTestApp()
		app.Post("/documents", UploadDocument(new(serviceMocks.MockDocumentService)))

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/documents", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	errCases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrUnsupportedType, http.StatusBadRequest, "UNSUPPORTED_TYPE"},
		{service.ErrEmptyFile, http.StatusBadRequest, "EMPTY_FILE"},
		{service.ErrInvalidDocType, http.StatusBadRequest, "INVALID_DOC_TYPE"},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{service.ErrSecurityRejected, http.StatusBadRequest, "SECURITY_REJECTED"},
		{service.ErrScannerUnavailable, http.StatusServiceUnavailable, "SCANNER_UNAVAILABLE"},
		{fmt.Errorf("%w: %w", service.ErrStorageUnavailable, errors.New("minio down")), http.StatusInternalServerError, "STORAGE_UNAVAILABLE"},
		{fmt.Errorf("%w: %w", service.ErrPersistenceFailed, errors.New("pq: deadlock")), http.StatusInternalServerError, "PERSISTENCE_FAILED"},
	}
	for _, tc := range errCases {
		t.Run(tc.wantCode, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockDocumentService)
			app := newTestApp()
			app.Post("/documents", UploadDocument(mockSvc))
			mockSvc.On("Upload", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			body, ct := multipartBody(t, "x.pdf", model.MimePDF, "x", nil)
			req := httptest.NewRequest(http.MethodPost, "/documents", body)
			req.Header.Set("Content-Type", ct)
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			payload := decodeError(t, resp)
			assert.Equal(t, tc.wantCode, payload.Error.Code)
			assert.NotContains(t, payload.Error.Message, "minio")
			assert.NotContains(t, payload.Error.Message, "pq:")
		})
	}

	t.Run("body over the server limit", func(t *testing.T) {
		app := newTestApp(fiber.Config{BodyLimit: 1024})
		app.Post("/documents", UploadDocument(new(serviceMocks.MockDocumentService)))

		body, ct := multipartBody(t, "big.pdf", model.MimePDF, strings.Repeat("a", 4096), nil)
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, resp).Error.Code)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Document{ID: id}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, id, result.ID)
	})

	t.Run("id is canonicalised", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Document{ID: id}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+strings.ToUpper(id), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Put("/documents/:id", UpdateDocument(mockSvc))

	put := func(id, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPut, "/documents/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		work := "work"
		mockSvc.On("Update", mock.Anything, id, service.UpdateInput{Title: "Renamed", DocType: &work}).
			Return(&model.Document{ID: id, Title: "Renamed", DocType: model.DocTypeWork}, nil).Once()

		resp := put(id, `{"title":"Renamed","doc_type":"work"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "Renamed", result.Title)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := put(uuid.NewString(), `{"title":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Error.Code)
	})

	t.Run("blank title", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Update", mock.Anything, id, mock.Anything).Return(nil, service.ErrTitleRequired).Once()

		resp := put(id, `{"title":"  "}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "TITLE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Update", mock.Anything, id, mock.Anything).Return(nil, service.ErrNotFound).Once()

		resp := put(id, `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body["success"])
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/documents/invalid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestDownloadAndPreview(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/download", DownloadDocument(mockSvc))
	app.Get("/documents/:id/preview", PreviewDocument(mockSvc))

	content := "%PDF-1.7 bytes"
	doc := func(id, name string) *model.Document {
		return &model.Document{ID: id, OriginalName: name, MimeType: model.MimePDF, Size: int64(len(content))}
	}

	t.Run("download", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Open", mock.Anything, id).
			Return(doc(id, "Report Q1.pdf"), io.NopCloser(strings.NewReader(content)), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, model.MimePDF, resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Report Q1.pdf"`, resp.Header.Get("Content-Disposition"))
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, string(b))
	})

	t.Run("preview is inline", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Open", mock.Anything, id).
			Return(doc(id, "a.pdf"), io.NopCloser(strings.NewReader(content)), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/preview", nil))
		require.NoError(t, err)
		assert.Equal(t, `inline; filename=a.pdf`, resp.Header.Get("Content-Disposition"))
	})

	t.Run("non-ascii filename", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Open", mock.Anything, id).
			Return(doc(id, "laporan-übersicht.pdf"), io.NopCloser(strings.NewReader(content)), nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))
		require.NoError(t, err)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "filename*=utf-8''")
	})

	t.Run("blob missing", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Open", mock.Anything, id).Return(nil, nil, service.ErrBlobMissing).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusGone, resp.StatusCode)
		assert.Equal(t, "BLOB_MISSING", decodeError(t, resp).Error.Code)
	})

	mockSvc.AssertExpectations(t)
}

func TestDocumentLink(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/link", DocumentLink(mockSvc, 10*time.Minute))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		exp := time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC)
		mockSvc.On("DownloadURL", mock.Anything, id, 10*time.Minute).
			Return(&service.DocumentLink{URL: "https://minio/x?sig", ExpiresAt: exp}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/link", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var link service.DocumentLink
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
		assert.Equal(t, "https://minio/x?sig", link.URL)
		assert.True(t, exp.Equal(link.ExpiresAt))
	})

	t.Run("unsupported store", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DownloadURL", mock.Anything, id, 10*time.Minute).Return(nil, service.ErrLinkUnsupported).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/link", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
		assert.Equal(t, "LINK_UNSUPPORTED", decodeError(t, resp).Error.Code)
	})
}

func TestRegisterRoutes(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	root := t.TempDir()
	blobDir := filepath.Join(root, "documents", "abc")
	require.NoError(t, os.MkdirAll(blobDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blobDir, "a.pdf"), []byte("blob"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(blobDir, "a.pdf.meta.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(blobDir, ".upload-123"), []byte("partial"), 0o644))

	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	RegisterRoutes(app, db, mockSvc, RouteConfig{
		UploadLimiter:   middleware.NewRateLimiter(1),
		LinkExpiry:      time.Minute,
		Gatherer:        prometheus.NewRegistry(),
		LocalRoot:       root,
		LocalPublicPath: "/files",
	})

	t.Run("health", func(t *testing.T) {
		dbMock.ExpectPing()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("upload rate limit", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, mock.Anything).Return(&model.Document{ID: uuid.NewString()}, nil).Once()

		post := func() *http.Response {
			body, ct := multipartBody(t, "a.pdf", model.MimePDF, "x", nil)
			req := httptest.NewRequest(http.MethodPost, "/documents", body)
			req.Header.Set("Content-Type", ct)
			resp, err := app.Test(req)
			require.NoError(t, err)
			return resp
		}

		assert.Equal(t, http.StatusOK, post().StatusCode)
		resp := post()
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		assert.Equal(t, "RATE_LIMITED", decodeError(t, resp).Error.Code)
	})

	t.Run("local blobs served", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/files/documents/abc/a.pdf", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "blob", string(b))
	})

	for _, hidden := range []string{
		"/files/documents/abc/a.pdf.meta.json",
		"/files/documents/abc/.upload-123",
	} {
		t.Run("hidden "+hidden, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, hidden, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}

	mockSvc.AssertExpectations(t)
}
