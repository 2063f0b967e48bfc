package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docvault/internal/logger"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/scanner"
	"docvault/internal/storage"
)

var tracer = otel.Tracer("docvault/internal/service")

// UploadInput is one file payload plus its client supplied metadata.
// Title defaults to OriginalName, DocType to model.DefaultDocType.
type UploadInput struct {
	Reader       io.Reader
	OriginalName string
	ContentType  string
	Title        string
	Description  string
	DocType      string
}

// ListQuery carries raw listing criteria. Dates are parsed leniently:
// malformed values are ignored.
type ListQuery struct {
	Search  string
	From    string
	To      string
	DocType string
	Limit   int
	Offset  int
}

// UpdateInput renames a document. Nil fields are left unchanged.
type UpdateInput struct {
	Title       string
	Description *string
	DocType     *string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentLink is a time-limited download address.
type DocumentLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates, scans and stores the payload, then records its metadata.
	// On failure no metadata row is left behind.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns documents matching q, newest first, and the total match count.
	List(ctx context.Context, q ListQuery) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Update changes title and optionally description and doc_type. The blob is never touched.
	Update(ctx context.Context, id string, in UpdateInput) (*model.Document, error)

	// Delete removes a document's blob and record.
	Delete(ctx context.Context, id string) error

	// Open returns the record and a stream of its content. The caller closes the stream.
	Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error)

	// DownloadURL returns a pre-signed link valid for expiry.
	DownloadURL(ctx context.Context, id string, expiry time.Duration) (*DocumentLink, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	scanner scanner.Scanner

	logger        *slog.Logger
	metrics       *Metrics
	failClosed    bool
	maxUploadSize int64
	tempDir       string
	now           func() time.Time
	loc           *time.Location
	defaultLimit  int
	maxLimit      int
}

// Option customises a DocumentService.
type Option func(*documentService)

func WithLogger(l *slog.Logger) Option {
	return func(s *documentService) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *documentService) { s.metrics = m }
}

// WithScanFailClosed rejects uploads when the scanner cannot be reached.
// The default is to accept them with a warning.
func WithScanFailClosed(closed bool) Option {
	return func(s *documentService) { s.failClosed = closed }
}

// WithMaxUploadSize bounds payloads; n <= 0 disables the limit.
func WithMaxUploadSize(n int64) Option {
	return func(s *documentService) { s.maxUploadSize = n }
}

// WithTempDir sets where payloads are spooled; "" means os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *documentService) { s.tempDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(s *documentService) { s.now = now }
}

// WithLocation sets the zone date-only list filters are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *documentService) { s.loc = loc }
}

func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *documentService) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

// NewDocumentService constructs a new DocumentService. A nil scanner disables scanning.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, sc scanner.Scanner, opts ...Option) DocumentService {
	s := &documentService{
		store:         store,
		repo:          repo,
		scanner:       sc,
		logger:        logger.Discard(),
		maxUploadSize: 25_000_000,
		now:           time.Now,
		loc:           time.UTC,
		defaultLimit:  50,
		maxLimit:      500,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scanner == nil {
		s.scanner = scanner.Noop{}
	}
	if s.tempDir == "" {
		s.tempDir = os.TempDir()
	}
	s.logger = s.logger.With("component", "document_service")
	return s
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, in UpdateInput) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	u := repository.DocumentUpdate{Title: title, Description: in.Description}
	if in.DocType != nil {
		dt, ok := model.ParseDocType(*in.DocType)
		if !ok {
			return nil, ErrInvalidDocType
		}
		u.DocType = &dt
	}

	doc, err := s.repo.Update(ctx, id, u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// Delete removes the blob, then the record. A blob that cannot be removed is
// logged and left behind; the record is still deleted.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	var err error
	defer func() { endSpan(span, err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if derr := s.store.Delete(ctx, doc.StorageReference); derr != nil {
		s.logger.Warn("blob delete failed, removing record anyway",
			"document_id", id,
			"storage_reference", doc.StorageReference,
			"error", derr,
		)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
			return err
		}
		err = fmt.Errorf("delete record: %w", err)
		return err
	}

	s.logger.Info("document deleted", "document_id", id)
	return nil
}

func (s *documentService) Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rc, _, err := s.store.Get(ctx, doc.StorageReference)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("document blob missing", "document_id", id, "storage_reference", doc.StorageReference)
			return nil, nil, ErrBlobMissing
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return doc, rc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (*DocumentLink, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Stat(ctx, doc.StorageReference); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("document blob missing", "document_id", id, "storage_reference", doc.StorageReference)
			return nil, ErrBlobMissing
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	u, err := s.store.PresignGet(ctx, doc.StorageReference, expiry)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return nil, ErrLinkUnsupported
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return &DocumentLink{URL: u, ExpiresAt: s.now().UTC().Add(expiry)}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
