package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.opentelemetry.io/otel/attribute"

	"docvault/internal/model"
	"docvault/internal/scanner"
	"docvault/internal/storage"
)

const compensationTimeout = 10 * time.Second

// spooled is a payload copied to local disk so it can be scanned and re-read.
type spooled struct {
	file *os.File
	size int64
}

func (sp *spooled) rewind() error {
	_, err := sp.file.Seek(0, io.SeekStart)
	return err
}

func (sp *spooled) cleanup() {
	name := sp.file.Name()
	_ = sp.file.Close()
	_ = os.Remove(name)
}

// Upload runs the pipeline: validate, spool, scan, store, persist.
// Each step returns early; the temp file is always removed and a blob whose
// row could not be inserted is deleted again.
func (s *documentService) Upload(ctx context.Context, in UploadInput) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	var size int64
	defer func() {
		s.metrics.upload(outcome(err), size)
		endSpan(span, err)
	}()

	mt, docType, err := validateUpload(in)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("document.mime_type", mt))

	sp, err := s.spool(ctx, in.Reader)
	if err != nil {
		return nil, err
	}
	defer sp.cleanup()
	size = sp.size
	span.SetAttributes(attribute.Int64("document.size", size))

	if sp.size == 0 {
		return nil, ErrEmptyFile
	}

	id := uuid.NewString()
	log := s.logger.With("document_id", id, "original_name", in.OriginalName)

	if err = s.scan(ctx, log, sp); err != nil {
		return nil, err
	}

	var pageCount *int
	if mt == model.MimePDF {
		pageCount = s.pageCount(log, sp)
	}

	key := storage.DocumentKey(id, in.OriginalName)
	info, err := s.put(ctx, key, mt, id, sp)
	if err != nil {
		log.Error("blob upload failed", "storage_reference", key, "error", err)
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.OriginalName
	}
	rec := &model.Document{
		ID:               id,
		OriginalName:     in.OriginalName,
		Title:            title,
		Description:      in.Description,
		DocType:          docType,
		MimeType:         mt,
		Size:             sp.size,
		PageCount:        pageCount,
		StorageReference: key,
		FileURL:          info.URL,
		UploadDate:       s.now().UTC(),
	}

	stored, err := s.persist(ctx, rec)
	if err != nil {
		log.Error("metadata insert failed, removing blob", "storage_reference", key, "error", err)
		s.compensate(ctx, log, key)
		return nil, err
	}

	log.Info("document uploaded",
		"mime_type", mt,
		"size", sp.size,
		"storage_reference", key,
	)
	return stored, nil
}

func validateUpload(in UploadInput) (string, model.DocType, error) {
	if in.Reader == nil {
		return "", "", ErrReaderNil
	}
	if strings.TrimSpace(in.OriginalName) == "" {
		return "", "", ErrFilenameRequired
	}

	mt, _, err := mime.ParseMediaType(in.ContentType)
	if err != nil || !model.IsAllowedMimeType(mt) {
		return "", "", ErrUnsupportedType
	}

	docType := model.DefaultDocType
	if strings.TrimSpace(in.DocType) != "" {
		dt, ok := model.ParseDocType(in.DocType)
		if !ok {
			return "", "", ErrInvalidDocType
		}
		docType = dt
	}
	return mt, docType, nil
}

// spool copies r to a temp file, reading at most one byte past the limit.
func (s *documentService) spool(ctx context.Context, r io.Reader) (_ *spooled, err error) {
	_, span := tracer.Start(ctx, "upload.spool")
	defer func() { endSpan(span, err) }()

	f, err := os.CreateTemp(s.tempDir, "docvault-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	sp := &spooled{file: f}

	src := r
	if s.maxUploadSize > 0 {
		src = io.LimitReader(r, s.maxUploadSize+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		sp.cleanup()
		return nil, fmt.Errorf("spool payload: %w", err)
	}
	if s.maxUploadSize > 0 && n > s.maxUploadSize {
		sp.cleanup()
		return nil, ErrFileTooLarge
	}
	sp.size = n

	if err := sp.rewind(); err != nil {
		sp.cleanup()
		return nil, fmt.Errorf("rewind spool: %w", err)
	}
	return sp, nil
}

func (s *documentService) scan(ctx context.Context, log *slog.Logger, sp *spooled) (err error) {
	if _, disabled := s.scanner.(scanner.Noop); disabled {
		s.metrics.scan("skipped")
		return nil
	}

	ctx, span := tracer.Start(ctx, "upload.scan")
	defer func() { endSpan(span, err) }()

	res, serr := s.scanner.Scan(ctx, sp.file.Name())
	switch {
	case serr != nil:
		s.metrics.scan("error")
		if s.failClosed {
			log.Warn("malware scan unavailable, rejecting upload", "error", serr)
			return fmt.Errorf("%w: %w", ErrScannerUnavailable, serr)
		}
		log.Warn("malware scan unavailable, accepting upload unscanned", "error", serr)
		return nil
	case res.Infected:
		s.metrics.scan("infected")
		log.Warn("upload rejected by malware scan", "signatures", res.Signatures)
		return ErrSecurityRejected
	default:
		s.metrics.scan("clean")
		return nil
	}
}

// pageCount returns nil when the PDF cannot be read; it never fails the upload.
func (s *documentService) pageCount(log *slog.Logger, sp *spooled) (count *int) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("failed to extract PDF page count", "panic", r)
			count = nil
		}
		_ = sp.rewind()
	}()

	if err := sp.rewind(); err != nil {
		log.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	n, err := api.PageCount(sp.file, nil)
	if err != nil {
		log.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	return &n
}

func (s *documentService) put(ctx context.Context, key, mt, id string, sp *spooled) (_ storage.ObjectInfo, err error) {
	ctx, span := tracer.Start(ctx, "upload.store")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("storage.key", key))

	if err := sp.rewind(); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("rewind spool: %w", err)
	}
	info, err := s.store.Put(ctx, key, sp.file, storage.PutObjectOptions{
		Size:        sp.size,
		ContentType: mt,
		Metadata:    map[string]string{"document_id": id},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return info, nil
}

func (s *documentService) persist(ctx context.Context, rec *model.Document) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "upload.persist")
	defer func() { endSpan(span, err) }()

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return stored, nil
}

// compensate removes a stored blob after a failed insert. It outlives a
// cancelled request context.
func (s *documentService) compensate(ctx context.Context, log *slog.Logger, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "upload.compensate")
	err := s.store.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error("compensating blob delete failed, blob orphaned", "storage_reference", key, "error", err)
		endSpan(span, err)
		return
	}
	endSpan(span, nil)
}
