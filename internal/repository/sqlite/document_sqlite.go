package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentSQLite is the embedded SQLite implementation of repository.DocumentRepository.
// upload_date is stored as fixed-width UTC text so that ORDER BY and range
// comparisons stay chronological.
type DocumentSQLite struct {
	db *sql.DB
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

var _ repository.DocumentRepository = (*DocumentSQLite)(nil)

func scanDocument(s repository.Scanner) (model.Document, error) {
	var (
		d          model.Document
		docType    string
		pageCount  sql.NullInt64
		uploadDate string
	)
	if err := s.Scan(
		&d.ID,
		&d.OriginalName,
		&d.Title,
		&d.Description,
		&docType,
		&d.MimeType,
		&d.Size,
		&pageCount,
		&d.StorageReference,
		&d.FileURL,
		&uploadDate,
	); err != nil {
		return model.Document{}, err
	}

	ts, err := time.Parse(repository.SQLiteTimeLayout, uploadDate)
	if err != nil {
		return model.Document{}, fmt.Errorf("parse upload_date %q: %w", uploadDate, err)
	}
	d.UploadDate = ts
	d.DocType = model.DocType(docType)
	if pageCount.Valid {
		n := int(pageCount.Int64)
		d.PageCount = &n
	}
	return d, nil
}

func scanDocumentPtr(s repository.Scanner) (*model.Document, error) {
	d, err := scanDocument(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentSQLite) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, original_name, title, description, doc_type, mime_type, size, page_count, storage_reference, file_url, upload_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + repository.DocumentColumns

	var pageCount any
	if doc.PageCount != nil {
		pageCount = int64(*doc.PageCount)
	}

	return repository.QueryOne(ctx, r.db, q, []any{
		doc.ID,
		doc.OriginalName,
		doc.Title,
		doc.Description,
		string(doc.DocType),
		doc.MimeType,
		doc.Size,
		pageCount,
		doc.StorageReference,
		doc.FileURL,
		repository.SQLiteDialect.Time(doc.UploadDate),
	}, scanDocumentPtr)
}

func (r *DocumentSQLite) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + repository.DocumentColumns + ` FROM documents WHERE id = ?`
	return repository.QueryOne(ctx, r.db, q, []any{id}, scanDocumentPtr)
}

func (r *DocumentSQLite) List(ctx context.Context, f repository.ListFilter) (*repository.PageResult[model.Document], error) {
	page, pageArgs, count, countArgs := repository.BuildListQueries(repository.SQLiteDialect, f)

	var total int
	if err := r.db.QueryRowContext(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	items, err := repository.QueryMany(ctx, r.db, page, pageArgs, scanDocument)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

func (r *DocumentSQLite) Update(ctx context.Context, id string, u repository.DocumentUpdate) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET title = ?,
		    description = COALESCE(?, description),
		    doc_type = COALESCE(?, doc_type)
		WHERE id = ?
		RETURNING ` + repository.DocumentColumns

	var desc, docType any
	if u.Description != nil {
		desc = *u.Description
	}
	if u.DocType != nil {
		docType = string(*u.DocType)
	}

	return repository.QueryOne(ctx, r.db, q, []any{u.Title, desc, docType, id}, scanDocumentPtr)
}

func (r *DocumentSQLite) Delete(ctx context.Context, id string) error {
	return repository.ExecExpectOne(ctx, r.db, `DELETE FROM documents WHERE id = ?`, id)
}
