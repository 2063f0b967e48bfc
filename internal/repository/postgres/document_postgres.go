package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s repository.Scanner) (model.Document, error) {
	var (
		d         model.Document
		docType   string
		pageCount sql.NullInt64
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
		&d.UploadDate,
	); err != nil {
		return model.Document{}, err
	}
	d.DocType = model.DocType(docType)
	if pageCount.Valid {
		n := int(pageCount.Int64)
		d.PageCount = &n
	}
	d.UploadDate = d.UploadDate.UTC()
	return d, nil
}

func scanDocumentPtr(s repository.Scanner) (*model.Document, error) {
	d, err := scanDocument(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, original_name, title, description, doc_type, mime_type, size, page_count, storage_reference, file_url, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
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
		doc.UploadDate.UTC(),
	}, scanDocumentPtr)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + repository.DocumentColumns + ` FROM documents WHERE id = $1`
	return repository.QueryOne(ctx, r.db, q, []any{id}, scanDocumentPtr)
}

// List returns documents matching f using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.ListFilter) (*repository.PageResult[model.Document], error) {
	page, pageArgs, count, countArgs := repository.BuildListQueries(repository.PostgresDialect, f)

	var total int
	if err := r.db.QueryRowContext(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	items, err := repository.QueryMany(ctx, r.db, page, pageArgs, scanDocument)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Update sets title and, when given, description and doc_type.
func (r *DocumentPostgres) Update(ctx context.Context, id string, u repository.DocumentUpdate) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET title = $1,
		    description = COALESCE($2, description),
		    doc_type = COALESCE($3, doc_type)
		WHERE id = $4
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

// Delete removes a document by ID. Returns sql.ErrNoRows when nothing was deleted.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	return repository.ExecExpectOne(ctx, r.db, q, id)
}
