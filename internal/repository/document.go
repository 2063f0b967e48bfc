package repository

import (
	"context"
	"time"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns one page of documents matching f and the total number of matches.
	List(ctx context.Context, f ListFilter) (*PageResult[model.Document], error)

	// Update changes the mutable metadata of a document and returns the updated row,
	// or sql.ErrNoRows when the id does not exist.
	Update(ctx context.Context, id string, u DocumentUpdate) (*model.Document, error)

	// Delete removes a document by ID. It returns sql.ErrNoRows if no row was deleted.
	Delete(ctx context.Context, id string) error
}

// ListFilter narrows a listing. Zero values mean "no filter".
// From is inclusive, Until is exclusive.
type ListFilter struct {
	Search  string
	From    *time.Time
	Until   *time.Time
	DocType model.DocType
	Limit   int
	Offset  int
}

// DocumentUpdate carries the mutable columns. Nil pointers leave the column untouched.
type DocumentUpdate struct {
	Title       string
	Description *string
	DocType     *model.DocType
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
