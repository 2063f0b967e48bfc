package model

import "time"

// Document represents a stored file in the repository.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID               string    `json:"id"`
	OriginalName     string    `json:"original_name"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DocType          DocType   `json:"doc_type"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	PageCount        *int      `json:"page_count,omitempty"`
	StorageReference string    `json:"storage_reference"`
	FileURL          string    `json:"file_url"`
	UploadDate       time.Time `json:"upload_date"`
}
