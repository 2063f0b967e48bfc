package handler

import (
	"mime"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/service"
)

// TotalCountHeader carries the unpaginated match count of a listing.
const TotalCountHeader = "X-Total-Count"

// updateRequest is the PUT /documents/{id} body.
type updateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DocType     *string `json:"doc_type"`
}

// ListDocuments returns documents newest first.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Param		search	query		string	false	"substring of title or original name"
//	@Param		from	query		string	false	"inclusive lower bound, YYYY-MM-DD or RFC3339"
//	@Param		to		query		string	false	"inclusive upper bound, YYYY-MM-DD or RFC3339"
//	@Param		type	query		string	false	"process, work or all"
//	@Param		limit	query		int		false	"page size"
//	@Param		offset	query		int		false	"rows to skip"
//	@Success	200		{array}		model.Document
//	@Header		200		{integer}	X-Total-Count	"total matches"
//	@Failure	400		{object}	errorPayload
//	@Router		/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := queryInt(c, "limit")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := queryInt(c, "offset")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		docType := c.Query("type")
		if docType == "" {
			docType = c.Query("doc_type")
		}

		res, err := svc.List(c.UserContext(), service.ListQuery{
			Search:  c.Query("search"),
			From:    c.Query("from"),
			To:      c.Query("to"),
			DocType: docType,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			return err
		}

		c.Set(TotalCountHeader, strconv.Itoa(res.Total))
		return c.JSON(res.Items)
	}
}

// UploadDocument accepts one multipart file plus optional metadata.
//
//	@Summary	Upload a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file		formData	file	true	"PDF, DOC or DOCX"
//	@Param		title		formData	string	false	"defaults to the file name"
//	@Param		description	formData	string	false	"free text"
//	@Param		doc_type	formData	string	false	"process (default) or work"
//	@Success	200			{object}	model.Document
//	@Failure	400			{object}	errorPayload
//	@Failure	413			{object}	errorPayload
//	@Failure	429			{object}	errorPayload
//	@Failure	500			{object}	errorPayload
//	@Failure	503			{object}	errorPayload
//	@Router		/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			Reader:       f,
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get(fiber.HeaderContentType),
			Title:        c.FormValue("title"),
			Description:  c.FormValue("description"),
			DocType:      c.FormValue("doc_type"),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(doc)
	}
}

// GetDocument returns a single document record.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	model.Document
//	@Failure	400	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// UpdateDocument renames a document and optionally changes description and doc_type.
//
//	@Summary	Rename / update metadata
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"document id"
//	@Param		body	body		updateRequest	true	"new metadata"
//	@Success	200		{object}	model.Document
//	@Failure	400		{object}	errorPayload
//	@Failure	404		{object}	errorPayload
//	@Router		/documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		}

		doc, err := svc.Update(c.UserContext(), id, service.UpdateInput{
			Title:       req.Title,
			Description: req.Description,
			DocType:     req.DocType,
		})
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document and its content.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	map[string]bool
//	@Failure	400	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// DownloadDocument streams the content as an attachment.
//
//	@Summary	Download a document
//	@Tags		documents
//	@Produce	application/octet-stream
//	@Param		id	path	string	true	"document id"
//	@Success	200	{file}	binary
//	@Failure	404	{object}	errorPayload
//	@Failure	410	{object}	errorPayload
//	@Router		/documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return streamDocument(svc, "attachment")
}

// PreviewDocument streams the content for inline display.
//
//	@Summary	Preview a document
//	@Tags		documents
//	@Produce	application/octet-stream
//	@Param		id	path	string	true	"document id"
//	@Success	200	{file}	binary
//	@Failure	404	{object}	errorPayload
//	@Failure	410	{object}	errorPayload
//	@Router		/documents/{id}/preview [get]
func PreviewDocument(svc service.DocumentService) fiber.Handler {
	return streamDocument(svc, "inline")
}

func streamDocument(svc service.DocumentService, disposition string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, rc, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, contentType(doc))
		c.Set(fiber.HeaderContentDisposition, contentDisposition(disposition, doc.OriginalName))
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, int(doc.Size))
	}
}

// DocumentLink returns a time-limited download address.
//
//	@Summary	Pre-signed download link
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	service.DocumentLink
//	@Failure	404	{object}	errorPayload
//	@Failure	410	{object}	errorPayload
//	@Failure	501	{object}	errorPayload
//	@Router		/documents/{id}/link [get]
func DocumentLink(svc service.DocumentService, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.DownloadURL(c.UserContext(), id, expiry)
		if err != nil {
			return err
		}
		return c.JSON(link)
	}
}

func pathID(c *fiber.Ctx) (string, bool) {
	u, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func contentType(doc *model.Document) string {
	if doc.MimeType == "" {
		return fiber.MIMEOctetStream
	}
	return doc.MimeType
}

// contentDisposition quotes the filename, switching to RFC 2231 encoding for non-ASCII names.
func contentDisposition(kind, filename string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
