package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const dateOnly = "2006-01-02"

var dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, q ListQuery) (*DocumentListResult, error) {
	f := repository.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Limit:  s.clampLimit(q.Limit),
		Offset: max(q.Offset, 0),
	}

	if t, _, ok := s.parseDate(q.From); ok {
		f.From = &t
	}
	if t, isDate, ok := s.parseDate(q.To); ok {
		// to is inclusive: a bare date covers the whole day.
		if isDate {
			t = t.AddDate(0, 0, 1)
		} else {
			t = t.Add(time.Nanosecond)
		}
		f.Until = &t
	}

	if dt := strings.TrimSpace(q.DocType); dt != "" && !strings.EqualFold(dt, "all") {
		// Unknown types still filter exactly and simply match nothing.
		parsed, ok := model.ParseDocType(dt)
		if !ok {
			parsed = model.DocType(dt)
		}
		f.DocType = parsed
	}

	res, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	items := res.Items
	if items == nil {
		items = []model.Document{}
	}
	return &DocumentListResult{Items: items, Total: res.Total}, nil
}

func (s *documentService) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case s.maxLimit > 0 && limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}

// parseDate accepts a calendar date in the service location or an RFC3339
// timestamp. Anything else is reported as not ok.
func (s *documentService) parseDate(v string) (t time.Time, isDate bool, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, false
	}
	if t, err := time.ParseInLocation(dateOnly, v, s.loc); err == nil {
		return t, true, true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}
