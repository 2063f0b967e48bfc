// Package scanner inspects uploaded payloads for malware before they are stored.
package scanner

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every failure to obtain a verdict: connection errors,
// timeouts and malformed daemon replies.
var ErrUnavailable = errors.New("scanner unavailable")

// Result is the verdict for one payload. Signatures are for server-side logs only.
type Result struct {
	Infected   bool
	Signatures []string
}

// Scanner checks a file on local disk.
type Scanner interface {
	Scan(ctx context.Context, path string) (Result, error)
	Ping(ctx context.Context) error
}

// Noop accepts everything. Used when scanning is disabled.
type Noop struct{}

func (Noop) Scan(context.Context, string) (Result, error) { return Result{}, nil }

func (Noop) Ping(context.Context) error { return nil }
