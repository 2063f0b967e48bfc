package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dutchcoders/go-clamd"
)

// ClamAV streams files to a clamd daemon with INSTREAM.
// Address is "tcp://host:port" or a unix socket path.
type ClamAV struct {
	client  *clamd.Clamd
	timeout time.Duration
}

func NewClamAV(address string, timeout time.Duration) *ClamAV {
	return &ClamAV{client: clamd.NewClamd(address), timeout: timeout}
}

type scanOutcome struct {
	res Result
	err error
}

func (c *ClamAV) Scan(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open scan target: %w", err)
	}
	defer f.Close()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Closing abort makes go-clamd drop the connection.
	abort := make(chan bool)
	var once sync.Once
	stop := func() { once.Do(func() { close(abort) }) }
	defer stop()

	done := make(chan scanOutcome, 1)
	go func() {
		ch, err := c.client.ScanStream(f, abort)
		if err != nil {
			done <- scanOutcome{err: err}
			return
		}
		done <- collect(ch)
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, out.err)
		}
		return out.res, nil
	case <-ctx.Done():
		stop()
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func collect(ch chan *clamd.ScanResult) scanOutcome {
	var (
		res     Result
		scanErr error
		replies int
	)
	for r := range ch {
		replies++
		switch r.Status {
		case clamd.RES_FOUND:
			res.Infected = true
			res.Signatures = append(res.Signatures, r.Description)
		case clamd.RES_OK:
		default:
			scanErr = fmt.Errorf("clamd replied %q", strings.TrimSpace(r.Raw))
		}
	}
	if res.Infected {
		return scanOutcome{res: res}
	}
	if scanErr == nil && replies == 0 {
		scanErr = errors.New("clamd closed the connection without a verdict")
	}
	return scanOutcome{res: res, err: scanErr}
}

func (c *ClamAV) Ping(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	errc := make(chan error, 1)
	go func() { errc <- c.client.Ping() }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}
