// Package connection owns the channel to one remote type provider host and
// is the single place where remote failures become faults.
//
// Every remote call goes through Execute, which fails fast once the
// connection is closed, bounds each attempt with one of two timeout classes,
// retries transport failures a bounded number of times and turns anything
// that still went wrong (including panics) into a *Fault.
package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
	"github.com/goliatone/go-typeprovider-cache/internal/wire"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/google/uuid"
)

// Options configures a Connection.
type Options struct {
	// Host answers the remote calls. Required.
	Host protocol.Host

	// Config is the timeout and retry policy. Zero value uses DefaultConfig.
	Config Config

	// Closer is closed on teardown. Defaults to Host when it is an io.Closer.
	Closer io.Closer

	// Done, when set, tears the connection down once it is closed. Pass the
	// transport's done channel so a dead channel is noticed without a call.
	Done <-chan struct{}

	// Logger for lifecycle and fault output. Nil discards.
	Logger *slog.Logger
}

// Connection is one live session with a remote host. All caches and proxies
// created for it become unusable when it is closed.
type Connection struct {
	id     uuid.UUID
	host   protocol.Host
	cfg    Config
	closer io.Closer
	logger *slog.Logger

	root   context.Context
	cancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	calls  atomic.Int64
	faults atomic.Int64
}

// New opens a connection over opts.Host.
func New(opts Options) (*Connection, error) {
	if opts.Host == nil {
		return nil, &cacheinfra.ConfigError{Field: "Host", Message: "cannot be nil"}
	}

	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closer := opts.Closer
	if closer == nil {
		if hc, ok := opts.Host.(io.Closer); ok {
			closer = hc
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := uuid.New()
	root, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:     id,
		host:   opts.Host,
		cfg:    cfg,
		closer: closer,
		logger: logger.With("connection", id.String()),
		root:   root,
		cancel: cancel,
	}

	if opts.Done != nil {
		go func() {
			select {
			case <-opts.Done:
				c.logger.Warn("transport ended, tearing down connection")
				c.Close()
			case <-root.Done():
			}
		}()
	}

	c.logger.Info("connection opened")
	return c, nil
}

// ID returns the session id.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Config returns the policy in use.
func (c *Connection) Config() Config {
	return c.cfg
}

// Logger returns the connection scoped logger.
func (c *Connection) Logger() *slog.Logger {
	return c.logger
}

// Alive reports whether the connection has not been closed.
func (c *Connection) Alive() bool {
	return !c.closed.Load()
}

// Check fails with a closed fault once the connection is torn down.
func (c *Connection) Check() error {
	if c.closed.Load() {
		return closedFault("check")
	}
	return nil
}

// Host returns the underlying host. Calls made on it directly bypass the
// fault boundary.
func (c *Connection) Host() protocol.Host {
	return c.host
}

// Stats returns the number of remote attempts and reported faults.
func (c *Connection) Stats() (calls, faults int64) {
	return c.calls.Load(), c.faults.Load()
}

// Close tears the connection down. In-flight calls are cancelled and later
// calls fail fast. Close is idempotent.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if c.closer != nil {
			c.closeErr = c.closer.Close()
		}
		c.logger.Info("connection closed")
	})
	return c.closeErr
}

// Execute runs fn against the host under the boundary rules: fail fast when
// closed, one deadline of the given class per attempt, bounded retries with
// backoff for transport failures, and a *Fault for anything that failed.
// op names the call in faults and logs.
func Execute[T any](ctx context.Context, c *Connection, class Timeout, op string, fn func(ctx context.Context, host protocol.Host) (T, error)) (T, error) {
	var zero T
	if c.closed.Load() {
		return zero, closedFault(op)
	}

	retry := c.cfg.Retry
	var lastErr error
	attempt := 0
	for attempt < retry.MaxAttempts {
		attempt++
		if attempt > 1 {
			delay := retry.backoff(attempt - 1)
			c.logger.Warn("retrying remote call", "op", op, "attempt", attempt, "delay", delay, "error", lastErr)
			if !sleep(ctx, c.root, delay) {
				break
			}
		}

		v, err := runAttempt(ctx, c, class, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !c.retryable(ctx, err) {
			break
		}
	}

	c.faults.Add(1)
	if c.closed.Load() {
		c.logger.Debug("remote call aborted by teardown", "op", op)
		return zero, &Fault{Op: op, Attempts: attempt, Err: lastErr, closed: true}
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	c.logger.Warn("remote call failed", "op", op, "attempts", attempt, "error", lastErr)
	return zero, &Fault{Op: op, Attempts: attempt, Err: lastErr}
}

func runAttempt[T any](ctx context.Context, c *Connection, class Timeout, fn func(ctx context.Context, host protocol.Host) (T, error)) (v T, err error) {
	c.calls.Add(1)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout(class))
	defer cancel()
	stop := context.AfterFunc(c.root, cancel)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r}
		}
	}()

	return fn(callCtx, c.host)
}

// retryable reports whether another attempt may help. Teardown, an ended
// caller context, panics, permanent errors and failures the remote side
// reported itself are final.
func (c *Connection) retryable(ctx context.Context, err error) bool {
	if c.closed.Load() || ctx.Err() != nil {
		return false
	}
	if lazy.IsPermanent(err) {
		return false
	}
	var (
		pe *PanicError
		re *wire.RemoteError
	)
	if errors.As(err, &pe) || errors.As(err, &re) {
		return false
	}
	return true
}

// sleep waits for d unless ctx or root ends first.
func sleep(ctx, root context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil && root.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-root.Done():
		return false
	}
}
