// Package wire carries request/response frames encoded with msgpack over a
// byte stream. Replies are paired with requests by id, so any number of
// calls may be in flight on one stream.
package wire

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/zerr"
)

var (
	// ErrClosed is returned for calls on a channel whose stream has ended.
	ErrClosed = zerr.New("wire channel closed")

	// ErrEncode is returned when a request or reply cannot be encoded.
	ErrEncode = zerr.New("wire encode failed")
)

type frame struct {
	ID      uint64             `msgpack:"id"`
	Method  string             `msgpack:"method,omitempty"`
	Reply   bool               `msgpack:"reply,omitempty"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
	Error   string             `msgpack:"error,omitempty"`
}

// RemoteError is a failure reported by the other end of the channel.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return "remote " + e.Method + ": " + e.Message
}

// Client issues calls over a stream and matches the replies.
type Client struct {
	rwc    io.ReadWriteCloser
	logger *slog.Logger

	writeMu sync.Mutex
	enc     *msgpack.Encoder

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan frame
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient starts reading replies from rwc. The client owns rwc from now on.
func NewClient(rwc io.ReadWriteCloser, logger *slog.Logger) *Client {
	if logger == nil {
		logger = discardLogger()
	}
	c := &Client{
		rwc:     rwc,
		logger:  logger,
		enc:     msgpack.NewEncoder(rwc),
		pending: make(map[uint64]chan frame),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Dial connects to a host listening on network/address.
func Dial(ctx context.Context, network, address string, logger *slog.Logger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "wire dial failed"), "address", address)
	}
	return NewClient(conn, logger), nil
}

// Invoke sends method with args and decodes the reply payload into reply.
// reply may be nil when the caller does not need the result.
func (c *Client) Invoke(ctx context.Context, method string, args, reply any) error {
	payload, err := msgpack.Marshal(args)
	if err != nil {
		return zerr.With(zerr.Wrap(err, ErrEncode.Error()), "method", method)
	}

	ch := make(chan frame, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err = c.enc.Encode(&frame{ID: id, Method: method, Payload: payload})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		c.fail(err)
		return c.Err()
	}

	select {
	case f := <-ch:
		if f.Error != "" {
			return &RemoteError{Method: method, Message: f.Error}
		}
		if reply == nil || len(f.Payload) == 0 {
			return nil
		}
		return msgpack.Unmarshal(f.Payload, reply)
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.done:
		return c.Err()
	}
}

// Done is closed once the stream has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the stream ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the stream. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	c.fail(ErrClosed)
	return nil
}

func (c *Client) readLoop() {
	dec := msgpack.NewDecoder(bufio.NewReader(c.rwc))
	for {
		var f frame
		if err := dec.Decode(&f); err != nil {
			c.fail(err)
			return
		}
		if !f.Reply {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[f.ID]
		delete(c.pending, f.ID)
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping reply for abandoned call", "id", f.ID)
			continue
		}
		ch <- f
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) fail(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if cause == ErrClosed {
			c.err = ErrClosed
		} else {
			c.err = zerr.With(zerr.Wrap(cause, ErrClosed.Error()), "pending", len(c.pending))
		}
		c.pending = make(map[uint64]chan frame)
		c.mu.Unlock()

		if err := c.rwc.Close(); err != nil {
			c.logger.Debug("closing wire stream", "error", err)
		}
		close(c.done)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
