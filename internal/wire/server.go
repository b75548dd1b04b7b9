package wire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/zerr"
)

// ErrUnknownMethod is reported to the caller for unregistered methods.
var ErrUnknownMethod = zerr.New("unknown method")

// HandlerFunc answers one request. decode unmarshals the request payload.
type HandlerFunc func(ctx context.Context, decode func(v any) error) (any, error)

// Server dispatches incoming frames to registered handlers.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewServer creates a server with no handlers.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = discardLogger()
	}
	return &Server{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers h for method, replacing any previous handler.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Serve answers requests read from rwc until the stream ends or ctx is
// done. Each request runs on its own goroutine. rwc is closed on return.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		rwc.Close()
	}()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	enc := msgpack.NewEncoder(rwc)
	dec := msgpack.NewDecoder(bufio.NewReader(rwc))

	reply := func(f *frame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := enc.Encode(f); err != nil {
			s.logger.Debug("writing reply", "id", f.ID, "error", err)
		}
	}

	defer wg.Wait()
	for {
		var req frame
		if err := dec.Decode(&req); err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			return zerr.Wrap(err, "wire serve read failed")
		}
		if req.Reply {
			continue
		}

		wg.Add(1)
		go func(req frame) {
			defer wg.Done()
			reply(s.dispatch(ctx, req))
		}(req)
	}
}

func (s *Server) dispatch(ctx context.Context, req frame) (out *frame) {
	out = &frame{ID: req.ID, Reply: true}

	s.mu.RLock()
	h, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		out.Error = zerr.With(ErrUnknownMethod, "method", req.Method).Error()
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("handler panicked", "method", req.Method, "panic", r)
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	result, err := h(ctx, func(v any) error {
		return msgpack.Unmarshal(req.Payload, v)
	})
	if err != nil {
		out.Error = err.Error()
		return out
	}

	payload, err := msgpack.Marshal(result)
	if err != nil {
		out.Error = zerr.Wrap(err, ErrEncode.Error()).Error()
		return out
	}
	out.Payload = payload
	return out
}
