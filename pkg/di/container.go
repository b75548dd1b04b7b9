package di

import (
	"context"
	"io"
	"log/slog"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/internal/wire"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/goliatone/go-typeprovider-cache/proxy"
)

// Container provides dependency injection for the type provider cache.
// It holds the store and connection configuration shared by every session
// and the key serializer used for composite cache keys, and builds
// sessions over a host or a wire address.
type Container struct {
	storeConfig      cache.Config
	connectionConfig connection.Config
	keySerializer    cache.KeySerializer
	logger           *slog.Logger
}

// Session is one connection together with the caches of one type provider.
// Closing the session tears the connection down, after which every proxy
// obtained from it fails fast.
type Session struct {
	Connection *connection.Connection
	Context    *proxy.Context
}

// Close tears the session down.
func (s *Session) Close() error {
	return s.Connection.Close()
}

// NewContainer creates a new DI container with the provided configuration.
// Both configurations are validated up front so a bad value surfaces here
// instead of on the first session.
func NewContainer(store cache.Config, conn connection.Config, logger *slog.Logger) (*Container, error) {
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Container{
		storeConfig:      store,
		connectionConfig: conn,
		keySerializer:    cache.NewDefaultKeySerializer(),
		logger:           logger,
	}, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(cache.DefaultConfig(), connection.DefaultConfig(), nil)
}

// StoreConfig returns a copy of the coalescing store configuration.
func (c *Container) StoreConfig() cache.Config {
	return c.storeConfig
}

// ConnectionConfig returns a copy of the timeout and retry configuration.
func (c *Container) ConnectionConfig() connection.Config {
	return c.connectionConfig
}

// KeySerializer returns the key serializer shared by every session.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Logger returns the logger handed to every session.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Connect opens a session over host for provider. closer, when non-nil, is
// closed with the session; done, when non-nil, tears the session down once
// it is closed.
func (c *Container) Connect(host protocol.Host, provider protocol.ProviderID, closer io.Closer, done <-chan struct{}) (*Session, error) {
	conn, err := connection.New(connection.Options{
		Host:   host,
		Config: c.connectionConfig,
		Closer: closer,
		Done:   done,
		Logger: c.logger,
	})
	if err != nil {
		return nil, err
	}

	pctx, err := proxy.NewContext(proxy.Options{
		Connection:    conn,
		Provider:      provider,
		Store:         c.storeConfig,
		KeySerializer: c.keySerializer,
		Logger:        conn.Logger(),
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Session{Connection: conn, Context: pctx}, nil
}

// Dial connects to a host serving the wire protocol on network/address and
// opens a session over it. The channel is owned by the session.
func (c *Container) Dial(ctx context.Context, network, address string, provider protocol.ProviderID) (*Session, error) {
	client, err := wire.Dial(ctx, network, address, c.logger)
	if err != nil {
		return nil, err
	}
	return c.attach(client, provider)
}

// Attach opens a session over an already established stream, such as the
// stdio pipes of a host process. The stream is owned by the session.
func (c *Container) Attach(rwc io.ReadWriteCloser, provider protocol.ProviderID) (*Session, error) {
	return c.attach(wire.NewClient(rwc, c.logger), provider)
}

func (c *Container) attach(client *wire.Client, provider protocol.ProviderID) (*Session, error) {
	session, err := c.Connect(protocol.NewRemoteHost(client), provider, client, client.Done())
	if err != nil {
		client.Close()
		return nil, err
	}
	return session, nil
}
