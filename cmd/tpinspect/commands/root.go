// Package commands implements the tpinspect command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"

	"github.com/goliatone/go-typeprovider-cache/pkg/config"
	"github.com/goliatone/go-typeprovider-cache/pkg/di"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// ErrNoAddress is returned when a command needs a host and none was given.
var ErrNoAddress = zerr.New("no host address, pass --socket")

// Target names the host a session is opened against.
type Target struct {
	Network  string
	Address  string
	Provider protocol.ProviderID
}

// Opener opens a session against target with the loaded configuration.
type Opener func(ctx context.Context, cfg config.Config, target Target, logger *slog.Logger) (*di.Session, error)

// DialSession is the Opener used by the binary. It dials the host's wire
// endpoint through a container built from cfg.
func DialSession(ctx context.Context, cfg config.Config, target Target, logger *slog.Logger) (*di.Session, error) {
	if target.Address == "" {
		return nil, ErrNoAddress
	}
	container, err := di.NewContainer(cfg.Cache, cfg.Connection, logger)
	if err != nil {
		return nil, err
	}
	return container.Dial(ctx, target.Network, target.Address, target.Provider)
}

// CLI represents the command line interface for tpinspect.
type CLI struct {
	open    Opener
	rootCmd *cobra.Command
	v       *viper.Viper

	configPath string
	target     Target
	provider   int64
	verbose    bool
}

// New creates the command tree. open is called once per command that talks
// to a host.
func New(open Opener) *CLI {
	rootCmd := &cobra.Command{
		Use:           "tpinspect",
		Short:         "Inspect the types a provider host exposes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{
		open:    open,
		rootCmd: rootCmd,
		v:       config.New(),
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	flags.StringVar(&c.target.Network, "network", "unix", "Network of the host endpoint")
	flags.StringVar(&c.target.Address, "socket", "", "Address of the host endpoint")
	flags.Int64Var(&c.provider, "provider", 1, "Type provider id on the host")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log remote calls and cache misses")
	flags.Duration("timeout", 5*time.Second, "Deadline for cheap remote calls")
	flags.Duration("maximal-timeout", 30*time.Second, "Deadline for content and applications")

	_ = c.v.BindPFlag("connection.default_timeout", flags.Lookup("timeout"))
	_ = c.v.BindPFlag("connection.maximal_timeout", flags.Lookup("maximal-timeout"))

	rootCmd.AddCommand(c.newTypeCmd())
	rootCmd.AddCommand(c.newAssemblyCmd())
	rootCmd.AddCommand(c.newDumpCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// session loads the configuration and opens a session for cmd.
func (c *CLI) session(cmd *cobra.Command) (*di.Session, error) {
	cfg, err := config.LoadWith(c.v, c.configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	target := c.target
	target.Provider = protocol.ProviderID(c.provider)
	return c.open(cmd.Context(), cfg, target, logger)
}
