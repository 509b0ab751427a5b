package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/restq/internal/config"
	"github.com/roach88/restq/internal/journal"
	"github.com/roach88/restq/internal/logging"
	"github.com/roach88/restq/internal/resource"
	"github.com/roach88/restq/internal/transport"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	BaseURL    string
	Token      string
	Journal    string
	Replay     bool

	// Client, when set, replaces the transport built from config.
	Client transport.Client

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the restq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restq",
		Short: "restq - query REST resources from the command line",
		Long: `restq builds filter, sort and aggregate queries and sends them to a
REST resource that understands the _query/_columns/_hidden envelope.

Resources are given as absolute URLs or as paths relative to base_url.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				_ = opts.formatter(cmd).Error(ErrCodeArgument, msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			if err := opts.load(cmd.ErrOrStderr()); err != nil {
				_ = opts.formatter(cmd).Error(ErrCodeConfig, err.Error(), nil)
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $RESTQ_CONFIG or ./restq.yaml)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "base URL resources are resolved against")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "authorization token")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "SQLite journal recording every exchange")
	cmd.PersistentFlags().BoolVar(&opts.Replay, "replay", false, "answer requests from the journal")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewAggregateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// load reads the config, applies flag overrides and sets up logging.
func (o *RootOptions) load(stderr io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Token != "" {
		cfg.Auth.Token = o.Token
	}
	if o.Journal != "" {
		cfg.Journal.Path = o.Journal
	}
	if o.Replay {
		cfg.Journal.Replay = true
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	o.cfg = cfg

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// client builds the transport chain: HTTP, then the circuit breaker, then
// the journal recorder. Replay mode answers from the journal alone. The
// returned close func releases the journal.
func (o *RootOptions) client() (transport.Client, func() error, error) {
	noop := func() error { return nil }
	if o.Client != nil {
		return o.Client, noop, nil
	}

	cfg := o.cfg
	var store *journal.Store
	if cfg.Journal.Path != "" {
		s, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "open journal", err)
		}
		store = s
	}

	if cfg.Journal.Replay {
		if store == nil {
			return nil, nil, NewExitError(ExitCommandError, "replay requires --journal or journal.path")
		}
		return transport.NewReplayer(store), store.Close, nil
	}

	httpOpts := []transport.HTTPOption{transport.WithTimeout(cfg.HTTP.Timeout)}
	if cfg.HTTP.RateLimit > 0 {
		httpOpts = append(httpOpts, transport.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst))
	}
	var c transport.Client = transport.NewHTTPClient(httpOpts...)

	if cfg.Breaker.Enabled {
		c = transport.NewBreakerClient(c, transport.BreakerSettings{
			Name:         "restq",
			MaxRequests:  cfg.Breaker.MaxRequests,
			Interval:     cfg.Breaker.Interval,
			Timeout:      cfg.Breaker.Timeout,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
		})
	}

	if store != nil {
		return transport.NewRecorder(c, store), store.Close, nil
	}
	return c, noop, nil
}

// newQuery resolves target against base_url and returns a query bound to
// the configured transport and credentials.
func (o *RootOptions) newQuery(target string) (*resource.Query, func() error, error) {
	c, closeFn, err := o.client()
	if err != nil {
		return nil, nil, err
	}

	var q *resource.Query
	if strings.Contains(target, "://") || o.cfg.BaseURL == "" {
		q, err = resource.New(target, resource.WithClient(c))
	} else {
		q, err = resource.New(o.cfg.BaseURL, resource.WithClient(c))
		if err == nil {
			q.From(target)
		}
	}
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	if o.cfg.Auth.Token != "" {
		q = q.WithAuthorization(o.cfg.Auth.Token, o.cfg.Auth.Scheme)
	}
	return q, closeFn, nil
}

// parseID keeps numeric ids numeric so the int shapes of the CRUD verbs
// are selected.
func parseID(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
