// Package cli provides the command-line interface for recordkit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	// Drivers the command opens by name.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/config"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "recordkit",
		Short: "Stream, fold and load database records",
		Long: `recordkit runs SQL queries and prints their rows as records, optionally
converting column values into typed objects and folding related rows into
nested records. It also installs and uninstalls table packages.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if cfg.Verbose && used != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", used)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./recordkit.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "database/sql driver (mysql|postgres|pgx|sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "data source name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every statement")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (json|yaml|msgpack|table)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Outputs, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Drivers, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newPackagesCommand())
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recordkit v%s (%s)\n", Version, GitCommit)
		},
	}
}

func getConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// session holds an open database and the context carrying its session
// variables.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	drv    dialect.Driver
	stats  *sql.StatsDriver
}

// openSession validates the configuration and opens the database. The
// driver is wrapped to collect statistics, log slow statements and, with
// debug enabled, every statement.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	var drv dialect.Driver = db
	if cfg.Debug {
		drv = sql.NewDebugDriver(drv, logger)
	}
	opts := []sql.StatsOption{sql.WithStatsLogger(logger)}
	if cfg.SlowThreshold > 0 {
		opts = append(opts, sql.WithSlowThreshold(cfg.SlowThreshold), sql.WithSlowQueryLog())
	}
	stats := sql.NewStatsDriver(drv, opts...)
	ctx := cmd.Context()
	if len(cfg.Session) > 0 {
		ctx = sql.WithVars(ctx, cfg.Session)
	}
	return &session{ctx: ctx, cfg: cfg, logger: logger, drv: stats, stats: stats}, nil
}

func (s *session) client(opts ...recordkit.Option) *recordkit.Client {
	return recordkit.NewClient(s.drv, append([]recordkit.Option{recordkit.WithLogger(s.logger)}, opts...)...)
}

func (s *session) Close() error {
	s.logger.InfoContext(s.ctx, "session closed", "stats", s.stats.QueryStats().Stats())
	return s.drv.Close()
}
