package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/facr-ledger/internal/app"
	"github.com/riskibarqy/facr-ledger/internal/config"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

type rootOptions struct {
	dbFile string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "facr",
		Short:         "facr stores FAČR match reports and prints league standings and top scorers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dbFile, "db-file", "", "SQLite database file; overrides DB_DRIVER and DB_URL")

	cmd.AddCommand(
		newIngestCommand(opts),
		newStandingsCommand(opts),
		newTopScorersCommand(opts),
		newServeCommand(opts),
		newMigrateCommand(opts),
	)
	return cmd
}

func ExecuteContext(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if o.dbFile != "" {
		cfg.DBDriver = config.DBDriverSQLite
		cfg.DBURL = "file:" + o.dbFile
	}
	return cfg, nil
}

// open loads the configuration and builds the services. Logs go to the
// command's stderr.
func (o *rootOptions) open(cmd *cobra.Command) (*app.Container, config.Config, *logging.Logger, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	logger := logging.NewJSONWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	container, err := app.NewContainer(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return container, cfg, logger, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
