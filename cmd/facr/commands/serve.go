package commands

import (
	"github.com/spf13/cobra"

	"github.com/riskibarqy/facr-ledger/internal/app"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, cfg, logger, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			srv, err := app.NewHTTPServer(cfg, container, logger)
			if err != nil {
				return err
			}
			return app.Serve(cmd.Context(), srv, logger)
		},
	}
}
