package commands

import (
	"fmt"
	"io"

	sonic "github.com/bytedance/sonic"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

type ingestOptions struct {
	manifest string
	json     bool
	strict   bool
}

func newIngestCommand(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest [--manifest FILE] [SOURCE...]",
		Short: "Fetch, parse and store match reports in manifest order.",
		Long: "Sources are http(s) URLs of match report pages or paths to saved pages. " +
			"Each document is stored in its own transaction; a failing document is reported and skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := opts.sources(args)
			if err != nil {
				return err
			}

			container, _, _, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			report, err := container.IngestionService.IngestBatch(cmd.Context(), sources)
			if err != nil {
				return err
			}

			if opts.json {
				if err := writeReportJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report)
			}
			if stats := container.Site.BreakerStats(); stats.Opened > 0 || stats.Rejected > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "federation site breaker: state=%s opened=%d rejected=%d\n",
					stats.State, stats.Opened, stats.Rejected)
			}

			if opts.strict && report.HasFailures() {
				return fmt.Errorf("%d of %d documents were not stored", report.Failed+report.Skipped, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "text file with one match report source per line")
	cmd.Flags().StringVar(&opts.manifest, "games-url", "", "alias of --manifest")
	_ = cmd.Flags().MarkHidden("games-url")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the batch report as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when any document was not stored")
	return cmd
}

func (o *ingestOptions) sources(args []string) ([]string, error) {
	var sources []string
	if o.manifest != "" {
		fromFile, err := usecase.ReadManifestFile(o.manifest)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile...)
	}
	sources = append(sources, args...)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: pass --manifest or source arguments", usecase.ErrNoSources)
	}
	return sources, nil
}

func writeReportJSON(w io.Writer, report usecase.BatchReport) error {
	encoder := sonic.ConfigDefault.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode batch report: %w", err)
	}
	return nil
}

func renderReport(w io.Writer, report usecase.BatchReport) {
	t := newTable(w)
	t.SetTitle("Ingestion run " + report.RunID)
	t.AppendHeader(table.Row{"#", "Source", "Status", "Stage", "Players", "Goals", "Detail"})
	for i, doc := range report.Documents {
		detail := doc.GameID
		if doc.Status != usecase.DocumentCommitted {
			detail = doc.Error
		}
		t.AppendRow(table.Row{i + 1, doc.Source, doc.Status, doc.Stage, doc.Players, doc.Goals, detail})
	}
	t.AppendFooter(table.Row{"", "", "stored", report.Committed, "failed", report.Failed, fmt.Sprintf("skipped %d", report.Skipped)})
	t.Render()
}
