package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStandingsCommand(root *rootOptions) *cobra.Command {
	var leagueID string
	cmd := &cobra.Command{
		Use:   "standings --league-id PREFIX",
		Short: "Print the league table: 3 points per win, 1 per draw.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, _, _, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			rows, err := container.StandingService.ListByLeaguePrefix(cmd.Context(), leagueID)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle("Standings for league " + leagueID)
			t.AppendHeader(table.Row{"#", "Team", "Pts"})
			for i, row := range rows {
				t.AppendRow(table.Row{i + 1, row.TeamName, row.Points})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&leagueID, "league-id", "", "prefix of the federation game ids, e.g. 2024623H1")
	_ = cmd.MarkFlagRequired("league-id")
	return cmd
}
