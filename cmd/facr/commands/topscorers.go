package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
)

func newTopScorersCommand(root *rootOptions) *cobra.Command {
	var query topscorers.Query
	cmd := &cobra.Command{
		Use:   "topscorers --league-id PREFIX [--team-id ID] [--limit N]",
		Short: "Print the scorer leaderboard of a league.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, _, _, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			rows, err := container.TopScorerService.List(cmd.Context(), query)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			title := "Top scorers in league " + query.LeaguePrefix
			if query.TeamID != "" {
				title += " for team " + query.TeamID
			}
			t.SetTitle(title)
			t.AppendHeader(table.Row{"#", "Player", "Team", "Goals", "Games"})
			for i, row := range rows {
				t.AppendRow(table.Row{i + 1, row.PlayerName, row.TeamName, row.TotalGoals, row.TotalGames})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&query.LeaguePrefix, "league-id", "", "prefix of the federation game ids, e.g. 2024622G1B")
	cmd.Flags().StringVar(&query.TeamID, "team-id", "", "only players of this team, e.g. bohunice_a")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum rows; 0 prints all")
	_ = cmd.MarkFlagRequired("league-id")
	return cmd
}
