package httpapi

import (
	"time"

	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

type ingestMatchesRequest struct {
	Sources []string `json:"sources" validate:"required,min=1,max=500,dive,required"`
}

type standingDTO struct {
	Rank     int    `json:"rank"`
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	Points   int    `json:"points"`
}

type topScorerDTO struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
	TotalGoals int    `json:"total_goals"`
	TotalGames int    `json:"total_games"`
}

type batchReportDTO struct {
	RunID      string                   `json:"run_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Total      int                      `json:"total"`
	Committed  int                      `json:"committed"`
	Failed     int                      `json:"failed"`
	Skipped    int                      `json:"skipped"`
	Documents  []usecase.DocumentResult `json:"documents"`
}

// Rank follows list order; equal points still get distinct ranks.
func toStandingDTOs(items []leaguestanding.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(items))
	for i, item := range items {
		out = append(out, standingDTO{
			Rank:     i + 1,
			TeamID:   item.TeamID,
			TeamName: item.TeamName,
			Points:   item.Points,
		})
	}
	return out
}

func toTopScorerDTOs(items []topscorers.Scorer) []topScorerDTO {
	out := make([]topScorerDTO, 0, len(items))
	for i, item := range items {
		out = append(out, topScorerDTO{
			Rank:       i + 1,
			PlayerID:   item.PlayerID,
			PlayerName: item.PlayerName,
			TeamID:     item.TeamID,
			TeamName:   item.TeamName,
			TotalGoals: item.TotalGoals,
			TotalGames: item.TotalGames,
		})
	}
	return out
}

func toBatchReportDTO(report usecase.BatchReport) batchReportDTO {
	documents := report.Documents
	if documents == nil {
		documents = []usecase.DocumentResult{}
	}
	return batchReportDTO{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Total:      report.Total,
		Committed:  report.Committed,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Documents:  documents,
	}
}
