package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	qb "github.com/riskibarqy/facr-ledger/internal/platform/querybuilder"
)

type TopScorersRepository struct {
	db *sqlx.DB
}

var topScorersSelectColumns = []string{
	"g.player_id",
	"p.player_name",
	"g.team_id",
	"t.team_name",
	"SUM(g.goals_scored) AS total_goals",
	"COUNT(DISTINCT g.game_id) AS total_games",
}

func NewTopScorersRepository(db *sqlx.DB) *TopScorersRepository {
	return &TopScorersRepository{db: db}
}

func (r *TopScorersRepository) List(ctx context.Context, query topscorers.Query) ([]topscorers.Scorer, error) {
	conditions := []qb.Condition{qb.HasPrefix("g.facr_game_id", query.LeaguePrefix)}
	if teamID := strings.TrimSpace(query.TeamID); teamID != "" {
		conditions = append(conditions, qb.Eq("g.team_id", teamID))
	}

	sqlQuery, args, err := qb.Select(topScorersSelectColumns...).
		From("goals g JOIN players p ON p.player_id = g.player_id JOIN teams t ON t.team_id = g.team_id").
		Where(conditions...).
		GroupBy("g.player_id", "p.player_name", "g.team_id", "t.team_name").
		OrderBy("total_goals DESC", "p.player_name", "g.team_id").
		Limit(query.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list top scorers query: %w", err)
	}

	var rows []scorerRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(sqlQuery), args...); err != nil {
		return nil, fmt.Errorf("list top scorers prefix=%s: %w", query.LeaguePrefix, err)
	}

	out := make([]topscorers.Scorer, 0, len(rows))
	for _, row := range rows {
		out = append(out, topscorers.Scorer{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			TotalGoals: row.TotalGoals,
			TotalGames: row.TotalGames,
		})
	}
	return out, nil
}
