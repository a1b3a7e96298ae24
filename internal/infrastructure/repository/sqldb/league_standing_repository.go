package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
	qb "github.com/riskibarqy/facr-ledger/internal/platform/querybuilder"
)

type LeagueStandingRepository struct {
	db *sqlx.DB
}

func NewLeagueStandingRepository(db *sqlx.DB) *LeagueStandingRepository {
	return &LeagueStandingRepository{db: db}
}

const (
	homePointsExpr = "CASE WHEN home_team_goals > guest_team_goals THEN 3 WHEN home_team_goals = guest_team_goals THEN 1 ELSE 0 END AS points"
	awayPointsExpr = "CASE WHEN guest_team_goals > home_team_goals THEN 3 WHEN guest_team_goals = home_team_goals THEN 1 ELSE 0 END AS points"
)

// ListByLeaguePrefix sums points per team over every scored game whose
// federation id starts with leaguePrefix, home and away alike.
func (r *LeagueStandingRepository) ListByLeaguePrefix(ctx context.Context, leaguePrefix string) ([]leaguestanding.Standing, error) {
	homeQuery, homeArgs, err := scoredGames(leaguePrefix, "home_team_id", homePointsExpr)
	if err != nil {
		return nil, fmt.Errorf("build home standings query: %w", err)
	}
	awayQuery, awayArgs, err := scoredGames(leaguePrefix, "guest_team_id", awayPointsExpr)
	if err != nil {
		return nil, fmt.Errorf("build away standings query: %w", err)
	}

	query, args, err := qb.Select("t.team_id", "t.team_name", "SUM(r.points) AS points").
		From("("+homeQuery+" UNION ALL "+awayQuery+") r JOIN teams t ON t.team_id = r.team_id").
		GroupBy("t.team_id", "t.team_name").
		OrderBy("points DESC", "t.team_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}
	args = append(append(homeArgs, awayArgs...), args...)

	var rows []standingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list standings prefix=%s: %w", leaguePrefix, err)
	}

	out := make([]leaguestanding.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaguestanding.Standing{
			TeamID:   row.TeamID,
			TeamName: row.TeamName,
			Points:   row.Points,
		})
	}
	return out, nil
}

func scoredGames(leaguePrefix, teamColumn, pointsExpr string) (string, []any, error) {
	return qb.Select(teamColumn+" AS team_id", pointsExpr).
		From("games").
		Where(
			qb.HasPrefix("facr_game_id", leaguePrefix),
			qb.NotNull("home_team_goals"),
			qb.NotNull("guest_team_goals"),
		).
		ToSQL()
}
