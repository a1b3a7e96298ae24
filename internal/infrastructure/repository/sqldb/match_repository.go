package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/facr-ledger/internal/domain/game"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	qb "github.com/riskibarqy/facr-ledger/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Reconcile writes one record in a single transaction. Teams and players are
// created if absent, the game row is replaced, and the game's goal rows are
// deleted and reinserted. Any failure rolls the whole record back.
func (r *MatchRepository) Reconcile(ctx context.Context, record match.Record) error {
	if err := record.Validate(); err != nil {
		return r.fail(record, fmt.Errorf("validate record: %w", err))
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return r.fail(record, fmt.Errorf("begin tx reconcile match: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range record.Teams {
		model := teamTableModel{ID: t.ID, Name: t.Name}
		if err := execWrite(ctx, tx, "teams", model, createIfAbsent, "team_id"); err != nil {
			return r.fail(record, fmt.Errorf("team=%s: %w", t.ID, err))
		}
	}

	if err := execWrite(ctx, tx, "games", toGameModel(record.Game), replaceWholesale, "game_id"); err != nil {
		return r.fail(record, fmt.Errorf("game: %w", err))
	}

	for _, p := range record.Players {
		model := playerTableModel{ID: p.ID, Name: p.Name, TeamID: p.TeamID, TeamName: p.TeamName}
		if err := execWrite(ctx, tx, "players", model, createIfAbsent, "player_id"); err != nil {
			return r.fail(record, fmt.Errorf("player=%s: %w", p.ID, err))
		}
	}

	if err := replaceGoals(ctx, tx, record.Game.ID, record.Goals); err != nil {
		return r.fail(record, err)
	}

	if err := tx.Commit(); err != nil {
		return r.fail(record, fmt.Errorf("commit reconcile match tx: %w", err))
	}
	return nil
}

func (r *MatchRepository) fail(record match.Record, err error) error {
	return &match.ReconcileError{Source: record.Source, GameID: record.Game.ID, Err: err}
}

func execWrite(ctx context.Context, tx *sqlx.Tx, table string, model any, policy writePolicy, key ...string) error {
	query, args, err := writeStatement(table, model, policy, key...)
	if err != nil {
		return fmt.Errorf("build %s %s query: %w", policy, table, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s %s: %w", policy, table, err)
	}
	return nil
}

func replaceGoals(ctx context.Context, tx *sqlx.Tx, gameID string, goals []game.GoalEntry) error {
	query, args, err := qb.DeleteFrom("goals").Where(qb.Eq("game_id", gameID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete goals query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete goals game=%s: %w", gameID, err)
	}

	if len(goals) == 0 {
		return nil
	}

	insert := qb.InsertInto("goals").Columns("game_id", "facr_game_id", "player_id", "team_id", "goals_scored")
	for _, g := range goals {
		insert.Values(g.GameID, g.FACRGameID, g.PlayerID, g.TeamID, g.GoalsScored)
	}
	query, args, err = insert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert goals query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert goals game=%s: %w", gameID, err)
	}
	return nil
}

func toGameModel(g game.Game) gameTableModel {
	return gameTableModel{
		ID:             g.ID,
		FACRGameID:     g.FACRGameID,
		Date:           g.Date,
		Round:          g.Round,
		HomeTeamID:     g.HomeTeamID,
		GuestTeamID:    g.GuestTeamID,
		Venue:          g.Venue,
		Spectators:     g.Spectators,
		HalftimeScore:  g.HalftimeScore,
		FinalScore:     g.FinalScore,
		HomeTeamGoals:  intPtrToNull(g.HomeTeamGoals),
		GuestTeamGoals: intPtrToNull(g.GuestTeamGoals),
	}
}
