package sqldb

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/riskibarqy/facr-ledger/internal/domain/game"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	"github.com/riskibarqy/facr-ledger/internal/domain/player"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/platform/migration"
	"github.com/riskibarqy/facr-ledger/internal/platform/slug"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "games.db")
	require.NoError(t, migration.Up(migration.DriverSQLite, dsn))

	db, err := sqlx.Open("sqlite", dsn+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var (
	teamA = team.Team{ID: "team_a", Name: "Team A"}
	teamB = team.Team{ID: "team_b", Name: "Team B"}
	teamC = team.Team{ID: "team_c", Name: "Team C"}
)

type appearance struct {
	name  string
	team  team.Team
	goals int
}

func score(v int) *int { return &v }

// buildRecord assembles a valid record the way the parser would emit it.
func buildRecord(facrID, date string, home, guest team.Team, homeGoals, guestGoals *int, lineup ...appearance) match.Record {
	g := game.Game{
		ID:             home.ID + "_" + guest.ID + "_" + date + "_1. kolo",
		FACRGameID:     facrID,
		Date:           date,
		Round:          "1. kolo",
		HomeTeamID:     home.ID,
		GuestTeamID:    guest.ID,
		HomeTeamGoals:  homeGoals,
		GuestTeamGoals: guestGoals,
	}
	record := match.Record{Source: facrID + ".html", Game: g, Teams: []team.Team{home, guest}}
	for _, a := range lineup {
		id := slug.Normalize(a.name)
		record.Players = append(record.Players, player.Player{ID: id, Name: a.name, TeamID: a.team.ID, TeamName: a.team.Name})
		record.Goals = append(record.Goals, game.GoalEntry{
			GameID:      g.ID,
			FACRGameID:  facrID,
			PlayerID:    id,
			TeamID:      a.team.ID,
			GoalsScored: a.goals,
		})
	}
	return record
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}
