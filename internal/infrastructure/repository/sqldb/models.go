package sqldb

import "database/sql"

type teamTableModel struct {
	ID   string `db:"team_id"`
	Name string `db:"team_name"`
}

type playerTableModel struct {
	ID       string `db:"player_id"`
	Name     string `db:"player_name"`
	TeamID   string `db:"team_id"`
	TeamName string `db:"team_name"`
}

type gameTableModel struct {
	ID             string        `db:"game_id"`
	FACRGameID     string        `db:"facr_game_id"`
	Date           string        `db:"date"`
	Round          string        `db:"round"`
	HomeTeamID     string        `db:"home_team_id"`
	GuestTeamID    string        `db:"guest_team_id"`
	Venue          string        `db:"venue"`
	Spectators     int           `db:"spectators"`
	HalftimeScore  string        `db:"halftime_score"`
	FinalScore     string        `db:"final_score"`
	HomeTeamGoals  sql.NullInt64 `db:"home_team_goals"`
	GuestTeamGoals sql.NullInt64 `db:"guest_team_goals"`
}

type standingRow struct {
	TeamID   string `db:"team_id"`
	TeamName string `db:"team_name"`
	Points   int    `db:"points"`
}

type scorerRow struct {
	PlayerID   string `db:"player_id"`
	PlayerName string `db:"player_name"`
	TeamID     string `db:"team_id"`
	TeamName   string `db:"team_name"`
	TotalGoals int    `db:"total_goals"`
	TotalGames int    `db:"total_games"`
}

func intPtrToNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
