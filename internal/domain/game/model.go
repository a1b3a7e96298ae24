package game

import "fmt"

// Game is one reported match. ID is built from the participants, the date and
// the round label; FACRGameID is the federation's own match number.
type Game struct {
	ID             string
	FACRGameID     string
	Date           string
	Round          string
	HomeTeamID     string
	GuestTeamID    string
	Venue          string
	Spectators     int
	HalftimeScore  string
	FinalScore     string
	HomeTeamGoals  *int
	GuestTeamGoals *int
}

func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.FACRGameID == "" {
		return fmt.Errorf("game facr id is required")
	}
	if g.HomeTeamID == "" || g.GuestTeamID == "" {
		return fmt.Errorf("game participants are required")
	}
	if g.Spectators < 0 {
		return fmt.Errorf("game spectators must be >= 0")
	}

	return nil
}

// HasResult reports whether the final score was parsed into goal counts.
func (g Game) HasResult() bool {
	return g.HomeTeamGoals != nil && g.GuestTeamGoals != nil
}

// GoalEntry is a player's goal count in one game. Zero is stored too, so the
// goals table doubles as the appearance list.
type GoalEntry struct {
	GameID      string
	FACRGameID  string
	PlayerID    string
	TeamID      string
	GoalsScored int
}

func (e GoalEntry) Validate() error {
	if e.GameID == "" || e.PlayerID == "" || e.TeamID == "" {
		return fmt.Errorf("goal entry requires game, player and team ids")
	}
	if e.GoalsScored < 0 {
		return fmt.Errorf("goal entry goals must be >= 0")
	}

	return nil
}
