package leaguestanding

// Standing represents a league table row for one team: 3 points per win,
// 1 per draw, counted over games with a recorded final score.
type Standing struct {
	TeamID   string
	TeamName string
	Points   int
}
