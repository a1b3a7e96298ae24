package topscorers

// Scorer is one leaderboard row, aggregated per player and team.
type Scorer struct {
	PlayerID   string
	PlayerName string
	TeamID     string
	TeamName   string
	TotalGoals int
	TotalGames int
}

// Query selects games whose federation id starts with LeaguePrefix.
// TeamID and Limit are optional; Limit <= 0 means no limit.
type Query struct {
	LeaguePrefix string
	TeamID       string
	Limit        int
}
