package player

import "fmt"

// Player is a squad member or scorer. ID is derived from Name alone, so two
// equally named players in different clubs share one row.
type Player struct {
	ID       string
	Name     string
	TeamID   string
	TeamName string
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}

	return nil
}
