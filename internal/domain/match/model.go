package match

import (
	"fmt"

	"github.com/riskibarqy/facr-ledger/internal/domain/game"
	"github.com/riskibarqy/facr-ledger/internal/domain/player"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
)

// Record is everything extracted from one match report. Teams holds home then
// guest; Players and Goals follow document order and pair up by index.
type Record struct {
	Source  string
	Game    game.Game
	Teams   []team.Team
	Players []player.Player
	Goals   []game.GoalEntry
}

func (r Record) Home() team.Team {
	if len(r.Teams) == 0 {
		return team.Team{}
	}
	return r.Teams[0]
}

func (r Record) Guest() team.Team {
	if len(r.Teams) < 2 {
		return team.Team{}
	}
	return r.Teams[1]
}

// Change names what storing one record can alter in derived reads: the
// league the match belongs to and its two participants.
type Change struct {
	FACRGameID string
	TeamIDs    []string
}

// GoalsFor sums the recorded goal entries of one team.
func (r Record) GoalsFor(teamID string) int {
	total := 0
	for _, g := range r.Goals {
		if g.TeamID == teamID {
			total += g.GoalsScored
		}
	}
	return total
}

// ScoreMatchesGoals reports whether the per-player goal entries add up to the
// parsed final score. Records without a parsed result always match.
func (r Record) ScoreMatchesGoals() bool {
	if !r.Game.HasResult() {
		return true
	}
	return r.GoalsFor(r.Home().ID) == *r.Game.HomeTeamGoals &&
		r.GoalsFor(r.Guest().ID) == *r.Game.GuestTeamGoals
}

// Validate checks the referential shape the store relies on: two distinct
// participants, and every goal entry pointing at a player and team of this
// record.
func (r Record) Validate() error {
	if len(r.Teams) != 2 {
		return fmt.Errorf("record must have exactly two teams, got %d", len(r.Teams))
	}
	for _, t := range r.Teams {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if err := r.Game.Validate(); err != nil {
		return err
	}
	home, guest := r.Home(), r.Guest()
	if home.ID == guest.ID {
		return fmt.Errorf("home and guest resolve to the same team %s", home.ID)
	}
	if r.Game.HomeTeamID != home.ID || r.Game.GuestTeamID != guest.ID {
		return fmt.Errorf("game participants do not match record teams")
	}

	teams := map[string]struct{}{home.ID: {}, guest.ID: {}}
	players := make(map[string]struct{}, len(r.Players))
	for _, p := range r.Players {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := teams[p.TeamID]; !ok {
			return fmt.Errorf("player %s references unknown team %s", p.ID, p.TeamID)
		}
		players[p.ID] = struct{}{}
	}
	for _, g := range r.Goals {
		if err := g.Validate(); err != nil {
			return err
		}
		if g.GameID != r.Game.ID {
			return fmt.Errorf("goal entry for %s references game %s", g.PlayerID, g.GameID)
		}
		if _, ok := players[g.PlayerID]; !ok {
			return fmt.Errorf("goal entry references unknown player %s", g.PlayerID)
		}
		if _, ok := teams[g.TeamID]; !ok {
			return fmt.Errorf("goal entry references unknown team %s", g.TeamID)
		}
	}

	return nil
}
