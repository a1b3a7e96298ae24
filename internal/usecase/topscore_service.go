package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
)

type TopScorerService struct {
	repo     topscorers.Repository
	teamRepo team.Repository
}

func NewTopScorerService(repo topscorers.Repository, teamRepo team.Repository) *TopScorerService {
	return &TopScorerService{
		repo:     repo,
		teamRepo: teamRepo,
	}
}

// List returns the scorer leaderboard. A team filter must name a stored team.
func (s *TopScorerService) List(ctx context.Context, query topscorers.Query) ([]topscorers.Scorer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TopScorerService.List")
	defer span.End()

	query.LeaguePrefix = strings.TrimSpace(query.LeaguePrefix)
	query.TeamID = strings.TrimSpace(query.TeamID)
	if query.LeaguePrefix == "" {
		return nil, ErrLeaguePrefixRequired
	}
	if query.Limit < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, query.Limit)
	}

	if query.TeamID != "" && s.teamRepo != nil {
		_, exists, err := s.teamRepo.GetByID(ctx, query.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get team: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: team=%s", ErrUnknownTeam, query.TeamID)
		}
	}

	items, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list top scorers: %w", err)
	}

	return items, nil
}
