package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
)

type StandingService struct {
	standingRepo leaguestanding.Repository
}

func NewStandingService(standingRepo leaguestanding.Repository) *StandingService {
	return &StandingService{standingRepo: standingRepo}
}

// ListByLeaguePrefix ranks the teams of every scored game whose federation
// match number starts with leaguePrefix.
func (s *StandingService) ListByLeaguePrefix(ctx context.Context, leaguePrefix string) ([]leaguestanding.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingService.ListByLeaguePrefix")
	defer span.End()

	leaguePrefix = strings.TrimSpace(leaguePrefix)
	if leaguePrefix == "" {
		return nil, ErrLeaguePrefixRequired
	}

	items, err := s.standingRepo.ListByLeaguePrefix(ctx, leaguePrefix)
	if err != nil {
		return nil, fmt.Errorf("list league standings: %w", err)
	}

	return items, nil
}
