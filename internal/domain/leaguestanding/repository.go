package leaguestanding

import "context"

type Repository interface {
	ListByLeaguePrefix(ctx context.Context, leaguePrefix string) ([]Standing, error)
}
