package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	basecache "github.com/riskibarqy/facr-ledger/internal/platform/cache"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

const (
	standingsKeyPrefix  = "standings:"
	topScorersKeyPrefix = "topscorers:"
	teamKeyPrefix       = "team:"
)

type LeagueStandingRepository struct {
	next  leaguestanding.Repository
	cache *basecache.Store
}

func NewLeagueStandingRepository(next leaguestanding.Repository, cache *basecache.Store) *LeagueStandingRepository {
	return &LeagueStandingRepository{next: next, cache: cache}
}

func (r *LeagueStandingRepository) ListByLeaguePrefix(ctx context.Context, leaguePrefix string) ([]leaguestanding.Standing, error) {
	v, err := r.cache.Load(ctx, standingsKeyPrefix+strconv.Quote(leaguePrefix), leaguePrefix, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByLeaguePrefix(ctx, leaguePrefix)
		if err != nil {
			return nil, err
		}
		return append([]leaguestanding.Standing(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]leaguestanding.Standing)
	return append([]leaguestanding.Standing(nil), items...), nil
}

type TopScorersRepository struct {
	next  topscorers.Repository
	cache *basecache.Store
}

func NewTopScorersRepository(next topscorers.Repository, cache *basecache.Store) *TopScorersRepository {
	return &TopScorersRepository{next: next, cache: cache}
}

func (r *TopScorersRepository) List(ctx context.Context, query topscorers.Query) ([]topscorers.Scorer, error) {
	v, err := r.cache.Load(ctx, topScorersKey(query), query.LeaguePrefix, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, query)
		if err != nil {
			return nil, err
		}
		return append([]topscorers.Scorer(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]topscorers.Scorer)
	return append([]topscorers.Scorer(nil), items...), nil
}

// topScorersKey quotes the caller supplied fields so no league prefix or team
// id can spell out another query's key.
func topScorersKey(query topscorers.Query) string {
	var b strings.Builder
	b.WriteString(topScorersKeyPrefix)
	b.WriteString(strconv.Quote(query.LeaguePrefix))
	b.WriteByte(':')
	b.WriteString(strconv.Quote(query.TeamID))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(query.Limit))
	return b.String()
}

func teamKey(teamID string) string {
	return teamKeyPrefix + strconv.Quote(teamID)
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	v, err := r.cache.Load(ctx, teamKey(teamID), "", func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

// Invalidator drops the cached reads a batch of stored matches can change:
// standings and scorer tables of every league prefix covering one of the
// match numbers, and the lookups of the teams that played.
type Invalidator struct {
	cache  *basecache.Store
	logger *logging.Logger
}

func NewInvalidator(cache *basecache.Store, logger *logging.Logger) *Invalidator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Invalidator{cache: cache, logger: logger}
}

func (i *Invalidator) InvalidateMatchData(ctx context.Context, changes []match.Change) {
	if i == nil || i.cache == nil || len(changes) == 0 {
		return
	}

	gameIDs := make([]string, 0, len(changes))
	var teamKeys []string
	for _, change := range changes {
		if change.FACRGameID != "" {
			gameIDs = append(gameIDs, change.FACRGameID)
		}
		for _, teamID := range change.TeamIDs {
			if teamID != "" {
				teamKeys = append(teamKeys, teamKey(teamID))
			}
		}
	}

	dropped := i.cache.DropLeagues(gameIDs...) + i.cache.DropKeys(teamKeys...)
	stats := i.cache.Stats()
	i.logger.DebugContext(ctx, "league read cache invalidated",
		"matches", len(changes),
		"dropped", dropped,
		"entries", stats.Entries,
		"hits", stats.Hits,
		"misses", stats.Misses,
	)
}
