package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
)

type stubStandingRepository struct {
	prefixes []string
	rows     []leaguestanding.Standing
	err      error
}

func (s *stubStandingRepository) ListByLeaguePrefix(_ context.Context, prefix string) ([]leaguestanding.Standing, error) {
	s.prefixes = append(s.prefixes, prefix)
	return s.rows, s.err
}

type stubScorerRepository struct {
	queries []topscorers.Query
}

func (s *stubScorerRepository) List(_ context.Context, query topscorers.Query) ([]topscorers.Scorer, error) {
	s.queries = append(s.queries, query)
	return []topscorers.Scorer{{PlayerID: "x", TotalGoals: 3, TotalGames: 2}}, nil
}

type stubTeamRepository struct {
	teams map[string]team.Team
}

func (s *stubTeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	t, ok := s.teams[teamID]
	return t, ok, nil
}

func TestStandingService_ListByLeaguePrefix(t *testing.T) {
	t.Parallel()

	repo := &stubStandingRepository{rows: []leaguestanding.Standing{{TeamID: "a", TeamName: "A", Points: 4}}}
	svc := NewStandingService(repo)

	got, err := svc.ListByLeaguePrefix(context.Background(), "  2023110A1A ")
	require.NoError(t, err)
	require.Equal(t, repo.rows, got)
	require.Equal(t, []string{"2023110A1A"}, repo.prefixes)

	_, err = svc.ListByLeaguePrefix(context.Background(), "   ")
	require.True(t, errors.Is(err, ErrLeaguePrefixRequired))
	require.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStandingService_WrapsRepositoryError(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	svc := NewStandingService(&stubStandingRepository{err: cause})

	_, err := svc.ListByLeaguePrefix(context.Background(), "2023")
	require.True(t, errors.Is(err, cause))
	require.True(t, strings.Contains(err.Error(), "list league standings"))
}

func TestTopScorerService_List(t *testing.T) {
	t.Parallel()

	repo := &stubScorerRepository{}
	teams := &stubTeamRepository{teams: map[string]team.Team{"team_a": {ID: "team_a", Name: "Team A"}}}
	svc := NewTopScorerService(repo, teams)
	ctx := context.Background()

	got, err := svc.List(ctx, topscorers.Query{LeaguePrefix: " 2023 ", TeamID: " team_a ", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, topscorers.Query{LeaguePrefix: "2023", TeamID: "team_a", Limit: 10}, repo.queries[0])

	cases := []struct {
		name   string
		query  topscorers.Query
		want   error
		kind   error
		reason string
	}{
		{name: "missing prefix", query: topscorers.Query{}, want: ErrLeaguePrefixRequired, kind: ErrInvalidInput, reason: "leaguePrefixRequired"},
		{name: "negative limit", query: topscorers.Query{LeaguePrefix: "2023", Limit: -1}, want: ErrInvalidLimit, kind: ErrInvalidInput, reason: "invalidLimit"},
		{name: "unknown team", query: topscorers.Query{LeaguePrefix: "2023", TeamID: "nobody"}, want: ErrUnknownTeam, kind: ErrNotFound, reason: "unknownTeam"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.List(ctx, tc.query)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
			require.True(t, errors.Is(err, tc.kind), "got %v", err)
			reason, ok := ReasonOf(err)
			require.True(t, ok)
			require.Equal(t, tc.reason, reason)
		})
	}
	require.Len(t, repo.queries, 1)
}

func TestReasonOf(t *testing.T) {
	t.Parallel()

	reason, ok := ReasonOf(fmt.Errorf("list: %w", fmt.Errorf("%w: got %q", ErrInvalidLimit, "ten")))
	require.True(t, ok)
	require.Equal(t, "invalidLimit", reason)
	require.Equal(t, "limit must be a non-negative integer", ErrInvalidLimit.Error())

	_, ok = ReasonOf(fmt.Errorf("%w: bad payload", ErrInvalidInput))
	require.False(t, ok)
	_, ok = ReasonOf(nil)
	require.False(t, ok)
}
