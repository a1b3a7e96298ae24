package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

func (h *Handler) ListLeagueStandings(w http.ResponseWriter, r *http.Request) {
	leaguePrefix := r.PathValue("leaguePrefix")
	ctx, span := startHandlerSpan(r.Context(), "ListLeagueStandings", leaguePrefixAttr(leaguePrefix))
	defer span.End()

	items, err := h.standingService.ListByLeaguePrefix(ctx, leaguePrefix)
	if err != nil {
		h.logger.WarnContext(ctx, "list league standings failed", "league_prefix", leaguePrefix, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toStandingDTOs(items))
}

func (h *Handler) ListTopScorers(w http.ResponseWriter, r *http.Request) {
	query := topscorers.Query{
		LeaguePrefix: r.PathValue("leaguePrefix"),
		TeamID:       r.URL.Query().Get("team_id"),
	}
	ctx, span := startHandlerSpan(r.Context(), "ListTopScorers",
		leaguePrefixAttr(query.LeaguePrefix),
		attrTeamID.String(strings.TrimSpace(query.TeamID)),
	)
	defer span.End()

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: got %q", usecase.ErrInvalidLimit, raw))
			return
		}
		query.Limit = limit
	}

	items, err := h.topScorerService.List(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list top scorers failed",
			"league_prefix", query.LeaguePrefix,
			"team_id", query.TeamID,
			"limit", query.Limit,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toTopScorerDTOs(items))
}
