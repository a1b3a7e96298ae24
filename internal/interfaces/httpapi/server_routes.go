package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues/{leaguePrefix}/standings", handler.ListLeagueStandings)
	mux.HandleFunc("GET /v1/leagues/{leaguePrefix}/topscorers", handler.ListTopScorers)
}

func registerInternalIngestionRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	// Runs a full batch synchronously; the response carries the batch report.
	mux.Handle("POST /v1/internal/ingestion/matches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestMatches)))
}
