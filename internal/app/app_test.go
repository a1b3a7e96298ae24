package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/facr-ledger/internal/config"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:             config.EnvDev,
		HTTPAddr:           ":0",
		DBDriver:           config.DBDriverSQLite,
		DBURL:              "file:" + filepath.Join(t.TempDir(), "games_database.db"),
		DBAutoMigrate:      true,
		CacheEnabled:       true,
		CacheTTL:           time.Minute,
		FACRMaxRetries:     0,
		IngestFetchWorkers: 2,
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestNewContainer_SQLite(t *testing.T) {
	ctx := context.Background()
	container, err := NewContainer(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	standings, err := container.StandingService.ListByLeaguePrefix(ctx, "2023110A1A")
	require.NoError(t, err)
	assert.Empty(t, standings)

	scorers, err := container.TopScorerService.List(ctx, topscorers.Query{LeaguePrefix: "2023110A1A"})
	require.NoError(t, err)
	assert.Empty(t, scorers)

	report, err := container.IngestionService.IngestBatch(ctx, []string{filepath.Join(t.TempDir(), "missing.html")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestContainer_DebugEndpoints(t *testing.T) {
	ctx := context.Background()
	container, err := NewContainer(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	_, err = container.StandingService.ListByLeaguePrefix(ctx, "2023110A1A")
	require.NoError(t, err)
	_, err = container.StandingService.ListByLeaguePrefix(ctx, "2023110A1A")
	require.NoError(t, err)

	endpoints := container.DebugEndpoints()
	require.Len(t, endpoints, 2)
	bodies := map[string]string{}
	for _, endpoint := range endpoints {
		rec := httptest.NewRecorder()
		endpoint.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, endpoint.Path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		bodies[endpoint.Path] = rec.Body.String()
	}
	assert.Contains(t, bodies["/debug/facr/breaker"], `"state": "closed"`)
	assert.Contains(t, bodies["/debug/facr/cache"], `"hits": 1`)
	assert.Contains(t, bodies["/debug/facr/cache"], `"misses": 1`)

	cfg := testConfig(t)
	cfg.CacheEnabled = false
	uncached, err := NewContainer(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = uncached.Close() })
	assert.Nil(t, uncached.Cache)
	assert.Len(t, uncached.DebugEndpoints(), 1)
}

func TestNewContainer_WebIngestionSkipsLocalFiles(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.FACRBaseURL = srv.URL
	ctx := context.Background()
	container, err := NewContainer(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	local := filepath.Join(t.TempDir(), "saved.html")
	require.NoError(t, os.WriteFile(local, []byte("<html></html>"), 0o600))

	report, err := container.IngestionService.IngestBatch(ctx, []string{local})
	require.NoError(t, err)
	require.Len(t, report.Documents, 1)
	assert.Equal(t, match.StageParse, report.Documents[0].Stage, "the CLI reads saved pages from disk")

	report, err = container.WebIngestionService.IngestBatch(ctx, []string{local, "saved.html"})
	require.NoError(t, err)
	require.Len(t, report.Documents, 2)
	for _, doc := range report.Documents {
		assert.Equal(t, match.StageFetch, doc.Stage, doc.Source)
	}
	assert.Equal(t, []string{local}, requested, "absolute paths are requested from the website, not read from disk")
}

func TestNewContainer_WithoutMigrations(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBAutoMigrate = false
	cfg.CacheEnabled = false

	container, err := NewContainer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	_, err = container.StandingService.ListByLeaguePrefix(context.Background(), "2023110A1A")
	assert.Error(t, err, "tables do not exist before migrating")
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig(t)
	container, err := NewContainer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv, err := NewHTTPServer(cfg, container, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ":0", srv.Addr)

	cfg.HTTPAddr = ""
	_, err = NewHTTPServer(cfg, container, logging.NewNop())
	assert.Error(t, err)

	_, err = NewHTTPServer(cfg, nil, logging.NewNop())
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTPAddr = "127.0.0.1:0"
	container, err := NewContainer(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv, err := NewHTTPServer(cfg, container, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, Serve(ctx, srv, logging.NewNop()))
}
