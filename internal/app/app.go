package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/facr-ledger/external/facr"
	"github.com/riskibarqy/facr-ledger/internal/config"
	"github.com/riskibarqy/facr-ledger/internal/domain/leaguestanding"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/domain/topscorers"
	cacherepo "github.com/riskibarqy/facr-ledger/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/facr-ledger/internal/infrastructure/repository/sqldb"
	"github.com/riskibarqy/facr-ledger/internal/interfaces/httpapi"
	"github.com/riskibarqy/facr-ledger/internal/observability"
	basecache "github.com/riskibarqy/facr-ledger/internal/platform/cache"
	idgen "github.com/riskibarqy/facr-ledger/internal/platform/id"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

// Container holds the services shared by the CLI and the HTTP API. Close
// releases the database handle.
//
// Site is the shared federation client; both ingestion services go through
// its breaker. IngestionService reads web and local sources and backs the CLI.
// WebIngestionService only fetches from the federation website and backs
// the HTTP ingestion endpoint. Cache is nil when CACHE_ENABLED is off.
type Container struct {
	DB                  *sqlx.DB
	Site                *facr.Client
	Cache               *basecache.Store
	IngestionService    *usecase.IngestionService
	WebIngestionService *usecase.IngestionService
	StandingService     *usecase.StandingService
	TopScorerService    *usecase.TopScorerService
}

func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := facr.NewClient(facr.ClientConfig{
		BaseURL:    cfg.FACRBaseURL,
		UserAgent:  cfg.FACRUserAgent,
		Timeout:    cfg.FACRTimeout,
		MaxRetries: cfg.FACRMaxRetries,
		Logger:     logger,
		CircuitBreaker: facr.BreakerConfig{
			Enabled:          cfg.FACRCircuitEnabled,
			FailureThreshold: cfg.FACRCircuitFailureCount,
			OpenTimeout:      cfg.FACRCircuitOpenTimeout,
			HalfOpenProbes:   cfg.FACRCircuitHalfOpenProbes,
		},
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build facr client: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	var (
		standingRepo leaguestanding.Repository = sqldb.NewLeagueStandingRepository(db)
		scorerRepo   topscorers.Repository     = sqldb.NewTopScorersRepository(db)
		teamRepo     team.Repository           = sqldb.NewTeamRepository(db)
		invalidator  *cacherepo.Invalidator
		store        *basecache.Store
	)
	if cfg.CacheEnabled {
		store = basecache.NewStore(cfg.CacheTTL)
		standingRepo = cacherepo.NewLeagueStandingRepository(standingRepo, store)
		scorerRepo = cacherepo.NewTopScorersRepository(scorerRepo, store)
		teamRepo = cacherepo.NewTeamRepository(teamRepo, store)
		invalidator = cacherepo.NewInvalidator(store, logger)
	}

	matchRepo := sqldb.NewMatchRepository(db)
	newIngestion := func(fetcher *facr.SourceFetcher) *usecase.IngestionService {
		return usecase.NewIngestionService(
			fetcher,
			facr.NewParser(),
			matchRepo,
			idgen.NewUUIDGenerator(),
			invalidator,
			cfg.IngestFetchWorkers,
			logger,
		)
	}

	return &Container{
		DB:                  db,
		Site:                client,
		Cache:               store,
		IngestionService:    newIngestion(facr.NewSourceFetcher(client, facr.FileFetcher{Root: workDir})),
		WebIngestionService: newIngestion(facr.NewWebFetcher(client)),
		StandingService:     usecase.NewStandingService(standingRepo),
		TopScorerService:    usecase.NewTopScorerService(scorerRepo, teamRepo),
	}, nil
}

// DebugEndpoints exposes the federation breaker and the read cache on the
// pprof listener.
func (c *Container) DebugEndpoints() []observability.DebugEndpoint {
	endpoints := []observability.DebugEndpoint{
		observability.JSONEndpoint("/debug/facr/breaker", func() any { return c.Site.BreakerStats() }),
	}
	if c.Cache != nil {
		endpoints = append(endpoints, observability.JSONEndpoint("/debug/facr/cache", func() any { return c.Cache.Stats() }))
	}
	return endpoints
}

func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func NewHTTPServer(cfg config.Config, container *Container, logger *logging.Logger) (*http.Server, error) {
	if container == nil {
		return nil, fmt.Errorf("app container cannot be nil")
	}

	handler := httpapi.NewHandler(
		container.StandingService,
		container.TopScorerService,
		container.WebIngestionService,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
