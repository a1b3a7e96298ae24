package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	idgen "github.com/riskibarqy/facr-ledger/internal/platform/id"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

type DocumentStatus string

const (
	DocumentCommitted DocumentStatus = "committed"
	DocumentFailed    DocumentStatus = "failed"
	// DocumentSkipped marks documents never attempted because the batch was
	// cancelled first.
	DocumentSkipped DocumentStatus = "skipped"
)

// DocumentResult is the outcome of one source. Stage names the step that
// failed; Err keeps the typed error for callers, Error its message for
// serialization.
type DocumentResult struct {
	Source      string         `json:"source"`
	Status      DocumentStatus `json:"status"`
	Stage       string         `json:"stage,omitempty"`
	GameID      string         `json:"game_id,omitempty"`
	FACRGameID  string         `json:"facr_game_id,omitempty"`
	HomeTeamID  string         `json:"home_team_id,omitempty"`
	GuestTeamID string         `json:"guest_team_id,omitempty"`
	Players     int            `json:"players"`
	Goals       int            `json:"goals"`
	DurationMs  int64          `json:"duration_ms"`
	Error       string         `json:"error,omitempty"`
	Err         error          `json:"-"`
}

type BatchReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Total      int              `json:"total"`
	Committed  int              `json:"committed"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Documents  []DocumentResult `json:"documents"`
}

func (r BatchReport) HasFailures() bool {
	return r.Failed > 0 || r.Skipped > 0
}

type documentFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

type documentParser interface {
	Parse(raw []byte, source string) (match.Record, error)
}

type matchDataInvalidator interface {
	InvalidateMatchData(ctx context.Context, changes []match.Change)
}

type IngestionService struct {
	fetcher      documentFetcher
	parser       documentParser
	reconciler   match.Reconciler
	ids          idgen.Generator
	invalidator  matchDataInvalidator
	fetchWorkers int
	logger       *logging.Logger
}

func NewIngestionService(
	fetcher documentFetcher,
	parser documentParser,
	reconciler match.Reconciler,
	ids idgen.Generator,
	invalidator matchDataInvalidator,
	fetchWorkers int,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &IngestionService{
		fetcher:      fetcher,
		parser:       parser,
		reconciler:   reconciler,
		ids:          ids,
		invalidator:  invalidator,
		fetchWorkers: max(fetchWorkers, 1),
		logger:       logger,
	}
}

// IngestDocument parses and stores one raw document.
func (s *IngestionService) IngestDocument(ctx context.Context, source string, raw []byte) DocumentResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestDocument")
	defer span.End()

	result := s.ingest(ctx, source, raw)
	if result.Status == DocumentCommitted && s.invalidator != nil {
		s.invalidator.InvalidateMatchData(ctx, []match.Change{result.change()})
	}
	return result
}

type fetchResult struct {
	raw     []byte
	err     error
	elapsed time.Duration
}

// IngestBatch processes sources in order, one transaction per document. A
// failing document is recorded in the report and the batch moves on. Fetches
// may run ahead on the worker pool; reconciliation stays sequential. The
// returned error covers batch setup only.
func (s *IngestionService) IngestBatch(ctx context.Context, sources []string) (BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestBatch")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return BatchReport{}, fmt.Errorf("generate run id: %w", err)
	}
	report := BatchReport{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Total:     len(sources),
		Documents: make([]DocumentResult, 0, len(sources)),
	}
	span.SetAttributes(attribute.String("ingest.run_id", runID), attribute.Int("ingest.documents", len(sources)))
	ctx = logging.ContextWith(ctx, "run_id", runID)
	if len(sources) == 0 {
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	pool, err := ants.NewPool(s.fetchWorkers)
	if err != nil {
		return BatchReport{}, fmt.Errorf("create fetch worker pool: %w", err)
	}

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	fetched := make([]chan fetchResult, len(sources))
	for i := range fetched {
		fetched[i] = make(chan fetchResult, 1)
	}
	// Bounds how many raw documents wait in memory ahead of reconciliation.
	window := make(chan struct{}, 2*s.fetchWorkers)

	var tasks, feeder sync.WaitGroup
	feeder.Add(1)
	go func() {
		defer feeder.Done()
		for i, source := range sources {
			select {
			case window <- struct{}{}:
			case <-fetchCtx.Done():
				return
			}

			tasks.Add(1)
			if err := pool.Submit(func() {
				defer tasks.Done()
				start := time.Now()
				raw, err := s.fetcher.Fetch(logging.ContextWith(fetchCtx, "source", source), source)
				fetched[i] <- fetchResult{raw: raw, err: err, elapsed: time.Since(start)}
			}); err != nil {
				tasks.Done()
				fetched[i] <- fetchResult{err: fmt.Errorf("submit fetch task: %w", err)}
			}
		}
	}()
	defer func() {
		cancelFetch()
		feeder.Wait()
		tasks.Wait()
		pool.Release()
	}()

	for i, source := range sources {
		if ctx.Err() != nil {
			report.Documents = append(report.Documents, skippedResult(source, ctx.Err()))
			continue
		}

		var res fetchResult
		select {
		case res = <-fetched[i]:
		case <-ctx.Done():
			report.Documents = append(report.Documents, skippedResult(source, ctx.Err()))
			continue
		}
		<-window
		// A document fetched just before cancellation is not started either.
		if ctx.Err() != nil {
			report.Documents = append(report.Documents, skippedResult(source, ctx.Err()))
			continue
		}

		start := time.Now().Add(-res.elapsed)
		var result DocumentResult
		if res.err != nil {
			result = failedResult(source, &match.FetchError{Source: source, Err: res.err})
		} else {
			result = s.ingest(ctx, source, res.raw)
		}
		result.DurationMs = time.Since(start).Milliseconds()

		if result.Status == DocumentCommitted {
			s.logger.InfoContext(ctx, "match report stored",
				"source", source,
				"game_id", result.GameID,
				"players", result.Players,
				"goals", result.Goals,
			)
		} else {
			s.logger.WarnContext(ctx, "match report failed",
				"source", source,
				"stage", result.Stage,
				"error", result.Err,
			)
		}
		report.Documents = append(report.Documents, result)
	}

	var changes []match.Change
	for _, doc := range report.Documents {
		switch doc.Status {
		case DocumentCommitted:
			report.Committed++
			changes = append(changes, doc.change())
		case DocumentFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}
	report.FinishedAt = time.Now().UTC()

	if len(changes) > 0 && s.invalidator != nil {
		s.invalidator.InvalidateMatchData(ctx, changes)
	}
	s.logger.InfoContext(ctx, "ingestion batch finished",
		"total", report.Total,
		"committed", report.Committed,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (s *IngestionService) ingest(ctx context.Context, source string, raw []byte) DocumentResult {
	record, err := s.parse(source, raw)
	if err != nil {
		return failedResult(source, err)
	}

	if !record.ScoreMatchesGoals() {
		s.logger.WarnContext(ctx, "match report goals do not add up to the final score",
			"source", source,
			"game_id", record.Game.ID,
			"final_score", record.Game.FinalScore,
		)
	}

	if err := s.reconciler.Reconcile(ctx, record); err != nil {
		if !errors.Is(err, match.ErrReconcile) {
			err = &match.ReconcileError{Source: source, GameID: record.Game.ID, Err: err}
		}
		result := failedResult(source, err)
		result.GameID = record.Game.ID
		result.FACRGameID = record.Game.FACRGameID
		return result
	}

	return DocumentResult{
		Source:      source,
		Status:      DocumentCommitted,
		GameID:      record.Game.ID,
		FACRGameID:  record.Game.FACRGameID,
		HomeTeamID:  record.Home().ID,
		GuestTeamID: record.Guest().ID,
		Players:     len(record.Players),
		Goals:       record.GoalsFor(record.Home().ID) + record.GoalsFor(record.Guest().ID),
	}
}

func (r DocumentResult) change() match.Change {
	return match.Change{FACRGameID: r.FACRGameID, TeamIDs: []string{r.HomeTeamID, r.GuestTeamID}}
}

// parse isolates parser panics on malformed markup to the document.
func (s *IngestionService) parse(source string, raw []byte) (record match.Record, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		record, err = s.parser.Parse(raw, source)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return match.Record{}, match.NewParseError(source, "parser panicked", recovered.AsError())
	}
	if err != nil && !errors.Is(err, match.ErrParse) {
		err = match.NewParseError(source, "parse document", err)
	}
	return record, err
}

func failedResult(source string, err error) DocumentResult {
	return DocumentResult{
		Source: source,
		Status: DocumentFailed,
		Stage:  match.Stage(err),
		Error:  err.Error(),
		Err:    err,
	}
}

func skippedResult(source string, err error) DocumentResult {
	return DocumentResult{
		Source: source,
		Status: DocumentSkipped,
		Error:  err.Error(),
		Err:    err,
	}
}
