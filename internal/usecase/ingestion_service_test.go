package usecase

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/riskibarqy/facr-ledger/external/facr"
	"github.com/riskibarqy/facr-ledger/external/facr/facrtest"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	"github.com/riskibarqy/facr-ledger/internal/infrastructure/repository/sqldb"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
	"github.com/riskibarqy/facr-ledger/internal/platform/migration"
)

func openIngestionDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "games.db")
	require.NoError(t, migration.Up(migration.DriverSQLite, dsn))

	db, err := sqlx.Open("sqlite", dsn+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type stubFetcher struct {
	docs   map[string][]byte
	errs   map[string]error
	delays map[string]time.Duration
	calls  atomic.Int32
	// fetched runs after a successful fetch, before the document is returned.
	fetched func(source string)
}

func (f *stubFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.calls.Add(1)
	if d := f.delays[source]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[source]; err != nil {
		return nil, err
	}
	raw, ok := f.docs[source]
	if !ok {
		return nil, errors.New("no such document")
	}
	if f.fetched != nil {
		f.fetched(source)
	}
	return raw, nil
}

type stubInvalidator struct {
	calls   atomic.Int32
	mu      sync.Mutex
	changes []match.Change
}

func (s *stubInvalidator) InvalidateMatchData(_ context.Context, changes []match.Change) {
	s.calls.Add(1)
	s.mu.Lock()
	s.changes = append(s.changes, changes...)
	s.mu.Unlock()
}

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) { return "run-1", nil }

type panickingParser struct{}

func (panickingParser) Parse([]byte, string) (match.Record, error) {
	panic("nil node")
}

func secondRoundReport() facrtest.Report {
	r := facrtest.Default()
	r.Home, r.Guest = "FK Baník Malá", "TJ Start Dolní"
	r.Kickoff = "9. 9. 2023 17:00"
	r.Round = "2. kolo"
	r.MatchNumber = "2023110A1A0201"
	r.Halftime, r.Final = "0:0", "1:0"
	r.HomeSquad = []string{"Anna Veselá"}
	r.GuestSquad = []string{"Marie Horká"}
	r.Goals = []facrtest.Goal{{Scorer: "Anna Veselá", Home: true}}
	return r
}

func brokenReport() facrtest.Report {
	r := facrtest.Default()
	r.Home, r.Guest = "SK Nedohraný", "FK Chybějící"
	r.MatchNumber = ""
	r.HomeSquad = []string{"Olga Prázdná"}
	r.GuestSquad = nil
	r.Goals = nil
	return r
}

func newTestIngestion(t *testing.T, fetcher *stubFetcher, workers int) (*IngestionService, *sqlx.DB, *stubInvalidator) {
	t.Helper()
	db := openIngestionDB(t)
	inv := &stubInvalidator{}
	svc := NewIngestionService(fetcher, facr.NewParser(), sqldb.NewMatchRepository(db), fixedIDs{}, inv, workers, nil)
	return svc, db, inv
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func TestIngestBatchContinuesPastFailedDocument(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string][]byte{
		"doc-1.html": facrtest.Default().HTML(),
		"doc-2.html": brokenReport().HTML(),
		"doc-3.html": secondRoundReport().HTML(),
	}}
	svc, db, inv := newTestIngestion(t, fetcher, 1)

	report, err := svc.IngestBatch(context.Background(), []string{"doc-1.html", "doc-2.html", "doc-3.html"})
	require.NoError(t, err)

	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, 3, report.Total)
	require.Equal(t, 2, report.Committed)
	require.Equal(t, 1, report.Failed)
	require.True(t, report.HasFailures())

	require.Len(t, report.Documents, 3)
	require.Equal(t, DocumentCommitted, report.Documents[0].Status)
	require.Equal(t, "2023110A1A0101", report.Documents[0].FACRGameID)
	require.Equal(t, 5, report.Documents[0].Players)
	require.Equal(t, 3, report.Documents[0].Goals)

	failed := report.Documents[1]
	require.Equal(t, "doc-2.html", failed.Source)
	require.Equal(t, DocumentFailed, failed.Status)
	require.Equal(t, match.StageParse, failed.Stage)
	require.True(t, errors.Is(failed.Err, match.ErrParse))
	require.NotEmpty(t, failed.Error)

	require.Equal(t, DocumentCommitted, report.Documents[2].Status)

	require.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM games"))
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM teams WHERE team_id IN (?, ?)", "sk_nedohrany", "fk_chybejici"))
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM players WHERE player_id = ?", "olga_prazdna"))
	require.Equal(t, int32(1), inv.calls.Load())
	require.Equal(t, []match.Change{
		{FACRGameID: "2023110A1A0101", TeamIDs: []string{"tj_sokol_lisek", "fc_zdar"}},
		{FACRGameID: "2023110A1A0201", TeamIDs: []string{"fk_banik_mala", "tj_start_dolni"}},
	}, inv.changes, "only committed documents are invalidated")
}

func TestIngestBatchIsIdempotentAcrossRuns(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string][]byte{
		"a.html": facrtest.Default().HTML(),
		"b.html": secondRoundReport().HTML(),
	}}
	svc, db, _ := newTestIngestion(t, fetcher, 2)
	sources := []string{"a.html", "b.html", "a.html"}

	for run := 0; run < 2; run++ {
		report, err := svc.IngestBatch(context.Background(), sources)
		require.NoError(t, err)
		require.Equal(t, 3, report.Committed)
	}

	require.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM games"))
	require.Equal(t, 7, countRows(t, db, "SELECT COUNT(*) FROM goals"))
	require.Equal(t, 4, countRows(t, db, "SELECT COUNT(*) FROM teams"))
}

func TestIngestBatchKeepsManifestOrderWithParallelFetch(t *testing.T) {
	fetcher := &stubFetcher{
		docs: map[string][]byte{
			"slow.html": facrtest.Default().HTML(),
			"fast.html": secondRoundReport().HTML(),
		},
		delays: map[string]time.Duration{"slow.html": 50 * time.Millisecond},
	}
	svc, _, _ := newTestIngestion(t, fetcher, 4)

	report, err := svc.IngestBatch(context.Background(), []string{"slow.html", "fast.html"})
	require.NoError(t, err)
	require.Equal(t, "slow.html", report.Documents[0].Source)
	require.Equal(t, "fast.html", report.Documents[1].Source)
	require.Equal(t, 2, report.Committed)
}

func TestIngestBatchReportsFetchFailures(t *testing.T) {
	fetcher := &stubFetcher{
		docs: map[string][]byte{"ok.html": facrtest.Default().HTML()},
		errs: map[string]error{"down.html": errors.New("status=503")},
	}
	svc, _, _ := newTestIngestion(t, fetcher, 1)

	report, err := svc.IngestBatch(context.Background(), []string{"down.html", "ok.html"})
	require.NoError(t, err)
	require.Equal(t, match.StageFetch, report.Documents[0].Stage)
	var fetchErr *match.FetchError
	require.True(t, errors.As(report.Documents[0].Err, &fetchErr))
	require.Equal(t, "down.html", fetchErr.Source)
	require.Equal(t, DocumentCommitted, report.Documents[1].Status)
}

func TestIngestBatchStopsOnCancellation(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string][]byte{"a.html": facrtest.Default().HTML()}}
	svc, db, inv := newTestIngestion(t, fetcher, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.IngestBatch(ctx, []string{"a.html", "a.html"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Skipped)
	require.Equal(t, 0, report.Committed)
	require.Equal(t, DocumentSkipped, report.Documents[0].Status)
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM games"))
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestIngestBatchSkipsDocumentFetchedAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &stubFetcher{
		docs:    map[string][]byte{"a.html": facrtest.Default().HTML()},
		fetched: func(string) { cancel() },
	}
	svc, db, inv := newTestIngestion(t, fetcher, 1)

	report, err := svc.IngestBatch(ctx, []string{"a.html"})
	require.NoError(t, err)
	require.Len(t, report.Documents, 1)
	require.Equal(t, DocumentSkipped, report.Documents[0].Status)
	require.Empty(t, report.Documents[0].Stage)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, report.Failed)
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM games"))
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestIngestBatchDurationIncludesFetch(t *testing.T) {
	fetcher := &stubFetcher{
		docs:   map[string][]byte{"slow.html": facrtest.Default().HTML()},
		delays: map[string]time.Duration{"slow.html": 40 * time.Millisecond},
	}
	svc, _, _ := newTestIngestion(t, fetcher, 1)

	report, err := svc.IngestBatch(context.Background(), []string{"slow.html"})
	require.NoError(t, err)
	require.Equal(t, DocumentCommitted, report.Documents[0].Status)
	require.GreaterOrEqual(t, report.Documents[0].DurationMs, int64(40))
}

func TestIngestBatchEmpty(t *testing.T) {
	svc, _, inv := newTestIngestion(t, &stubFetcher{}, 1)

	report, err := svc.IngestBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, report.Total)
	require.Empty(t, report.Documents)
	require.False(t, report.HasFailures())
	require.Equal(t, int32(0), inv.calls.Load())
}

func TestIngestDocumentRecoversParserPanic(t *testing.T) {
	db := openIngestionDB(t)
	svc := NewIngestionService(&stubFetcher{}, panickingParser{}, sqldb.NewMatchRepository(db), fixedIDs{}, nil, 1, nil)

	result := svc.IngestDocument(context.Background(), "weird.html", []byte("<html>"))
	require.Equal(t, DocumentFailed, result.Status)
	require.Equal(t, match.StageParse, result.Stage)
	require.Contains(t, result.Error, "parser panicked")
}

func TestIngestDocumentInvalidatesOnlyOnCommit(t *testing.T) {
	svc, _, inv := newTestIngestion(t, &stubFetcher{}, 1)
	ctx := context.Background()

	failed := svc.IngestDocument(ctx, "broken.html", brokenReport().HTML())
	require.Equal(t, DocumentFailed, failed.Status)
	require.Equal(t, int32(0), inv.calls.Load())

	ok := svc.IngestDocument(ctx, "ok.html", facrtest.Default().HTML())
	require.Equal(t, DocumentCommitted, ok.Status, ok.Error)
	require.Equal(t, "tj_sokol_lisek_fc_zdar_2023-09-02_1. kolo", ok.GameID)
	require.Equal(t, "tj_sokol_lisek", ok.HomeTeamID)
	require.Equal(t, "fc_zdar", ok.GuestTeamID)
	require.Equal(t, int32(1), inv.calls.Load())
	require.Equal(t, []match.Change{{FACRGameID: "2023110A1A0101", TeamIDs: []string{"tj_sokol_lisek", "fc_zdar"}}}, inv.changes)
}

type failingReconciler struct{}

func (failingReconciler) Reconcile(context.Context, match.Record) error {
	return errors.New("disk full")
}

func TestIngestDocumentWrapsReconcileErrors(t *testing.T) {
	svc := NewIngestionService(&stubFetcher{}, facr.NewParser(), failingReconciler{}, fixedIDs{}, nil, 1, nil)

	result := svc.IngestDocument(context.Background(), "ok.html", facrtest.Default().HTML())
	require.Equal(t, DocumentFailed, result.Status)
	require.Equal(t, match.StageReconcile, result.Stage)
	require.Equal(t, "2023110A1A0101", result.FACRGameID)
	var reconcileErr *match.ReconcileError
	require.True(t, errors.As(result.Err, &reconcileErr))
	require.Equal(t, "ok.html", reconcileErr.Source)
}

type loggingFetcher struct {
	logger *logging.Logger
	docs   map[string][]byte
}

func (f loggingFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.logger.WarnContext(ctx, "facr request failed", "attempt", 1)
	return f.docs[source], nil
}

func TestIngestBatchScopesFetchLogsToRunAndSource(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONWriter(&buf, logging.LevelInfo)
	db := openIngestionDB(t)
	fetcher := loggingFetcher{logger: logger, docs: map[string][]byte{"doc-1.html": facrtest.Default().HTML()}}
	svc := NewIngestionService(fetcher, facr.NewParser(), sqldb.NewMatchRepository(db), fixedIDs{}, nil, 1, logger)

	report, err := svc.IngestBatch(context.Background(), []string{"doc-1.html"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Committed)

	var fetchLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "facr request failed") {
			fetchLine = line
		}
	}
	require.Contains(t, fetchLine, `"run_id":"run-1"`)
	require.Contains(t, fetchLine, `"source":"doc-1.html"`)
	require.Contains(t, buf.String(), `"msg":"ingestion batch finished"`)
}
