package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/facr-ledger/external/facr/facrtest"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type workspace struct {
	dbFile   string
	manifest string
}

// newWorkspace writes a valid report, a report without match number and a
// manifest listing both.
func newWorkspace(t *testing.T) workspace {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("CACHE_ENABLED", "false")

	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.html")
	require.NoError(t, os.WriteFile(valid, facrtest.Default().HTML(), 0o644))

	brokenReport := facrtest.Default()
	brokenReport.MatchNumber = ""
	broken := filepath.Join(dir, "broken.html")
	require.NoError(t, os.WriteFile(broken, brokenReport.HTML(), 0o644))

	manifest := filepath.Join(dir, "games.txt")
	content := strings.Join([]string{"# first round", valid, "", broken}, "\n")
	require.NoError(t, os.WriteFile(manifest, []byte(content), 0o644))

	return workspace{
		dbFile:   filepath.Join(dir, "games_database.db"),
		manifest: manifest,
	}
}

func TestIngestCommand_JSONReport(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "ingest", "--db-file", ws.dbFile, "--manifest", ws.manifest, "--json")
	require.NoError(t, err)

	var report usecase.BatchReport
	require.NoError(t, sonic.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Committed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Documents, 2)
	assert.Equal(t, usecase.DocumentCommitted, report.Documents[0].Status)
	assert.Equal(t, "parse", report.Documents[1].Stage)
}

func TestIngestCommand_Strict(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "ingest", "--db-file", ws.dbFile, "--manifest", ws.manifest, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents")
	assert.Contains(t, out, "committed")
}

func TestIngestCommand_RequiresSources(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "ingest", "--db-file", ws.dbFile)
	require.Error(t, err)
}

func TestQueryCommands(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "ingest", "--db-file", ws.dbFile, "--games-url", ws.manifest)
	require.NoError(t, err)

	t.Run("standings", func(t *testing.T) {
		out, err := execute(t, "standings", "--db-file", ws.dbFile, "--league-id", "2023110A1A")
		require.NoError(t, err)
		assert.Contains(t, out, "TJ Sokol Lísek")
		assert.Contains(t, out, "FC Žďár")
		assert.Less(t, strings.Index(out, "TJ Sokol Lísek"), strings.Index(out, "FC Žďár"))
	})

	t.Run("standings requires league", func(t *testing.T) {
		_, err := execute(t, "standings", "--db-file", ws.dbFile)
		require.Error(t, err)
	})

	t.Run("top scorers with limit", func(t *testing.T) {
		out, err := execute(t, "topscorers", "--db-file", ws.dbFile, "--league-id", "2023110A1A", "--limit", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Eva Nováková")
		assert.NotContains(t, out, "Lucie Černá")
	})

	t.Run("top scorers of unknown team", func(t *testing.T) {
		_, err := execute(t, "topscorers", "--db-file", ws.dbFile, "--league-id", "2023110A1A", "--team-id", "nobody")
		require.ErrorIs(t, err, usecase.ErrNotFound)
	})
}

func TestMigrateCommands(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "migrate", "version", "--db-file", ws.dbFile)
	require.NoError(t, err)
	assert.Contains(t, out, "version: none")

	out, err = execute(t, "migrate", "up", "--db-file", ws.dbFile)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = execute(t, "migrate", "version", "--db-file", ws.dbFile)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1772355600")
	assert.Contains(t, out, "dirty: false")
}
