package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serveradapter "github.com/evanschultz/ngoboard/internal/adapters/server"
	"github.com/evanschultz/ngoboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/config"
	"github.com/evanschultz/ngoboard/internal/tui"
)

// TestMain pins dev mode off so tests never write workspace log files.
func TestMain(m *testing.M) {
	_ = os.Setenv("NGOBOARD_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram records the model it was built with.
type fakeProgram struct {
	model  tea.Model
	runErr error
	sent   []tea.Msg
}

func (f *fakeProgram) Run() (tea.Model, error) { return f.model, f.runErr }

func (f *fakeProgram) Send(msg tea.Msg) { f.sent = append(f.sent, msg) }

// testPaths returns isolated db and config paths.
func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "ngoboard.db"), filepath.Join(dir, "config.toml")
}

// runCLI runs one command line and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, io.Discard)
	return out.String(), err
}

// TestRunVersion verifies the version flag.
func TestRunVersion(t *testing.T) {
	out, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

// TestRunPaths verifies path resolution output honors --app and --dev.
func TestRunPaths(t *testing.T) {
	out, err := runCLI(t, "--app", "shelter", "--dev", "paths")
	require.NoError(t, err)
	assert.Contains(t, out, "app: shelter")
	assert.Contains(t, out, "dev_mode: true")
	assert.Contains(t, out, "shelter-dev")
}

// TestRunStartsProgram verifies the bare command builds a board model and runs it.
func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var fake *fakeProgram
	programFactory = func(m tea.Model) program {
		fake = &fakeProgram{model: m}
		return fake
	}

	dbPath, cfgPath := testPaths(t)
	_, err := runCLI(t, "--db", dbPath, "--config", cfgPath)
	require.NoError(t, err)
	require.NotNil(t, fake)
	assert.IsType(t, tui.Model{}, fake.model)

	_, statErr := os.Stat(dbPath)
	assert.NoError(t, statErr, "expected sqlite file to be created")
}

// TestRunProgramErrorPropagates verifies TUI failures surface.
func TestRunProgramErrorPropagates(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(m tea.Model) program {
		return &fakeProgram{model: m, runErr: assert.AnError}
	}

	dbPath, cfgPath := testPaths(t)
	_, err := runCLI(t, "--db", dbPath, "--config", cfgPath)
	require.ErrorIs(t, err, assert.AnError)
}

// TestRunSeedAndBoards verifies seeding and board listing.
func TestRunSeedAndBoards(t *testing.T) {
	dbPath, cfgPath := testPaths(t)

	out, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 11 tasks")

	out, err = runCLI(t, "--db", dbPath, "--config", cfgPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 0 tasks")

	out, err = runCLI(t, "--db", dbPath, "--config", cfgPath, "boards")
	require.NoError(t, err)
	assert.Contains(t, out, "recruitment\tRecruitment\trecruitment")
	assert.Contains(t, out, "recruitment-applied\tApplied\t2")
	assert.Contains(t, out, "tasks-progress\tIn Progress\t1/5")
}

// TestRunMove verifies the move command applies column rules.
func TestRunMove(t *testing.T) {
	dbPath, cfgPath := testPaths(t)
	_, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "seed")
	require.NoError(t, err)

	active := firstTaskIn(t, dbPath, "volunteers", "volunteers-active")

	out, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "move", active, "--to", "volunteers-prospect", "--index", "0")
	require.NoError(t, err)
	assert.Contains(t, out, `moved "Driver roster: P. Silva" to prospect at 0`)

	_, err = runCLI(t, "--db", dbPath, "--config", cfgPath, "move", active, "--to", "volunteers-alumni")
	require.ErrorIs(t, err, app.ErrColumnLocked)

	_, err = runCLI(t, "--db", dbPath, "--config", cfgPath, "move", active)
	require.Error(t, err)
}

// firstTaskIn loads one board directly and returns the first task id of a column.
func firstTaskIn(t *testing.T, dbPath, boardID, columnID string) string {
	t.Helper()
	repo, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{})
	view, err := svc.LoadBoard(context.Background(), boardID)
	require.NoError(t, err)
	col, ok := view.Column(columnID)
	require.True(t, ok)
	require.NotEmpty(t, col.Tasks)
	return col.Tasks[0].ID
}

// TestRunServeUsesConfig verifies serve wiring and the bind override.
func TestRunServeUsesConfig(t *testing.T) {
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })

	var (
		gotCfg  serveradapter.Config
		gotDeps serveradapter.Dependencies
	)
	serveCommandRunner = func(_ context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg, gotDeps = cfg, deps
		return nil
	}

	dbPath, cfgPath := testPaths(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("[server]\napi_endpoint = \"/api/v2\"\n"), 0o644))
	_, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "serve", "--bind", "127.0.0.1:9999")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", gotCfg.HTTPBind)
	assert.Equal(t, "/api/v2", gotCfg.APIEndpoint)
	assert.Equal(t, "/mcp", gotCfg.MCPEndpoint)
	assert.NotNil(t, gotDeps.Boards)
	assert.NotNil(t, gotDeps.Logger)
	require.NotNil(t, gotDeps.Ready)
	assert.Error(t, gotDeps.Ready(context.Background()), "storage is closed once the command returns")
}

// TestRunRejectsInvalidConfig verifies config validation errors stop startup.
func TestRunRejectsInvalidConfig(t *testing.T) {
	dbPath, cfgPath := testPaths(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("[drag]\nactivation_distance = -1\n"), 0o644))
	_, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "boards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drag.activation_distance")
}

// TestRunUnknownCommand verifies unknown subcommands fail.
func TestRunUnknownCommand(t *testing.T) {
	_, err := runCLI(t, "launch")
	require.Error(t, err)
}

// TestRuntimeLoggerDevFile verifies the logfmt dev sink.
func TestRuntimeLoggerDevFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "ngoboard", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, func() time.Time { return now })
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "ngoboard-20260302.log"), logger.DevLogPath())
	logger.SetConsoleEnabled(false)
	logger.Info("drag committed", "task", "t1")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logger.DevLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "drag committed")
	assert.Contains(t, string(content), "task=t1")
	assert.Empty(t, console.String())
}

// TestRuntimeLoggerRejectsLevel verifies level parsing.
func TestRuntimeLoggerRejectsLevel(t *testing.T) {
	_, err := newRuntimeLogger(io.Discard, "ngoboard", false, config.LoggingConfig{Level: "chatty"}, nil)
	require.Error(t, err)
}

// TestSanitizeLogFileStem verifies file-name cleanup.
func TestSanitizeLogFileStem(t *testing.T) {
	assert.Equal(t, "food-bank", sanitizeLogFileStem(" food bank "))
	assert.Equal(t, "a-b", sanitizeLogFileStem("a/b"))
	assert.Equal(t, "ngoboard", sanitizeLogFileStem("//"))
}

// TestWorkspaceRootFrom verifies go.mod detection.
func TestWorkspaceRootFrom(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))
	assert.Equal(t, root, workspaceRootFrom(nested))
	assert.True(t, strings.HasPrefix(workspaceRootFrom(nested), root))
}

// TestRunColors verifies the column color preview lists configured columns.
func TestRunColors(t *testing.T) {
	dbPath, cfgPath := testPaths(t)
	out, err := runCLI(t, "--db", dbPath, "--config", cfgPath, "colors", "--grid")
	require.NoError(t, err)
	assert.Contains(t, out, "Recruitment")
	assert.Contains(t, out, "Interview")
	assert.Contains(t, out, "locked")
	assert.Contains(t, out, "Grayscale (232-255):")
}

// TestContrastColor verifies swatch text contrast.
func TestContrastColor(t *testing.T) {
	assert.Equal(t, "15", string(contrastColor(0)))
	assert.Equal(t, "0", string(contrastColor(7)))
	assert.Equal(t, "0", string(contrastColor(250)))
	assert.Equal(t, "default", swatch(""))
}
