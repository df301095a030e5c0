package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	serveradapter "github.com/evanschultz/ngoboard/internal/adapters/server"
	servercommon "github.com/evanschultz/ngoboard/internal/adapters/server/common"
	"github.com/evanschultz/ngoboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/config"
	"github.com/evanschultz/ngoboard/internal/domain"
	"github.com/evanschultz/ngoboard/internal/platform"
	"github.com/evanschultz/ngoboard/internal/tui"
	"github.com/evanschultz/ngoboard/internal/watcher"
)

// version is set at build time via ldflags.
var version = "dev"

// program is the slice of *tea.Program the tui command drives.
type program interface {
	Run() (tea.Model, error)
	Send(tea.Msg)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with fang styling for help and errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand builds the command tree. The bare command opens the board TUI.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := &rootOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("NGOBOARD_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("NGOBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "ngoboard",
		Short:         "Drag-and-drop Kanban boards for tasks, recruitment, and volunteers",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "tui", stderr, runTUI)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newBoardsCommand(opts, stdout, stderr),
		newSeedCommand(opts, stdout, stderr),
		newMoveCommand(opts, stdout, stderr),
		newServeCommand(opts, stderr),
		newColorsCommand(opts, stdout),
	)
	return root
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

func newBoardsCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards with per-column task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "boards", stderr, func(ctx context.Context, rt *runtimeEnv) error {
				boards, err := rt.svc.EnsureBoards(ctx)
				if err != nil {
					return fmt.Errorf("ensure boards: %w", err)
				}
				for _, b := range boards {
					view, err := rt.svc.LoadBoard(ctx, b.ID)
					if err != nil {
						return fmt.Errorf("load board %q: %w", b.ID, err)
					}
					_, _ = fmt.Fprintf(stdout, "%s\t%s\t%s\n", b.ID, b.Name, b.Kind)
					for _, col := range view.Columns {
						_, _ = fmt.Fprintf(stdout, "  %s\t%s\t%s\n", col.Column.ID, col.Column.Title, columnCount(col))
					}
				}
				return nil
			})
		},
	}
}

// columnCount renders "n" or "n/limit".
func columnCount(col app.ColumnView) string {
	if col.Column.WIPLimit > 0 {
		return fmt.Sprintf("%d/%d", len(col.Tasks), col.Column.WIPLimit)
	}
	return strconv.Itoa(len(col.Tasks))
}

func newSeedCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the configured boards and fill empty ones with demo tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "seed", stderr, func(ctx context.Context, rt *runtimeEnv) error {
				n, err := rt.svc.SeedDemo(ctx)
				if err != nil {
					return fmt.Errorf("seed demo tasks: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "seeded %d tasks\n", n)
				return nil
			})
		},
	}
}

func newMoveCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		toColumn string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to a column position, applying WIP and lock rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(toColumn) == "" {
				return errors.New("--to is required")
			}
			return withRuntime(cmd.Context(), opts, "move", stderr, func(ctx context.Context, rt *runtimeEnv) error {
				task, err := rt.svc.MoveTask(ctx, app.MoveTaskInput{
					TaskID:     args[0],
					ToColumnID: toColumn,
					Index:      index,
					Actor:      domain.ActorTypeUser,
				})
				if err != nil {
					return fmt.Errorf("move task %q: %w", args[0], err)
				}
				_, _ = fmt.Fprintf(stdout, "moved %q to %s at %d\n", task.Title, task.Status, task.Position)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&toColumn, "to", "", "destination column id")
	cmd.Flags().IntVar(&index, "index", 0, "destination index with the task removed")
	return cmd
}

func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board REST API and MCP tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "serve", stderr, func(ctx context.Context, rt *runtimeEnv) error {
				if _, err := rt.svc.EnsureBoards(ctx); err != nil {
					return fmt.Errorf("ensure boards: %w", err)
				}
				serveCfg := serveradapter.Config{
					HTTPBind:      rt.cfg.Server.Bind,
					APIEndpoint:   rt.cfg.Server.APIEndpoint,
					MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
					ServerName:    opts.appName,
					ServerVersion: version,
				}
				if strings.TrimSpace(bind) != "" {
					serveCfg.HTTPBind = bind
				}
				rt.logger.Info("serve starting", "bind", serveCfg.HTTPBind, "api", serveCfg.APIEndpoint, "mcp", serveCfg.MCPEndpoint)
				return serveCommandRunner(ctx, serveCfg, serveradapter.Dependencies{
					Boards: servercommon.NewAppServiceAdapter(rt.svc),
					Ready:  rt.ping,
					Logger: rt.logger,
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "override server.bind")
	return cmd
}

// runtimeEnv is the resolved config, logging, and storage for one command run.
type runtimeEnv struct {
	cfg    config.Config
	logger *runtimeLogger
	svc    *app.Service
	ping   func(context.Context) error
}

// withRuntime resolves config, opens storage, runs fn, and tears everything down.
func withRuntime(ctx context.Context, opts *rootOptions, command string, stderr io.Writer, fn func(context.Context, *runtimeEnv) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, configPath, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// The board owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path)

	rt := &runtimeEnv{
		cfg:    cfg,
		logger: logger,
		svc:    app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{Boards: cfg.BoardTemplates()}),
		ping:   repo.Ping,
	}

	logger.Info("command flow start", "command", command)
	if err := fn(ctx, rt); err != nil {
		logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	logger.Info("command flow complete", "command", command)
	return nil
}

// resolveConfig applies flag, environment, and platform defaults, then loads the config file.
func resolveConfig(opts *rootOptions) (config.Config, string, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: opts.appName, DevMode: opts.devMode})
	if err != nil {
		return config.Config{}, "", err
	}

	configPath := opts.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("NGOBOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("NGOBOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return cfg, configPath, nil
}

// runTUI opens the board and reloads it whenever the database changes on disk.
func runTUI(ctx context.Context, rt *runtimeEnv) error {
	if _, err := rt.svc.EnsureBoards(ctx); err != nil {
		return fmt.Errorf("ensure boards: %w", err)
	}

	m := tui.NewModel(
		rt.svc,
		tui.WithDragConfig(tui.DragConfig{
			ActivationDistance: rt.cfg.Drag.ActivationDistance,
			FrameInterval:      rt.cfg.Drag.FrameInterval(),
			MaxDropDistance:    rt.cfg.Drag.MaxDropDistance,
		}),
		tui.WithNoticeTTL(rt.cfg.Drag.NoticeTTL()),
		tui.WithDefaultBoard(rt.cfg.Board.DefaultBoard),
		tui.WithWIPWarnings(rt.cfg.Board.ShowWIPWarnings),
		tui.WithLogger(rt.logger),
	)
	p := programFactory(m)

	if rt.cfg.Watch.Enabled {
		w, err := watcher.ForDatabase(rt.cfg.Database.Path, func() {
			p.Send(tui.ReloadMsg{})
		}, watcher.WithDebounce(rt.cfg.Watch.Debounce()))
		if err != nil {
			rt.logger.Warn("database watcher unavailable", "db_path", rt.cfg.Database.Path, "err", err)
		} else {
			watchCtx, cancel := context.WithCancel(ctx)
			defer func() {
				cancel()
				_ = w.Close()
			}()
			go w.Run(watchCtx, func(err error) {
				rt.logger.Warn("database watcher error", "err", err)
			})
			rt.logger.Info("database watcher started", "db_path", rt.cfg.Database.Path)
		}
	}

	rt.logger.Info("starting tui program loop")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or invalid.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
