package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/ngoboard/internal/app"
	"github.com/evanschultz/ngoboard/internal/domain"
)

// Config is the root TOML document.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Drag     DragConfig     `toml:"drag"`
	Board    BoardConfig    `toml:"board"`
	Boards   []BoardSpec    `toml:"boards"`
	Server   ServerConfig   `toml:"server"`
	Watch    WatchConfig    `toml:"watch"`
}

// DatabaseConfig locates the sqlite file.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds runtime log settings.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the dev-mode log file sink.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DragConfig tunes pointer drag behavior in the TUI. Distances are terminal cells.
type DragConfig struct {
	ActivationDistance float64 `toml:"activation_distance"`
	FrameIntervalMS    int     `toml:"frame_interval_ms"`
	MaxDropDistance    float64 `toml:"max_drop_distance"`
	NoticeTTLMS        int     `toml:"notice_ttl_ms"`
}

// FrameInterval returns the move throttle interval.
func (d DragConfig) FrameInterval() time.Duration {
	return time.Duration(d.FrameIntervalMS) * time.Millisecond
}

// NoticeTTL returns how long transient notices stay visible.
func (d DragConfig) NoticeTTL() time.Duration {
	return time.Duration(d.NoticeTTLMS) * time.Millisecond
}

// BoardConfig holds board display settings.
type BoardConfig struct {
	DefaultBoard    string `toml:"default_board"`
	ShowWIPWarnings bool   `toml:"show_wip_warnings"`
}

// BoardSpec declares one board created on first run.
type BoardSpec struct {
	ID      string       `toml:"id"`
	Name    string       `toml:"name"`
	Kind    string       `toml:"kind"`
	Columns []ColumnSpec `toml:"columns"`
}

// ColumnSpec declares one column of a BoardSpec.
type ColumnSpec struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Color    string `toml:"color"`
	Status   string `toml:"status"`
	WIPLimit int    `toml:"wip_limit"`
	Locked   bool   `toml:"locked"`
}

// ServerConfig configures the HTTP and MCP server.
type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// WatchConfig controls reloading the TUI when the database changes on disk.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMS int  `toml:"debounce_ms"`
}

// Debounce returns the watcher debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

var validLevels = []string{"debug", "info", "warn", "error", "fatal"}

var validKinds = []string{"tasks", "recruitment", "volunteers"}

// Default returns the built-in configuration.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{Path: dbPath},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".ngoboard/log",
			},
		},
		Drag: DragConfig{
			ActivationDistance: 1,
			FrameIntervalMS:    16,
			MaxDropDistance:    0,
			NoticeTTLMS:        4000,
		},
		Board: BoardConfig{
			DefaultBoard:    "tasks",
			ShowWIPWarnings: true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 150,
		},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if !slices.Contains(validLevels, strings.ToLower(strings.TrimSpace(c.Logging.Level))) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	if c.Drag.ActivationDistance <= 0 {
		return errors.New("drag.activation_distance must be > 0")
	}
	if c.Drag.FrameIntervalMS < 0 {
		return errors.New("drag.frame_interval_ms must be >= 0")
	}
	if c.Drag.MaxDropDistance < 0 {
		return errors.New("drag.max_drop_distance must be >= 0")
	}
	if c.Drag.NoticeTTLMS <= 0 {
		return errors.New("drag.notice_ttl_ms must be > 0")
	}
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must be >= 0")
	}

	seenBoard := map[string]struct{}{}
	for idx, b := range c.Boards {
		id := strings.ToLower(strings.TrimSpace(b.ID))
		if id == "" {
			return fmt.Errorf("boards[%d].id is required", idx)
		}
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("boards[%d].name is required", idx)
		}
		if kind := strings.ToLower(strings.TrimSpace(b.Kind)); kind != "" && !slices.Contains(validKinds, kind) {
			return fmt.Errorf("boards[%d].kind is invalid: %q", idx, b.Kind)
		}
		if _, ok := seenBoard[id]; ok {
			return fmt.Errorf("boards[%d].id is duplicated: %s", idx, id)
		}
		seenBoard[id] = struct{}{}
		if len(b.Columns) == 0 {
			return fmt.Errorf("boards[%d].columns must include at least one column", idx)
		}
		seenCol := map[string]struct{}{}
		seenStatus := map[string]struct{}{}
		for cidx, col := range b.Columns {
			cid := strings.ToLower(strings.TrimSpace(col.ID))
			if cid == "" {
				return fmt.Errorf("boards[%d].columns[%d].id is required", idx, cidx)
			}
			if strings.TrimSpace(col.Title) == "" {
				return fmt.Errorf("boards[%d].columns[%d].title is required", idx, cidx)
			}
			if col.WIPLimit < 0 {
				return fmt.Errorf("boards[%d].columns[%d].wip_limit must be >= 0", idx, cidx)
			}
			if _, ok := seenCol[cid]; ok {
				return fmt.Errorf("boards[%d].columns[%d].id is duplicated: %s", idx, cidx, cid)
			}
			seenCol[cid] = struct{}{}
			status := cmp.Or(strings.TrimSpace(col.Status), cid)
			if _, ok := seenStatus[status]; ok {
				return fmt.Errorf("boards[%d].columns[%d].status is duplicated: %s", idx, cidx, status)
			}
			seenStatus[status] = struct{}{}
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(c.Server.APIEndpoint), "/") {
		return fmt.Errorf("server.api_endpoint must start with /: %q", c.Server.APIEndpoint)
	}
	if !strings.HasPrefix(strings.TrimSpace(c.Server.MCPEndpoint), "/") {
		return fmt.Errorf("server.mcp_endpoint must start with /: %q", c.Server.MCPEndpoint)
	}
	return nil
}

// BoardTemplates converts configured boards into service templates.
// With no configured boards the built-in templates apply.
func (c Config) BoardTemplates() []app.BoardTemplate {
	if len(c.Boards) == 0 {
		return app.DefaultBoardTemplates()
	}
	out := make([]app.BoardTemplate, 0, len(c.Boards))
	for _, b := range c.Boards {
		kind, err := domain.ParseBoardKind(b.Kind)
		if err != nil {
			kind = domain.BoardKindTasks
		}
		tpl := app.BoardTemplate{
			ID:      b.ID,
			Name:    b.Name,
			Kind:    kind,
			Columns: make([]app.ColumnTemplate, 0, len(b.Columns)),
		}
		for _, col := range b.Columns {
			tpl.Columns = append(tpl.Columns, app.ColumnTemplate{
				ID:       col.ID,
				Title:    col.Title,
				Color:    col.Color,
				Status:   col.Status,
				WIPLimit: col.WIPLimit,
				Locked:   col.Locked,
			})
		}
		out = append(out, tpl)
	}
	return out
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
