// Package internal provides the App struct that wires all components of the
// task board together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/taskboard/internal/cli"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/integration"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/internal/storage"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// App holds all service dependencies for the task board.
type App struct {
	BasePath string
	Config   *models.Config

	// Core services
	Board core.Board
	Clock core.Clock

	// Storage layer
	Tasks storage.TaskStore
	Audit storage.AuditStore

	// Integration services
	Syncer integration.ContentSyncer

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components of the task board. basePath is the
// directory holding .taskboard.yaml and, unless configured otherwise, the
// CSV files themselves.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	loader := core.NewConfigLoader(basePath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	app.Clock = core.NewZoneClock(loc)
	ts := core.NewTimestamps(cfg.SaveWithTime, loc)

	// --- Storage layer ---
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	app.Tasks = storage.NewTaskStore(resolvePath(basePath, cfg.TasksPath), ts, app.Clock, ttl)
	app.Audit = storage.NewAuditStore(resolvePath(basePath, cfg.AuditPath), ts)

	// --- Integration services ---
	var debug io.Writer
	if cfg.Debug {
		debug = os.Stderr
	}
	app.Syncer = integration.NewSyncer(cfg.GitHub, debug)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".taskboard_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog, clock: app.Clock}
	}

	// --- Core services ---
	app.Board = core.NewBoard(*cfg, core.BoardDeps{
		Store:      app.Tasks,
		Audit:      app.Audit,
		Syncer:     app.Syncer,
		Clock:      app.Clock,
		Timestamps: ts,
		Events:     events,
		DecodeTable: func(data []byte) ([]models.Task, error) {
			return storage.DecodeTasks(data, ts)
		},
	})

	// --- Wire CLI package-level variables ---
	cli.Service = app.Board
	cli.Audit = app.Audit
	cli.Cfg = app.Config
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory the board runs from. It checks
// the TASKBOARD_HOME env var, then walks up from the current directory
// looking for a .taskboard.yaml, and falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("TASKBOARD_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".taskboard.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// resolvePath anchors a relative configured path at basePath.
func resolvePath(basePath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log   observability.EventLog
	clock core.Clock
}

func (a *eventLogAdapter) LogEvent(level, eventType, message string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    a.clock.Now(),
		Level:   level,
		Type:    eventType,
		Message: message,
		Data:    data,
	})
}
