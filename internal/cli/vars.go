package cli

import (
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/internal/storage"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Service  core.Board
	Audit    storage.AuditStore
	Cfg      *models.Config
	EventLog observability.EventLog
)

// session builds the acting session for a command, preferring the --actor
// flag over the configured default actor.
func session() models.Session {
	actor := actorFlag
	if actor == "" && Cfg != nil {
		actor = Cfg.DefaultActor
	}
	return models.Session{Actor: actor}
}
