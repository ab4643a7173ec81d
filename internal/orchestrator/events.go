package orchestrator

import (
	"context"

	"github.com/gahjs/e2e-plugin/internal/models"
)

// EventType names a host lifecycle event.
type EventType string

const (
	WorkspaceCleaned       EventType = "workspace-cleaned"
	AssetsComposed         EventType = "assets-composed"
	PathConfigAdjusted     EventType = "path-config-adjusted"
	PackagesAboutToInstall EventType = "packages-about-to-install"
)

// Lifecycle lists the events in the order the host raises them for a module.
var Lifecycle = []EventType{
	WorkspaceCleaned,
	AssetsComposed,
	PathConfigAdjusted,
	PackagesAboutToInstall,
}

// Event is raised by the host for a single module. A nil Module is ignored.
type Event struct {
	Type   EventType
	Module *models.Module
}

// Handler reacts to one event.
type Handler func(ctx context.Context, event Event) error

// Registrar accepts event handlers.
type Registrar interface {
	On(eventType EventType, handler Handler)
}
