package ports

import (
	"context"
	"time"
)

// Engine is the opaque per-workspace processing engine. Construction and
// initialization are owned by the workspace registry; everything past
// Initialize is the engine's own concern.
type Engine interface {
	Initialize(ctx context.Context) error
}

// EngineFactory builds an engine rooted at a workspace-local directory.
// The directory exists by the time the factory runs.
type EngineFactory func(workingDir, workspace string) (Engine, error)

// WorkspaceInstance pairs a workspace with its live engine handle.
// At most one instance exists per workspace at any time. Handlers
// receive a borrowed reference valid for the request only.
type WorkspaceInstance struct {
	Workspace string
	Engine    Engine
	CreatedAt time.Time
}

// WorkspaceRegistry lazily constructs and caches one engine instance
// per workspace. An empty workspace maps to the shared default key.
type WorkspaceRegistry interface {
	// GetOrCreate returns the cached instance or constructs it exactly
	// once, no matter how many callers arrive concurrently. A failed
	// construction is not cached; the next caller retries.
	GetOrCreate(ctx context.Context, workspace string) (*WorkspaceInstance, error)
}
