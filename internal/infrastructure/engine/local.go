// Package engine provides the default binding for the external
// document-processing engine. The gateway treats the engine as opaque;
// this local implementation only materializes the workspace's on-disk
// layout so the real engine process can be pointed at it.
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/graphrag/tenantgate/internal/core/ports"
)

// storage subdirectories expected by the processing engine inside a
// workspace working directory.
var storageDirs = []string{"inputs", "graph", "vectors"}

// Local is a workspace-scoped engine handle rooted at a directory.
type Local struct {
	workingDir string
	workspace  string
}

// NewFactory returns an EngineFactory producing Local engines.
func NewFactory() ports.EngineFactory {
	return func(workingDir, workspace string) (ports.Engine, error) {
		return &Local{workingDir: workingDir, workspace: workspace}, nil
	}
}

// Initialize lays out the workspace storage directories. Idempotent.
func (e *Local) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, sub := range storageDirs {
		if err := os.MkdirAll(filepath.Join(e.workingDir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// WorkingDir reports the workspace-local storage root.
func (e *Local) WorkingDir() string {
	return e.workingDir
}
