// Package workspace caches one processing-engine instance per workspace,
// constructing each lazily and exactly once under concurrency.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/graphrag/tenantgate/internal/api/metrics"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

// DefaultWorkspace is the shared namespace for callers without a
// workspace of their own (API key and anonymous identities).
const DefaultWorkspace = "default"

// Registry owns the live engine instances. Construction of a given
// workspace is serialized through a single-flight group; once an
// instance is published, reads are lock-free of the group and only
// take the map's read lock. Instances are never evicted: a process
// serves a bounded set of tenants in practice and a crashed build is
// simply retried by the next caller.
type Registry struct {
	baseDir string
	factory ports.EngineFactory
	logger  zerolog.Logger

	mu        sync.RWMutex
	instances map[string]*ports.WorkspaceInstance
	group     singleflight.Group
}

func NewRegistry(baseDir string, factory ports.EngineFactory, logger zerolog.Logger) *Registry {
	return &Registry{
		baseDir:   baseDir,
		factory:   factory,
		logger:    logger,
		instances: make(map[string]*ports.WorkspaceInstance),
	}
}

// GetOrCreate returns the cached instance for the workspace, building it
// first if needed. N concurrent callers for a missing workspace share
// exactly one construction and all observe the same instance. A failed
// construction is not cached: singleflight forgets the key once the
// shared call returns, so the next caller retries from scratch.
func (r *Registry) GetOrCreate(ctx context.Context, workspace string) (*ports.WorkspaceInstance, error) {
	if workspace == "" {
		workspace = DefaultWorkspace
	}

	r.mu.RLock()
	inst, ok := r.instances[workspace]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	v, err, _ := r.group.Do(workspace, func() (any, error) {
		// A previous flight may have published while we queued.
		r.mu.RLock()
		inst, ok := r.instances[workspace]
		r.mu.RUnlock()
		if ok {
			return inst, nil
		}

		// The build is shared by every caller waiting on this key, so
		// it must not die with whichever request happened to start it.
		inst, err := r.build(context.WithoutCancel(ctx), workspace)
		if err != nil {
			return nil, err
		}

		// Publish only after construction fully completed.
		r.mu.Lock()
		r.instances[workspace] = inst
		r.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.WorkspaceInstance), nil
}

// Len reports the number of live instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

func (r *Registry) build(ctx context.Context, workspace string) (*ports.WorkspaceInstance, error) {
	started := time.Now()

	dir := filepath.Join(r.baseDir, workspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.WorkspaceBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create workspace dir %s: %w", dir, err)
	}

	engine, err := r.factory(dir, workspace)
	if err != nil {
		metrics.WorkspaceBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("construct engine for %s: %w", workspace, err)
	}
	if err := engine.Initialize(ctx); err != nil {
		metrics.WorkspaceBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("initialize engine for %s: %w", workspace, err)
	}

	metrics.WorkspaceBuildsTotal.WithLabelValues("success").Inc()
	metrics.WorkspaceBuildDuration.Observe(time.Since(started).Seconds())
	metrics.WorkspaceInstances.Inc()

	r.logger.Info().
		Str("workspace", workspace).
		Str("working_dir", dir).
		Dur("build_time", time.Since(started)).
		Msg("workspace engine ready")

	return &ports.WorkspaceInstance{
		Workspace: workspace,
		Engine:    engine,
		CreatedAt: time.Now().UTC(),
	}, nil
}
