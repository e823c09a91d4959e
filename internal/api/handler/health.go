package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Checks that durable storage is actually usable before declaring the
// service ready: the users-file directory must accept writes and the
// workspace base directory must exist or be creatable.
type ReadinessHandler struct {
	usersFile  string
	workingDir string
}

func NewReadinessHandler(usersFile, workingDir string) *ReadinessHandler {
	return &ReadinessHandler{usersFile: usersFile, workingDir: workingDir}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- users file directory writable ---
	if err := checkWritable(filepath.Dir(h.usersFile)); err != nil {
		deps["users_store"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["users_store"] = dependencyStatus{Status: "ok"}
	}

	// --- workspace base directory present ---
	if err := os.MkdirAll(h.workingDir, 0o755); err != nil {
		deps["workspace_storage"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["workspace_storage"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".readyz-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
