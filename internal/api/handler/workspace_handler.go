package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/api/middleware"
	"github.com/graphrag/tenantgate/internal/core/domain"
)

// WorkspaceHandler reports on the workspace attached to the request.
type WorkspaceHandler struct{}

func NewWorkspaceHandler() *WorkspaceHandler {
	return &WorkspaceHandler{}
}

type workspaceInfoResponse struct {
	Workspace string    `json:"workspace"`
	Username  string    `json:"username"`
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// Info returns the caller's resolved workspace and when its engine
// instance was constructed.
//
// @Summary      Workspace info
// @Tags         workspace
// @Produce      json
// @Success      200  {object}  workspaceInfoResponse
// @Failure      401  {object}  map[string]string
// @Router       /workspace [get]
func (h *WorkspaceHandler) Info(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	inst, ok := middleware.GetInstance(c)
	if !ok {
		return domain.ErrAuthRequired
	}

	return c.JSON(http.StatusOK, workspaceInfoResponse{
		Workspace: inst.Workspace,
		Username:  id.Username,
		Identity:  string(id.Kind),
		CreatedAt: inst.CreatedAt,
	})
}
