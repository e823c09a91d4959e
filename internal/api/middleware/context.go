package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

// Request-scoped context keys. Identity and workspace handle are typed
// values under fixed keys, not loose attributes; the accessors below are
// the only way in or out.
const (
	identityKey = "tenantgate.identity"
	instanceKey = "tenantgate.workspace"
)

// SetIdentity attaches the resolved identity to the request scope.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the identity resolved for this request, if any.
// Bypassed paths carry none.
func GetIdentity(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// SetInstance attaches the workspace engine handle. The handle is
// borrowed from the registry for the duration of this request only.
func SetInstance(c echo.Context, inst *ports.WorkspaceInstance) {
	c.Set(instanceKey, inst)
}

// GetInstance returns the workspace engine handle for this request.
func GetInstance(c echo.Context) (*ports.WorkspaceInstance, bool) {
	inst, ok := c.Get(instanceKey).(*ports.WorkspaceInstance)
	return inst, ok
}
