package api

import (
	"github.com/gin-gonic/gin"

	"devboard/internal/identity"
)

const (
	contextUserIDKey = "userID"
	contextRoleKey   = "userRole"
)

// identityFromContext 还原认证中间件注入的请求身份。
func identityFromContext(c *gin.Context) (identity.Identity, bool) {
	rawID, ok := c.Get(contextUserIDKey)
	if !ok {
		return identity.Identity{}, false
	}
	userID, ok := rawID.(uint)
	if !ok || userID == 0 {
		return identity.Identity{}, false
	}

	rawRole, ok := c.Get(contextRoleKey)
	if !ok {
		return identity.Identity{}, false
	}
	roleStr, ok := rawRole.(string)
	if !ok {
		return identity.Identity{}, false
	}
	role, err := identity.ParseRole(roleStr)
	if err != nil {
		return identity.Identity{}, false
	}

	return identity.Identity{UserID: userID, Role: role}, true
}
