package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Authenticate runs the gate in front of every route. Rejections end the
// request with 401 and an empty body; the reason goes to the debug log only.
func Authenticate(g *gate.Gate, l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		ctx, err := g.Authenticate(req.Context(), req.URL.Path, req.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			l.Debug(ctx, "request rejected",
				"method", req.Method,
				"path", req.URL.Path,
				"reason", gate.Reason(err),
				"error", err,
			)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Request = req.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets the request through only if the gate attached an identity
// holding role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := gate.IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "Forbidden."})
			return
		}
		c.Next()
	}
}
