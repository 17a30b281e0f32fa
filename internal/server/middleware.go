package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tanklab/gasworks/internal/identity"
)

// Identity headers set by the upstream gateway. Credential validation
// happens there; this service only consumes the resolved principal.
const (
	headerUserID  = "X-User-Id"
	headerBlender = "X-User-Blender"
	headerAdmin   = "X-User-Admin"
)

func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal := identity.Principal{
			UserID:    userID,
			IsBlender: headerFlag(c, headerBlender),
			IsAdmin:   headerFlag(c, headerAdmin),
		}
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := identity.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !principal.IsAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func headerFlag(c *gin.Context, name string) bool {
	return strings.EqualFold(strings.TrimSpace(c.GetHeader(name)), "true")
}

func principalFrom(c *gin.Context) (identity.Principal, bool) {
	return identity.FromContext(c.Request.Context())
}
