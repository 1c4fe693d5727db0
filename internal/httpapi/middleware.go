package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"guardianpaws/internal/core"
	"guardianpaws/pkg/domain"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// authenticate resolves the bearer token to the current actor record.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			fail(c, http.StatusUnauthorized, "Authorization header required", "AUTH_REQUIRED")
			return
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			fail(c, http.StatusUnauthorized, "Invalid authorization format", "INVALID_AUTH_FORMAT")
			return
		}
		claims, err := s.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN")
			return
		}
		actor, err := s.svc.GetActor(c.Request.Context(), claims.Role, claims.Subject)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Account not found", "ACCOUNT_NOT_FOUND")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := currentActor(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "This action is not available to "+string(actor.Role)+" accounts", "FORBIDDEN")
	}
}

// requireAdminToken guards administrative routes. With no token configured
// the routes are disabled.
func (s *Server) requireAdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader("X-Admin-Token")
		if s.adminToken == "" || subtle.ConstantTimeCompare([]byte(given), []byte(s.adminToken)) != 1 {
			fail(c, http.StatusForbidden, "Admin token required", "ADMIN_REQUIRED")
			return
		}
		c.Set(actorKey, domain.AdminActor())
		c.Next()
	}
}

func currentActor(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

// requestLogger logs one line per request.
func requestLogger(logger core.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			kv = append(kv, "error", errs.String())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request failed", kv...)
		default:
			logger.Debug("request handled", kv...)
		}
	}
}
