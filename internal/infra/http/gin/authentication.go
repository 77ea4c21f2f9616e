package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/services/auth"
	domainauth "rentgate/internal/domain/auth"
	"rentgate/internal/domain/shared/actor"
	domainuser "rentgate/internal/domain/user"
)

const (
	actorContextKey = "rentgate.actor"
	userContextKey  = "rentgate.user"
	tokenContextKey = "rentgate.token"
)

// AuthMiddleware resolves a bearer token into an actor. Anonymous requests pass
// through; handlers decide whether they need an actor.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(actorContextKey, resolved.Actor)
	c.Set(userContextKey, resolved.User)
	c.Set(tokenContextKey, token)
	c.Set("actor_id", resolved.Actor.ID)
	c.Next()
}

func currentActor(c *gin.Context) (actor.Actor, bool) {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return actor.Actor{}, false
	}
	a, ok := val.(actor.Actor)
	return a, ok
}

func currentUser(c *gin.Context) (*domainuser.User, bool) {
	val, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	u, ok := val.(*domainuser.User)
	return u, ok && u != nil
}

func requireActor(c *gin.Context) (actor.Actor, bool) {
	a, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return actor.Actor{}, false
	}
	return a, true
}

func requireAdmin(c *gin.Context) (actor.Actor, bool) {
	a, ok := requireActor(c)
	if !ok {
		return actor.Actor{}, false
	}
	if !a.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return actor.Actor{}, false
	}
	return a, true
}

func bearerTokenFromContext(c *gin.Context) string {
	if token := c.GetString(tokenContextKey); token != "" {
		return token
	}
	return extractBearerToken(c.GetHeader("Authorization"))
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
