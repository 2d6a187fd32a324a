package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/dmitrijs2005/studynest/internal/server/services"
	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// Logger writes one access log line per request.
func Logger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"ip", c.ClientIP(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "request failed", args...)
		case status >= 400:
			log.Warn(ctx, "client error", args...)
		default:
			log.Info(ctx, "request completed", args...)
		}
	}
}

// BodyLimit caps request bodies at maxBytes. Reads past the cap fail with
// *http.MaxBytesError, which writeError reports as an oversized payload.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// AccessGate resolves the caller from the x-username header or a bearer
// token and, when roles are given, requires one of them. The user is looked
// up on every request.
func AccessGate(users *services.UserService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveCaller(c, users)
		if err != nil {
			writeError(c, err)
			return
		}
		if len(roles) > 0 {
			if err := users.Authorize(user, roles...); err != nil {
				writeError(c, err)
				return
			}
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func resolveCaller(c *gin.Context, users *services.UserService) (*models.User, error) {
	ctx := c.Request.Context()

	if name := c.GetHeader(common.UsernameHeaderName); name != "" {
		return users.Resolve(ctx, name)
	}

	if h := c.GetHeader(common.AuthorizationHeaderName); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return nil, fmt.Errorf("%w: malformed authorization header", common.ErrorUnauthenticated)
		}
		return users.ResolveToken(ctx, token)
	}

	return nil, fmt.Errorf("%w: username required in headers", common.ErrorUnauthenticated)
}

// currentUser returns the caller stored by AccessGate, or nil on public routes.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
