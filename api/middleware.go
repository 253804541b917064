package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

const userKey = "user"

// RequireAuth rejects requests without a valid bearer token and stores the
// caller on the context.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metricsFrom(c).SetErrorStage("auth")
				return respondError(c, http.StatusUnauthorized, "Unauthorized")
			}
			metricsFrom(c).SetUserID(user.ID)
			c.Set(userKey, user)
			return next(c)
		}
	}
}

func userFrom(c echo.Context) domain.User {
	u, _ := c.Get(userKey).(domain.User)
	return u
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			entry := logger.WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			entry.Debugf("request started: %s %s", req.Method, req.URL.Path)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry.WithFields(log.Fields{
				"method":      req.Method,
				"path":        req.URL.Path,
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   c.RealIP(),
				"user_agent":  req.UserAgent(),
			}).Info("request completed")
			return nil
		}
	}
}
