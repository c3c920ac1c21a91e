package middleware

import (
	"net/http"
	"strings"

	"workforce-service/internal/authz"
	"workforce-service/pkg/jwtutil"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CallerKey is the echo context key under which the authenticated caller is
// stored.
const CallerKey = "caller"

// AuthMiddleware validates the JWT access token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateAccess(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store caller info in context for later use
		c.Set(CallerKey, authz.Caller{
			UserID:   claims.UserID,
			Role:     claims.Role,
			TenantID: claims.TenantID,
		})
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("user_role", claims.Role)
		if claims.TenantID != nil {
			c.Set("tenant_id", *claims.TenantID)
		}

		return next(c)
	}
}

// CallerFromContext returns the authenticated caller stored by
// AuthMiddleware, and whether one was present.
func CallerFromContext(c echo.Context) (authz.Caller, bool) {
	caller, ok := c.Get(CallerKey).(authz.Caller)
	return caller, ok
}
