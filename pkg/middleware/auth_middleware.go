package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/apperrors"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*services.Claims, error)
}

// RequireAdmin guards a route so that only tokens carrying the admin role reach it.
func RequireAdmin(tokens TokenValidator) gin.HandlerFunc {
	return RequireRole(tokens, db.RoleAdmin)
}

// RequireRole is a per-route gate. It answers 401 when the token is missing,
// malformed or expired and 403 when the role claim differs from role. The
// wrapped handler receives the request unchanged.
func RequireRole(tokens TokenValidator, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			log.Debug("RequireRole: Missing Authorization header.")
			deny(c, apperrors.Unauthenticated("Authorization header is missing"))
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			log.Debug("RequireRole: Invalid Authorization header format.")
			deny(c, apperrors.Unauthenticated("Invalid authorization header format"))
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrExpiredCredential) {
				log.Debug("RequireRole: Expired token.")
				deny(c, apperrors.Unauthenticated("Token has expired"))
				return
			}
			log.Debugf("RequireRole: Invalid token: %v", err)
			deny(c, apperrors.Unauthenticated("Invalid token"))
			return
		}

		if claims.Role != role {
			log.Warnf("RequireRole: %s with role '%s' denied access to %s.", claims.Subject, claims.Role, c.FullPath())
			deny(c, apperrors.Forbidden("Access denied. "+roleTitle(role)+" role required."))
			return
		}

		c.Next()
	}
}

func deny(c *gin.Context, err *apperrors.Error) {
	utils.ResponseWithAppError(c, err)
	c.Abort()
}

// extractToken accepts "Bearer <token>" (scheme case-insensitive) or a bare token.
func extractToken(header string) (string, bool) {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1], true
	case len(parts) == 1 && !strings.EqualFold(parts[0], "bearer"):
		return parts[0], true
	default:
		return "", false
	}
}

func roleTitle(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
