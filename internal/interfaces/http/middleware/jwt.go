package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTStaffIDKey = "jwt_staff_id"
	BearerPrefix  = "Bearer "
)

// TokenValidator verifies access tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTConfig holds JWT middleware dependencies
type JWTConfig struct {
	Tokens      TokenValidator
	Revocations auth.Revocations // optional
	Logger      *zap.Logger
}

// errMissingCredentials answers ERR_UNAUTHORIZED: no token was presented,
// as opposed to a token that failed validation.
var errMissingCredentials = errors.New("missing bearer token")

// JWTAuth requires a valid, unrevoked bearer token and stores its claims in
// the gin context and the staff ID in the request logger context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, BearerPrefix) {
			abortAuth(c, log, errMissingCredentials, "Missing or malformed authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortAuth(c, log, errMissingCredentials, "Missing token")
			return
		}

		claims, err := cfg.Tokens.Validate(token)
		if err != nil {
			abortAuth(c, log, err, "Token validation failed")
			return
		}

		if cfg.Revocations != nil {
			ctx := c.Request.Context()
			revoked, err := cfg.Revocations.IsTokenRevoked(ctx, claims.ID)
			if err == nil && !revoked && claims.IssuedAt != nil {
				revoked, err = cfg.Revocations.IsStaffRevoked(ctx, claims.StaffID, claims.IssuedAt.Time)
			}
			if err != nil {
				// Fail open
				log.Error("Failed to check token revocation",
					zap.String("staff_id", claims.StaffID),
					zap.Error(err))
			} else if revoked {
				abortAuth(c, log, auth.ErrTokenRevoked, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTStaffIDKey, claims.StaffID)
		c.Request = c.Request.WithContext(logger.WithStaffID(c.Request.Context(), claims.StaffID))
		c.Next()
	}
}

// RequireRole allows only staff with one of roles. It must run after JWTAuth.
func RequireRole(roles ...staff.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "Insufficient role for this action", GetRequestID(c)))
	}
}

func abortAuth(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("reason", message),
		zap.String("path", c.Request.URL.Path))

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, msg = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrTokenNotYetValid):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c)))
}

// GetJWTClaims retrieves the JWT claims stored by JWTAuth
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTStaffID retrieves the authenticated staff ID
func GetJWTStaffID(c *gin.Context) string {
	return c.GetString(JWTStaffIDKey)
}
