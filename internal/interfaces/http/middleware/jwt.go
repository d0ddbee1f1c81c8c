package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storecraft/backend/internal/infrastructure/auth"
	"github.com/storecraft/backend/internal/interfaces/http/dto"
)

// Customer session context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTStoreIDKey    = "jwt_store_id"
	JWTCustomerIDKey = "jwt_customer_id"
	JWTEmailKey      = "jwt_email"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTMiddlewareConfig configures the customer session middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths bypass authentication on exact match
	SkipPaths []string
	// SkipPathPrefixes bypass authentication on prefix match
	SkipPathPrefixes []string
	// OnError replaces the default 401 response when set
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves the public surface open: health probes, customer
// signup and login, published storefronts, and built assets.
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/api/v1/store/customers/register",
			"/api/v1/store/customers/login",
		},
		SkipPathPrefixes: []string{
			"/api/v1/s/live",
			"/uploads",
		},
	}
}

// JWTAuthMiddleware requires a valid customer session on every route that
// is not in the default skip lists.
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig is JWTAuthMiddleware with a custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAuth(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		token, err := bearerToken(c)
		if err != nil {
			rejectSession(c, cfg, err)
			return
		}

		claims, err := cfg.JWTService.ValidateToken(token)
		if err != nil {
			rejectSession(c, cfg, err)
			return
		}

		setSessionContext(c, claims)
		if cfg.Logger != nil {
			cfg.Logger.Debug("customer session authenticated",
				zap.String("store_id", claims.StoreID),
				zap.String("customer_id", claims.CustomerID),
			)
		}
		c.Next()
	}
}

// OptionalJWTAuthMiddleware extracts session claims when a valid token is
// present but never rejects the request. Storefront endpoints use this to
// personalize responses for logged-in customers.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c); err == nil {
			if claims, err := jwtService.ValidateToken(token); err == nil {
				setSessionContext(c, claims)
			}
		}
		c.Next()
	}
}

func skipAuth(cfg JWTMiddlewareConfig, path string) bool {
	for _, skip := range cfg.SkipPaths {
		if path == skip {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	token, found := strings.CutPrefix(header, BearerPrefix)
	if !found || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func setSessionContext(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTStoreIDKey, claims.StoreID)
	c.Set(JWTCustomerIDKey, claims.CustomerID)
	c.Set(JWTEmailKey, claims.Email)
}

func rejectSession(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("customer session rejected",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, message := "UNAUTHORIZED", "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = "TOKEN_NOT_VALID", "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken):
		code, message = "INVALID_TOKEN", "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

// GetJWTClaims returns the session claims, or nil outside a session
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTStoreID returns the session's store ID, or ""
func GetJWTStoreID(c *gin.Context) string {
	return c.GetString(JWTStoreIDKey)
}

// GetJWTCustomerID returns the session's customer ID, or ""
func GetJWTCustomerID(c *gin.Context) string {
	return c.GetString(JWTCustomerIDKey)
}
