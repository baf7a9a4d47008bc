package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/config"
	"github.com/kasuganosora/questforge/server/model"
	"gorm.io/gorm"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
	TokenKey  = "token"
)

// SessionKey is the cache key that keeps a token alive until logout.
func SessionKey(token string) string { return "session:" + token }

// AccountFunc returns the stored role of userID. found is false once the
// account has been deleted.
type AccountFunc func(ctx context.Context, userID string) (role string, found bool, err error)

// AccountsFromDB looks accounts up in the users table.
func AccountsFromDB(db *gorm.DB) AccountFunc {
	return func(ctx context.Context, userID string) (string, bool, error) {
		var u model.User
		err := db.WithContext(ctx).Select("id", "role").First(&u, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return string(u.Role), true, nil
	}
}

// AuthOption configures Auth and QueryAuth.
type AuthOption func(*authOptions)

type authOptions struct {
	accounts AccountFunc
}

// WithAccounts makes authentication reject tokens whose account no longer
// exists and take the caller's role from storage instead of the token claim.
func WithAccounts(fn AccountFunc) AuthOption {
	return func(o *authOptions) { o.accounts = fn }
}

func buildAuthOptions(opts []AuthOption) authOptions {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Auth validates the Bearer JWT token and checks the session cache.
func Auth(sec config.SecurityConfig, c cache.Cache, opts ...AuthOption) gin.HandlerFunc {
	o := buildAuthOptions(opts)
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		authenticate(ctx, sec, c, o, strings.TrimPrefix(header, "Bearer "))
	}
}

// QueryAuth is Auth for clients that cannot set headers (EventSource); the
// token travels in the ?token= query parameter.
func QueryAuth(sec config.SecurityConfig, c cache.Cache, opts ...AuthOption) gin.HandlerFunc {
	o := buildAuthOptions(opts)
	return func(ctx *gin.Context) {
		tokenStr := ctx.Query("token")
		if tokenStr == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		authenticate(ctx, sec, c, o, tokenStr)
	}
}

func authenticate(ctx *gin.Context, sec config.SecurityConfig, c cache.Cache, o authOptions, tokenStr string) {
	claims, err := ParseToken(tokenStr, sec.JWTSecret)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// Check session still valid in cache.
	cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := c.Exists(cacheCtx, SessionKey(tokenStr))
	if err != nil || !exists {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	role := claims.Role
	if o.accounts != nil {
		stored, found, err := o.accounts(cacheCtx, claims.UserID)
		if err != nil {
			_ = ctx.Error(err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !found {
			_ = c.Del(cacheCtx, SessionKey(tokenStr))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		role = stored
	}

	ctx.Set(UserIDKey, claims.UserID)
	ctx.Set(RoleKey, role)
	ctx.Set(TokenKey, tokenStr)
	ctx.Next()
}

// GetUserID retrieves the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetRole retrieves the caller's role. With WithAccounts it is the stored
// role, otherwise the token claim.
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// GetToken retrieves the raw bearer token of the current request.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}

func newTokenID() string { return uuid.NewString() }
