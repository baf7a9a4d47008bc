package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/cache"
	"github.com/kasuganosora/questforge/server/config"
	"github.com/kasuganosora/questforge/server/db"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and the caller's profile.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec}
}

type registerRequest struct {
	Name     string     `json:"name" binding:"required,min=2,max=64"`
	Email    string     `json:"email" binding:"required,email,max=128"`
	Password string     `json:"password" binding:"required,min=6,max=72"`
	Role     model.Role `json:"role" binding:"omitempty,oneof=player game_master"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindStrict(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = model.RolePlayer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost())
	if err != nil {
		writeError(c, err)
		return
	}
	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindStrict(c, &req) {
		return
	}

	var user model.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.issue(c.Request.Context(), &user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{AccessToken: token, User: &user})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(mw.GetToken(c)))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The new token carries the role
// currently stored for the user, so promotions take effect here.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(mw.GetToken(c)))

	token, err := h.issue(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{AccessToken: token, User: user})
}

// Profile handles GET /api/users/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) currentUser(c *gin.Context) (*model.User, bool) {
	var user model.User
	err := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", mw.GetUserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Token outlived its account (e.g. db:seed).
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return &user, true
}

// issue signs a token for user and records its session in the cache.
func (h *AuthHandler) issue(ctx context.Context, user *model.User) (string, error) {
	token, err := mw.GenerateToken(user.ID, string(user.Role), h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.cache.Set(cacheCtx, mw.SessionKey(token), user.ID, h.sec.JWTTTLH); err != nil {
		return "", err
	}
	return token, nil
}

func (h *AuthHandler) bcryptCost() int {
	if h.sec.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return h.sec.BcryptCost
}
