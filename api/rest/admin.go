package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/model"
	"github.com/kasuganosora/questforge/server/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles operator endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, sched: sched, logger: logger}
}

// Metrics returns row counts and scheduler state.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()
	counts := gin.H{}
	for name, m := range map[string]interface{}{
		"users":      &model.User{},
		"campaigns":  &model.Campaign{},
		"members":    &model.Membership{},
		"characters": &model.Character{},
	} {
		var n int64
		if err := h.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			h.logger.Error("admin metrics count failed", zap.String("table", name), zap.Error(err))
			writeError(c, err)
			return
		}
		counts[name] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":          counts,
		"scheduler_tasks": h.sched.Tasks(),
	})
}

// ListSchedulerTasks returns registered task names with their next run.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	type task struct {
		Name string `json:"name"`
		Next string `json:"next"`
	}
	names := h.sched.Tasks()
	tasks := make([]task, 0, len(names))
	for _, name := range names {
		t := task{Name: name}
		if next, ok := h.sched.Next(name); ok && !next.IsZero() {
			t.Next = next.UTC().Format("2006-01-02T15:04:05Z")
		}
		tasks = append(tasks, t)
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
