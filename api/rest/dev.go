package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/audit"
	"github.com/kasuganosora/questforge/server/game/console"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
)

// DevHandler exposes the administrative console.
type DevHandler struct {
	console *console.Console
	audit   *audit.Service
	checker *policy.Checker
}

// NewDevHandler creates a DevHandler.
func NewDevHandler(con *console.Console, auditSvc *audit.Service, checker *policy.Checker) *DevHandler {
	return &DevHandler{console: con, audit: auditSvc, checker: checker}
}

type commandRequest struct {
	Command string `json:"command" binding:"required,max=512"`
}

// Command handles POST /api/dev/command. Admins only; every attempt is audited.
func (h *DevHandler) Command(c *gin.Context) {
	var req commandRequest
	if !bindStrict(c, &req) {
		return
	}
	start := time.Now()
	action := auditAction(req.Command)

	if err := h.checker.Require(c.Request.Context(), actor(c), policy.ActionRunConsole, policy.Target{}); err != nil {
		h.record(c, action, req, nil, err.Error(), start)
		writeError(c, err)
		return
	}

	res := h.console.Execute(c.Request.Context(), req.Command)
	h.record(c, action, req, res, outputError(res), start)
	c.JSON(http.StatusOK, res)
}

// Seed handles POST /api/dev/seed. It is guarded by AdminAuth and the IP
// allow-list rather than a user token.
func (h *DevHandler) Seed(c *gin.Context) {
	start := time.Now()
	res := h.console.Execute(c.Request.Context(), "db:seed")
	h.record(c, "dev:seed", nil, res, outputError(res), start)
	c.JSON(http.StatusOK, res)
}

func (h *DevHandler) record(c *gin.Context, action string, req, resp interface{}, errMsg string, start time.Time) {
	h.audit.Log(audit.AuditEntry{
		TraceID:    mw.GetTraceID(c),
		UserID:     mw.GetUserID(c),
		Action:     action,
		Target:     "console",
		Request:    req,
		Response:   resp,
		Error:      errMsg,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	})
}

// maxCommandName keeps "console:<name>" within the audit action column.
const maxCommandName = 56

func auditAction(line string) string {
	name := []rune(console.Name(line))
	if len(name) > maxCommandName {
		name = name[:maxCommandName]
	}
	return "console:" + string(name)
}

func outputError(res console.Result) string {
	if strings.HasPrefix(res.Output, "Error: ") {
		return strings.TrimPrefix(res.Output, "Error: ")
	}
	return ""
}
