package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/policy"
	"github.com/kasuganosora/questforge/server/game/session"
	"github.com/kasuganosora/questforge/server/model"
)

// SessionHandler handles play session log endpoints.
type SessionHandler struct {
	svc     *session.Service
	checker *policy.Checker
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc *session.Service, checker *policy.Checker) *SessionHandler {
	return &SessionHandler{svc: svc, checker: checker}
}

type sessionRequest struct {
	Title      string `json:"title" binding:"required,max=128"`
	Date       string `json:"date" binding:"required"`
	Summary    string `json:"summary"`
	Notes      string `json:"notes"`
	Milestones string `json:"milestones"`
}

type sessionPatchRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=1,max=128"`
	Date       *string `json:"date"`
	Summary    *string `json:"summary"`
	Notes      *string `json:"notes"`
	Milestones *string `json:"milestones"`
}

func sessionCampaign(s *model.GameSession) string { return s.CampaignID }

// List handles GET /api/campaigns/:id/sessions.
func (h *SessionHandler) List(c *gin.Context) {
	campaignID, ok := campaignScope(c, h.checker, policy.ActionViewCampaign)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), campaignID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /api/campaigns/:id/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionRequest
	if !bindStrict(c, &req) {
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		badDate(c)
		return
	}
	campaignID, ok := campaignScope(c, h.checker, policy.ActionManageContent)
	if !ok {
		return
	}
	gs, err := h.svc.Create(c.Request.Context(), campaignID, session.Input{
		Title:      req.Title,
		Date:       date,
		Summary:    req.Summary,
		Notes:      req.Notes,
		Milestones: req.Milestones,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gs)
}

// Detail handles GET /api/sessions/:id.
func (h *SessionHandler) Detail(c *gin.Context) {
	gs, ok := authorizeRecord(c, h.checker, policy.ActionViewCampaign, h.svc.FindOne, sessionCampaign)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gs)
}

// Update handles PATCH /api/sessions/:id.
func (h *SessionHandler) Update(c *gin.Context) {
	var req sessionPatchRequest
	if !bindStrict(c, &req) {
		return
	}
	var date *time.Time
	if req.Date != nil {
		d, ok := parseDate(*req.Date)
		if !ok {
			badDate(c)
			return
		}
		date = &d
	}
	gs, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, sessionCampaign)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), gs.ID, session.Patch{
		Title:      req.Title,
		Date:       date,
		Summary:    req.Summary,
		Notes:      req.Notes,
		Milestones: req.Milestones,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	gs, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, sessionCampaign)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), gs.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
