package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/media"
	"github.com/kasuganosora/questforge/server/game/policy"
	"github.com/kasuganosora/questforge/server/model"
)

// MediaHandler handles campaign media metadata endpoints.
type MediaHandler struct {
	svc     *media.Service
	checker *policy.Checker
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(svc *media.Service, checker *policy.Checker) *MediaHandler {
	return &MediaHandler{svc: svc, checker: checker}
}

type mediaRequest struct {
	Filename string `json:"filename" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,max=2048"`
	Type     string `json:"type" binding:"max=64"`
}

type mediaPatchRequest struct {
	Filename *string `json:"filename" binding:"omitempty,min=1,max=255"`
	URL      *string `json:"url" binding:"omitempty,max=2048"`
	Type     *string `json:"type" binding:"omitempty,max=64"`
}

func mediaCampaign(m *model.Media) string { return m.CampaignID }

// List handles GET /api/campaigns/:id/media.
func (h *MediaHandler) List(c *gin.Context) {
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

// Create handles POST /api/campaigns/:id/media.
func (h *MediaHandler) Create(c *gin.Context) {
	var req mediaRequest
	if !bindStrict(c, &req) {
		return
	}
	campaignID, ok := campaignScope(c, h.checker, policy.ActionManageContent)
	if !ok {
		return
	}
	m, err := h.svc.Create(c.Request.Context(), campaignID, media.Input{
		Filename: req.Filename,
		URL:      req.URL,
		Type:     req.Type,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Detail handles GET /api/media/:id.
func (h *MediaHandler) Detail(c *gin.Context) {
	m, ok := authorizeRecord(c, h.checker, policy.ActionViewCampaign, h.svc.FindOne, mediaCampaign)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update handles PATCH /api/media/:id.
func (h *MediaHandler) Update(c *gin.Context) {
	var req mediaPatchRequest
	if !bindStrict(c, &req) {
		return
	}
	m, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, mediaCampaign)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), m.ID, media.Patch{
		Filename: req.Filename,
		URL:      req.URL,
		Type:     req.Type,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	m, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, mediaCampaign)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), m.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
