package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/npc"
	"github.com/kasuganosora/questforge/server/game/policy"
	"github.com/kasuganosora/questforge/server/model"
)

// NPCHandler handles campaign NPC endpoints.
type NPCHandler struct {
	svc     *npc.Service
	checker *policy.Checker
}

// NewNPCHandler creates an NPCHandler.
func NewNPCHandler(svc *npc.Service, checker *policy.Checker) *NPCHandler {
	return &NPCHandler{svc: svc, checker: checker}
}

type npcRequest struct {
	Name          string          `json:"name" binding:"required,max=128"`
	Description   string          `json:"description"`
	Role          string          `json:"role" binding:"max=64"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships string          `json:"relationships"`
}

type npcPatchRequest struct {
	Name          *string         `json:"name" binding:"omitempty,min=1,max=128"`
	Description   *string         `json:"description"`
	Role          *string         `json:"role" binding:"omitempty,max=64"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships *string         `json:"relationships"`
}

func npcCampaign(n *model.NPC) string { return n.CampaignID }

// List handles GET /api/campaigns/:id/npcs.
func (h *NPCHandler) List(c *gin.Context) {
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

// Create handles POST /api/campaigns/:id/npcs.
func (h *NPCHandler) Create(c *gin.Context) {
	var req npcRequest
	if !bindStrict(c, &req) {
		return
	}
	campaignID, ok := campaignScope(c, h.checker, policy.ActionManageContent)
	if !ok {
		return
	}
	n, err := h.svc.Create(c.Request.Context(), campaignID, npc.Input{
		Name:          req.Name,
		Description:   req.Description,
		Role:          req.Role,
		Attributes:    req.Attributes,
		Relationships: req.Relationships,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// Detail handles GET /api/npcs/:id.
func (h *NPCHandler) Detail(c *gin.Context) {
	n, ok := authorizeRecord(c, h.checker, policy.ActionViewCampaign, h.svc.FindOne, npcCampaign)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, n)
}

// Update handles PATCH /api/npcs/:id.
func (h *NPCHandler) Update(c *gin.Context) {
	var req npcPatchRequest
	if !bindStrict(c, &req) {
		return
	}
	n, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, npcCampaign)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), n.ID, npc.Patch{
		Name:          req.Name,
		Description:   req.Description,
		Role:          req.Role,
		Attributes:    req.Attributes,
		Relationships: req.Relationships,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/npcs/:id.
func (h *NPCHandler) Delete(c *gin.Context) {
	n, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, npcCampaign)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), n.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
