package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/item"
	"github.com/kasuganosora/questforge/server/game/policy"
	"github.com/kasuganosora/questforge/server/model"
)

// ItemHandler handles campaign item endpoints.
type ItemHandler struct {
	svc     *item.Service
	checker *policy.Checker
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(svc *item.Service, checker *policy.Checker) *ItemHandler {
	return &ItemHandler{svc: svc, checker: checker}
}

type itemRequest struct {
	Name        string          `json:"name" binding:"required,max=128"`
	Description string          `json:"description"`
	Type        model.ItemType  `json:"type" binding:"omitempty,oneof=weapon armor consumable artifact misc"`
	Rarity      model.Rarity    `json:"rarity" binding:"omitempty,oneof=common uncommon rare very_rare legendary"`
	Properties  json.RawMessage `json:"properties"`
}

type itemPatchRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string         `json:"description"`
	Type        *model.ItemType `json:"type" binding:"omitempty,oneof=weapon armor consumable artifact misc"`
	Rarity      *model.Rarity   `json:"rarity" binding:"omitempty,oneof=common uncommon rare very_rare legendary"`
	Properties  json.RawMessage `json:"properties"`
}

func itemCampaign(it *model.Item) string { return it.CampaignID }

// List handles GET /api/campaigns/:id/items.
func (h *ItemHandler) List(c *gin.Context) {
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

// Create handles POST /api/campaigns/:id/items.
func (h *ItemHandler) Create(c *gin.Context) {
	var req itemRequest
	if !bindStrict(c, &req) {
		return
	}
	campaignID, ok := campaignScope(c, h.checker, policy.ActionManageContent)
	if !ok {
		return
	}
	it, err := h.svc.Create(c.Request.Context(), campaignID, item.Input{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Rarity:      req.Rarity,
		Properties:  req.Properties,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// Detail handles GET /api/items/:id.
func (h *ItemHandler) Detail(c *gin.Context) {
	it, ok := authorizeRecord(c, h.checker, policy.ActionViewCampaign, h.svc.FindOne, itemCampaign)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, it)
}

// Update handles PATCH /api/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	var req itemPatchRequest
	if !bindStrict(c, &req) {
		return
	}
	it, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, itemCampaign)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), it.ID, item.Patch{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Rarity:      req.Rarity,
		Properties:  req.Properties,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	it, ok := authorizeRecord(c, h.checker, policy.ActionManageContent, h.svc.FindOne, itemCampaign)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), it.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
