package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/game/character"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
)

// CharacterHandler handles character and inventory endpoints.
type CharacterHandler struct {
	svc     *character.Service
	checker *policy.Checker
}

// NewCharacterHandler creates a CharacterHandler.
func NewCharacterHandler(svc *character.Service, checker *policy.Checker) *CharacterHandler {
	return &CharacterHandler{svc: svc, checker: checker}
}

// abilityFields are the flat ability scores of the wire format.
type abilityFields struct {
	Strength     *int `json:"strength" binding:"omitempty,min=1,max=30"`
	Dexterity    *int `json:"dexterity" binding:"omitempty,min=1,max=30"`
	Constitution *int `json:"constitution" binding:"omitempty,min=1,max=30"`
	Intelligence *int `json:"intelligence" binding:"omitempty,min=1,max=30"`
	Wisdom       *int `json:"wisdom" binding:"omitempty,min=1,max=30"`
	Charisma     *int `json:"charisma" binding:"omitempty,min=1,max=30"`
}

func (a abilityFields) abilities() character.Abilities {
	return character.Abilities{
		Strength:     a.Strength,
		Dexterity:    a.Dexterity,
		Constitution: a.Constitution,
		Intelligence: a.Intelligence,
		Wisdom:       a.Wisdom,
		Charisma:     a.Charisma,
	}
}

type createCharacterRequest struct {
	Name  string `json:"name" binding:"required,max=64"`
	Class string `json:"class" binding:"max=64"`
	Race  string `json:"race" binding:"max=64"`
	Level *int   `json:"level" binding:"omitempty,min=1"`
	abilityFields
	Skills     string  `json:"skills"`
	History    string  `json:"history"`
	CampaignID *string `json:"campaignId" binding:"omitempty,uuid"`
}

type updateCharacterRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=64"`
	Class *string `json:"class" binding:"omitempty,max=64"`
	Race  *string `json:"race" binding:"omitempty,max=64"`
	Level *int    `json:"level" binding:"omitempty,min=1"`
	abilityFields
	Skills  *string `json:"skills"`
	History *string `json:"history"`
}

type addItemRequest struct {
	ItemID   string `json:"itemId" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
	Notes    string `json:"notes" binding:"max=1000"`
}

type updateEntryRequest struct {
	Quantity *int    `json:"quantity" binding:"omitempty,min=1"`
	Notes    *string `json:"notes" binding:"omitempty,max=1000"`
}

// Create handles POST /api/characters. Attaching the character to a
// campaign requires being able to view that campaign.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req createCharacterRequest
	if !bindStrict(c, &req) {
		return
	}
	if req.CampaignID != nil &&
		!allow(c, h.checker, policy.ActionViewCampaign, policy.Target{CampaignID: *req.CampaignID}) {
		return
	}
	ch, err := h.svc.Create(c.Request.Context(), character.CreateInput{
		Name:       req.Name,
		Class:      req.Class,
		Race:       req.Race,
		Level:      req.Level,
		Abilities:  req.abilities(),
		Skills:     req.Skills,
		History:    req.History,
		CampaignID: req.CampaignID,
	}, mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// List handles GET /api/characters[?campaignId=]. Without a campaign it
// lists the caller's own characters.
func (h *CharacterHandler) List(c *gin.Context) {
	campaignID := c.Query("campaignId")
	if campaignID == "" {
		list, err := h.svc.FindByPlayer(c.Request.Context(), mw.GetUserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}
	if _, err := uuid.Parse(campaignID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaignId"})
		return
	}
	if !allow(c, h.checker, policy.ActionViewCampaign, policy.Target{CampaignID: campaignID}) {
		return
	}
	list, err := h.svc.FindByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Detail handles GET /api/characters/:id.
func (h *CharacterHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok || !allow(c, h.checker, policy.ActionViewCharacter, policy.Target{CharacterID: id}) {
		return
	}
	ch, err := h.svc.FindOne(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Update handles PATCH /api/characters/:id.
func (h *CharacterHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateCharacterRequest
	if !bindStrict(c, &req) {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCharacter, policy.Target{CharacterID: id}) {
		return
	}
	ch, err := h.svc.Update(c.Request.Context(), id, character.Patch{
		Name:      req.Name,
		Class:     req.Class,
		Race:      req.Race,
		Level:     req.Level,
		Abilities: req.abilities(),
		Skills:    req.Skills,
		History:   req.History,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Delete handles DELETE /api/characters/:id.
func (h *CharacterHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok || !allow(c, h.checker, policy.ActionManageCharacter, policy.Target{CharacterID: id}) {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem handles POST /api/characters/:id/inventory.
func (h *CharacterHandler) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if !bindStrict(c, &req) {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCharacter, policy.Target{CharacterID: id}) {
		return
	}
	entry, err := h.svc.AddItem(c.Request.Context(), id, character.AddItemInput{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// UpdateEntry handles PATCH /api/characters/:id/inventory/:entryId.
func (h *CharacterHandler) UpdateEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := idParam(c, "entryId")
	if !ok {
		return
	}
	var req updateEntryRequest
	if !bindStrict(c, &req) {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCharacter, policy.Target{CharacterID: id}) {
		return
	}
	entry, err := h.svc.UpdateEntry(c.Request.Context(), id, entryID, character.EntryPatch{
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// RemoveEntry handles DELETE /api/characters/:id/inventory/:entryId.
func (h *CharacterHandler) RemoveEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entryID, ok := idParam(c, "entryId")
	if !ok {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCharacter, policy.Target{CharacterID: id}) {
		return
	}
	if err := h.svc.RemoveEntry(c.Request.Context(), id, entryID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
