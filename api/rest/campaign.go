package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/campaign"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
)

// CampaignHandler handles campaign and membership endpoints.
type CampaignHandler struct {
	svc     *campaign.Service
	checker *policy.Checker
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(svc *campaign.Service, checker *policy.Checker) *CampaignHandler {
	return &CampaignHandler{svc: svc, checker: checker}
}

type createCampaignRequest struct {
	Name        string               `json:"name" binding:"required,max=128"`
	Description string               `json:"description" binding:"max=4000"`
	Setting     string               `json:"setting" binding:"max=128"`
	Status      model.CampaignStatus `json:"status" binding:"omitempty,oneof=active paused completed"`
}

type updateCampaignRequest struct {
	Name        *string               `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string               `json:"description" binding:"omitempty,max=4000"`
	Setting     *string               `json:"setting" binding:"omitempty,max=128"`
	Status      *model.CampaignStatus `json:"status" binding:"omitempty,oneof=active paused completed"`
}

type joinRequest struct {
	InviteCode string `json:"inviteCode" binding:"required,max=16"`
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type respondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// Create handles POST /api/campaigns.
func (h *CampaignHandler) Create(c *gin.Context) {
	var req createCampaignRequest
	if !bindStrict(c, &req) {
		return
	}
	camp, err := h.svc.Create(c.Request.Context(), campaign.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Setting:     req.Setting,
		Status:      req.Status,
	}, mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, camp)
}

// List handles GET /api/campaigns?scope=owned|joined.
func (h *CampaignHandler) List(c *gin.Context) {
	var (
		list []model.Campaign
		err  error
	)
	switch c.DefaultQuery("scope", "owned") {
	case "owned":
		list, err = h.svc.FindAll(c.Request.Context(), mw.GetUserID(c))
	case "joined":
		list, err = h.svc.FindJoined(c.Request.Context(), mw.GetUserID(c))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be owned or joined"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Invitations handles GET /api/campaigns/invitations.
func (h *CampaignHandler) Invitations(c *gin.Context) {
	list, err := h.svc.PendingInvitations(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Detail handles GET /api/campaigns/:id.
func (h *CampaignHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok || !allow(c, h.checker, policy.ActionViewCampaign, policy.Target{CampaignID: id}) {
		return
	}
	detail, err := h.svc.FindOne(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PATCH /api/campaigns/:id.
func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateCampaignRequest
	if !bindStrict(c, &req) {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCampaign, policy.Target{CampaignID: id}) {
		return
	}
	camp, err := h.svc.Update(c.Request.Context(), id, campaign.Patch{
		Name:        req.Name,
		Description: req.Description,
		Setting:     req.Setting,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, camp)
}

// Delete handles DELETE /api/campaigns/:id.
func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok || !allow(c, h.checker, policy.ActionManageCampaign, policy.Target{CampaignID: id}) {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Join handles POST /api/campaigns/join.
func (h *CampaignHandler) Join(c *gin.Context) {
	var req joinRequest
	if !bindStrict(c, &req) {
		return
	}
	res, err := h.svc.Join(c.Request.Context(), req.InviteCode, mw.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Invite handles POST /api/campaigns/:id/members.
func (h *CampaignHandler) Invite(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req inviteRequest
	if !bindStrict(c, &req) {
		return
	}
	if !allow(c, h.checker, policy.ActionManageCampaign, policy.Target{CampaignID: id}) {
		return
	}
	m, err := h.svc.Invite(c.Request.Context(), id, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Respond handles POST /api/campaigns/:id/invitation. It only ever touches
// the caller's own membership row.
func (h *CampaignHandler) Respond(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req respondRequest
	if !bindStrict(c, &req) {
		return
	}
	m, err := h.svc.Respond(c.Request.Context(), id, mw.GetUserID(c), *req.Accept)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// RemoveMember handles DELETE /api/campaigns/:id/members/:userId.
func (h *CampaignHandler) RemoveMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if !allow(c, h.checker, policy.ActionRemoveMember, policy.Target{CampaignID: id, SubjectUserID: userID}) {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
