package rest

import "github.com/gin-gonic/gin"

// Routes bundles the handlers mounted under /api.
type Routes struct {
	Auth       *AuthHandler
	Campaigns  *CampaignHandler
	Characters *CharacterHandler
	NPCs       *NPCHandler
	Items      *ItemHandler
	Sessions   *SessionHandler
	Media      *MediaHandler
	Dev        *DevHandler
	Admin      *AdminHandler

	// RequireUser authenticates bearer tokens (middleware.Auth).
	RequireUser gin.HandlerFunc
	// RequireAdminKey guards operator routes (AdminAuth plus IPWhitelist).
	RequireAdminKey []gin.HandlerFunc
}

// Register mounts every REST route on api.
func (rt Routes) Register(api *gin.RouterGroup) {
	authG := api.Group("/auth")
	authG.POST("/register", rt.Auth.Register)
	authG.POST("/login", rt.Auth.Login)
	authG.POST("/logout", rt.RequireUser, rt.Auth.Logout)
	authG.POST("/refresh", rt.RequireUser, rt.Auth.Refresh)

	api.GET("/users/profile", rt.RequireUser, rt.Auth.Profile)

	campG := api.Group("/campaigns", rt.RequireUser)
	campG.POST("", rt.Campaigns.Create)
	campG.GET("", rt.Campaigns.List)
	campG.GET("/invitations", rt.Campaigns.Invitations)
	campG.POST("/join", rt.Campaigns.Join)
	campG.GET("/:id", rt.Campaigns.Detail)
	campG.PATCH("/:id", rt.Campaigns.Update)
	campG.DELETE("/:id", rt.Campaigns.Delete)
	campG.POST("/:id/members", rt.Campaigns.Invite)
	campG.DELETE("/:id/members/:userId", rt.Campaigns.RemoveMember)
	campG.POST("/:id/invitation", rt.Campaigns.Respond)
	campG.GET("/:id/npcs", rt.NPCs.List)
	campG.POST("/:id/npcs", rt.NPCs.Create)
	campG.GET("/:id/items", rt.Items.List)
	campG.POST("/:id/items", rt.Items.Create)
	campG.GET("/:id/sessions", rt.Sessions.List)
	campG.POST("/:id/sessions", rt.Sessions.Create)
	campG.GET("/:id/media", rt.Media.List)
	campG.POST("/:id/media", rt.Media.Create)

	record := func(path string, detail, update, del gin.HandlerFunc) {
		g := api.Group(path, rt.RequireUser)
		g.GET("/:id", detail)
		g.PATCH("/:id", update)
		g.DELETE("/:id", del)
	}
	record("/npcs", rt.NPCs.Detail, rt.NPCs.Update, rt.NPCs.Delete)
	record("/items", rt.Items.Detail, rt.Items.Update, rt.Items.Delete)
	record("/sessions", rt.Sessions.Detail, rt.Sessions.Update, rt.Sessions.Delete)
	record("/media", rt.Media.Detail, rt.Media.Update, rt.Media.Delete)

	charG := api.Group("/characters", rt.RequireUser)
	charG.POST("", rt.Characters.Create)
	charG.GET("", rt.Characters.List)
	charG.GET("/:id", rt.Characters.Detail)
	charG.PATCH("/:id", rt.Characters.Update)
	charG.DELETE("/:id", rt.Characters.Delete)
	charG.POST("/:id/inventory", rt.Characters.AddItem)
	charG.PATCH("/:id/inventory/:entryId", rt.Characters.UpdateEntry)
	charG.DELETE("/:id/inventory/:entryId", rt.Characters.RemoveEntry)

	devG := api.Group("/dev")
	devG.POST("/command", rt.RequireUser, rt.Dev.Command)
	seed := append(append([]gin.HandlerFunc{}, rt.RequireAdminKey...), rt.Dev.Seed)
	devG.POST("/seed", seed...)

	if rt.Admin != nil {
		adminG := api.Group("/admin", rt.RequireAdminKey...)
		adminG.GET("/metrics", rt.Admin.Metrics)
		adminG.GET("/scheduler", rt.Admin.ListSchedulerTasks)
	}
}
