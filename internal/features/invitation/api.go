package invitation

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type InvitationApi struct {
	controller *InvitationController
	config     *config.Config
}

func NewInvitationApi(controller *InvitationController, cfg *config.Config) api.Route {
	return &InvitationApi{
		controller: controller,
		config:     cfg,
	}
}

func (h *InvitationApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	admin := middleware.RequireRole(h.config.SkipAuth, utils.RoleAdmin)

	app.Post("/api/invitations/validate", h.controller.ValidateInvitation)
	app.Post("/api/invitations/resolve", h.controller.ResolveInvitation)

	app.Post("/api/dashboards/:key/invitations", auth, admin, h.controller.CreateInvitation)
	app.Get("/api/dashboards/:key/invitations", auth, admin, h.controller.ListInvitations)
	app.Put("/api/invitations/:id", auth, admin, h.controller.UpdateInvitation)
	app.Delete("/api/invitations/:id", auth, admin, h.controller.DeleteInvitation)
	app.Post("/api/invitations/:id/revoke", auth, admin, h.controller.RevokeInvitation)
}
