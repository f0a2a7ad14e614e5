package system

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SystemApi struct {
	controller *SystemController
	config     *config.Config
}

func NewSystemApi(controller *SystemController, cfg *config.Config) api.Route {
	return &SystemApi{
		controller: controller,
		config:     cfg,
	}
}

func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)

	debug := app.Group("/api/debug", middleware.AuthMiddleware(h.config.SkipAuth))
	debug.Get("/me", h.controller.GetCurrentUser)
}
