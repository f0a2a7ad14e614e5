package export

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ExportApi struct {
	Controller *ExportController
	Config     *config.Config
}

func NewExportApi(controller *ExportController, cfg *config.Config) api.Route {
	return &ExportApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *ExportApi) Setup(app *fiber.App) {
	app.Get("/api/dashboards/:key/export", middleware.OptionalAuthMiddleware(h.Config.SkipAuth), h.Controller.ExportDashboard)
}
