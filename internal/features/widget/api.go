package widget

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WidgetApi struct {
	WidgetController *WidgetController
	Config           *config.Config
}

func NewWidgetApi(widgetController *WidgetController, cfg *config.Config) api.Route {
	return &WidgetApi{
		WidgetController: widgetController,
		Config:           cfg,
	}
}

func (api *WidgetApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(api.Config.SkipAuth)
	admin := middleware.RequireRole(api.Config.SkipAuth, utils.RoleAdmin)

	app.Post("/api/sections/:id/widgets", auth, admin, api.WidgetController.CreateWidget)

	group := app.Group("/api/widgets", auth)
	group.Get("/:id", api.WidgetController.GetWidget)
	group.Put("/:id", admin, api.WidgetController.UpdateWidget)
	group.Delete("/:id", admin, api.WidgetController.DeleteWidget)
}
