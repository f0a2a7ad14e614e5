package dashboard

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	DashboardController *DashboardController
	Config              *config.Config
}

func NewDashboardApi(dashboardController *DashboardController, cfg *config.Config) api.Route {
	return &DashboardApi{
		DashboardController: dashboardController,
		Config:              cfg,
	}
}

func (api *DashboardApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(api.Config.SkipAuth)
	optional := middleware.OptionalAuthMiddleware(api.Config.SkipAuth)
	ctrl := api.DashboardController

	// Static segments first so "home" never matches :key.
	app.Get("/api/dashboards/home", auth, ctrl.GetHomeDashboard)

	app.Post("/api/dashboards", auth, ctrl.CreateDashboard)
	app.Get("/api/dashboards", optional, ctrl.ListDashboards)
	app.Get("/api/dashboards/:key", optional, ctrl.GetDashboard)
	app.Put("/api/dashboards/:key", auth, ctrl.UpdateDashboard)
	app.Delete("/api/dashboards/:key", auth, ctrl.DeleteDashboard)
	app.Post("/api/dashboards/:key/home", auth, ctrl.SetHomeDashboard)
	app.Get("/api/dashboards/:key/structure", optional, ctrl.GetStructure)

	app.Post("/api/dashboards/:key/sections", auth, ctrl.CreateSection)
	app.Get("/api/dashboards/:key/sections", optional, ctrl.ListSections)
	app.Put("/api/sections/:id", auth, ctrl.UpdateSection)
	app.Delete("/api/sections/:id", auth, ctrl.DeleteSection)
}
