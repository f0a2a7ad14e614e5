package query

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type QueryApi struct {
	QueryController *QueryController
	Config          *config.Config
}

func NewQueryApi(queryController *QueryController, cfg *config.Config) api.Route {
	return &QueryApi{
		QueryController: queryController,
		Config:          cfg,
	}
}

func (api *QueryApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(api.Config.SkipAuth)
	optional := middleware.OptionalAuthMiddleware(api.Config.SkipAuth)
	admin := middleware.RequireRole(api.Config.SkipAuth, utils.RoleAdmin)
	ctrl := api.QueryController

	group := app.Group("/api/queries", auth, admin)
	group.Post("/", ctrl.CreateQuery)
	group.Get("/", ctrl.ListQueries)
	group.Get("/:id", ctrl.GetQuery)
	group.Put("/:id", ctrl.UpdateQuery)
	group.Delete("/:id", ctrl.DeleteQuery)
	group.Post("/:id/run", ctrl.RunQuery)

	// Invitation holders load section data without an account.
	app.Post("/api/sections/:id/data", optional, ctrl.GetSectionData)
	app.Post("/api/widgets/:id/data", auth, ctrl.GetWidgetData)
}
