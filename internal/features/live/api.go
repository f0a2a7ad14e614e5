package live

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type LiveApi struct {
	Controller *LiveController
	Config     *config.Config
}

func NewLiveApi(controller *LiveController, cfg *config.Config) api.Route {
	return &LiveApi{
		Controller: controller,
		Config:     cfg,
	}
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *LiveApi) Setup(app *fiber.App) {
	app.Get("/ws/dashboards/:key",
		middleware.OptionalAuthMiddleware(h.Config.SkipAuth),
		upgradeOnly,
		websocket.New(h.Controller.ServeDashboard),
	)
}
