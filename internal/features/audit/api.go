package audit

import (
	"go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) api.Route {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)
	admin := middleware.RequireRole(h.config.SkipAuth, utils.RoleAdmin)

	app.Get("/api/audit-logs", auth, admin, h.controller.ListLogs)
	app.Get("/api/dashboards/:key/history", auth, admin, h.controller.HistoryFor("dashboards", "key"))
}
