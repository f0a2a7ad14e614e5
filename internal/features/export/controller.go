package export

import (
	"fmt"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/filters"

	"github.com/gofiber/fiber/v2"
)

type ExportController struct {
	ExportService ExportService
	Dashboards    dashboard.DashboardService
}

func NewExportController(exportService ExportService, dashboards dashboard.DashboardService) *ExportController {
	return &ExportController{ExportService: exportService, Dashboards: dashboards}
}

// ExportDashboard godoc
// @Summary Export dashboard data as xlsx
// @Description Filter values are read from query parameters named after the filter variables.
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param key path string true "Dashboard key"
// @Param token query string false "Invitation token"
// @Router /api/dashboards/{key}/export [get]
func (ctrl *ExportController) ExportDashboard(ctx *fiber.Ctx) error {
	key := ctx.Params("key")
	token := ctx.Query("token")
	user := middleware.CurrentUser(ctx)

	st, err := ctrl.Dashboards.GetStructure(ctx.UserContext(), key, user, token)
	if err != nil {
		return ctx.Status(dashboard.StatusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	values := filters.Values{}
	for _, def := range st.Filters {
		raw := ctx.Query(def.VarName)
		if raw == "" {
			continue
		}
		v, err := filters.Coerce(def, raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		values[def.VarName] = v
	}
	values = filters.Initialize(st.Filters, values)
	if missing := filters.MissingRequired(st.Filters, values); len(missing) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "required filters missing", "missing": missing})
	}

	data, filename, err := ctrl.ExportService.ExportDashboard(ctx.UserContext(), key, values, user, token)
	if err != nil {
		return ctx.Status(dashboard.StatusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}
