package dashboard

import (
	"errors"

	"go-dashboards/internal/features/invitation"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	DashboardService DashboardService
}

func NewDashboardController(dashboardService DashboardService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
	}
}

// StatusFor maps dashboard and invitation errors to HTTP status codes.
func StatusFor(err error) int {
	var invalid *invitation.InvalidError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSectionNotFound), errors.Is(err, invitation.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAccessDenied), errors.Is(err, invitation.ErrWrongDashboard), errors.As(err, &invalid):
		return fiber.StatusForbidden
	case errors.Is(err, ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(ctx *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	var invalid *invitation.InvalidError
	if errors.As(err, &invalid) {
		body["status"] = invalid.Status
	}
	return ctx.Status(StatusFor(err)).JSON(body)
}

// CreateDashboard godoc
// @Summary Create dashboard
// @Tags dashboard
// @Accept json
// @Produce json
// @Param dashboard body Dashboard true "Dashboard"
// @Success 201 {object} Dashboard
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/dashboards [post]
func (ctrl *DashboardController) CreateDashboard(ctx *fiber.Ctx) error {
	var d Dashboard
	if err := ctx.BodyParser(&d); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.DashboardService.CreateDashboard(ctx.UserContext(), &d, middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(d)
}

// ListDashboards godoc
// @Summary List dashboards visible to the caller
// @Tags dashboard
// @Produce json
// @Success 200 {array} Dashboard
// @Router /api/dashboards [get]
func (ctrl *DashboardController) ListDashboards(ctx *fiber.Ctx) error {
	dashboards, err := ctrl.DashboardService.ListDashboards(ctx.UserContext(), middleware.CurrentUser(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(dashboards)
}

// GetDashboard godoc
// @Summary Get dashboard
// @Tags dashboard
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 200 {object} Dashboard
// @Failure 404 {object} map[string]interface{}
// @Router /api/dashboards/{key} [get]
func (ctrl *DashboardController) GetDashboard(ctx *fiber.Ctx) error {
	d, err := ctrl.DashboardService.GetDashboard(ctx.UserContext(), ctx.Params("key"), middleware.CurrentUser(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(d)
}

// UpdateDashboard godoc
// @Summary Update dashboard
// @Tags dashboard
// @Accept json
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 200 {object} Dashboard
// @Router /api/dashboards/{key} [put]
func (ctrl *DashboardController) UpdateDashboard(ctx *fiber.Ctx) error {
	var d Dashboard
	if err := ctx.BodyParser(&d); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.DashboardService.UpdateDashboard(ctx.UserContext(), ctx.Params("key"), &d, middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(d)
}

// DeleteDashboard godoc
// @Summary Delete dashboard with its sections and widgets
// @Tags dashboard
// @Param key path string true "Dashboard key"
// @Success 204
// @Router /api/dashboards/{key} [delete]
func (ctrl *DashboardController) DeleteDashboard(ctx *fiber.Ctx) error {
	if err := ctrl.DashboardService.DeleteDashboard(ctx.UserContext(), ctx.Params("key"), middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// SetHomeDashboard godoc
// @Summary Set the caller's home dashboard
// @Tags dashboard
// @Param key path string true "Dashboard key"
// @Success 200 {object} map[string]interface{}
// @Router /api/dashboards/{key}/home [post]
func (ctrl *DashboardController) SetHomeDashboard(ctx *fiber.Ctx) error {
	if err := ctrl.DashboardService.SetHome(ctx.UserContext(), ctx.Params("key"), middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Home dashboard set successfully"})
}

// GetHomeDashboard godoc
// @Summary Get the caller's home dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} Dashboard
// @Failure 404 {object} map[string]interface{}
// @Router /api/dashboards/home [get]
func (ctrl *DashboardController) GetHomeDashboard(ctx *fiber.Ctx) error {
	d, err := ctrl.DashboardService.GetHome(ctx.UserContext(), middleware.CurrentUser(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(d)
}

// GetStructure godoc
// @Summary Get dashboard structure
// @Description Dashboard, flattened active sections with their widgets, and filter declarations. An invitation token is charged one use.
// @Tags dashboard
// @Produce json
// @Param key path string true "Dashboard key"
// @Param token query string false "Invitation token"
// @Success 200 {object} Structure
// @Router /api/dashboards/{key}/structure [get]
func (ctrl *DashboardController) GetStructure(ctx *fiber.Ctx) error {
	st, err := ctrl.DashboardService.OpenStructure(ctx.UserContext(), ctx.Params("key"), middleware.CurrentUser(ctx), ctx.Query("token"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(st)
}

// CreateSection godoc
// @Summary Create section
// @Tags section
// @Accept json
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 201 {object} Section
// @Router /api/dashboards/{key}/sections [post]
func (ctrl *DashboardController) CreateSection(ctx *fiber.Ctx) error {
	var sec Section
	if err := ctx.BodyParser(&sec); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := ctrl.DashboardService.CreateSection(ctx.UserContext(), ctx.Params("key"), &sec, middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(sec)
}

// ListSections godoc
// @Summary List all sections of a dashboard, including inactive ones
// @Tags section
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 200 {array} Section
// @Router /api/dashboards/{key}/sections [get]
func (ctrl *DashboardController) ListSections(ctx *fiber.Ctx) error {
	sections, err := ctrl.DashboardService.ListSections(ctx.UserContext(), ctx.Params("key"), middleware.CurrentUser(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(sections)
}

// UpdateSection godoc
// @Summary Update section
// @Tags section
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} Section
// @Router /api/sections/{id} [put]
func (ctrl *DashboardController) UpdateSection(ctx *fiber.Ctx) error {
	var sec Section
	if err := ctx.BodyParser(&sec); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := ctrl.DashboardService.UpdateSection(ctx.UserContext(), ctx.Params("id"), &sec, middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(sec)
}

// DeleteSection godoc
// @Summary Delete section, its child sections and their widgets
// @Tags section
// @Param id path string true "Section ID"
// @Success 204
// @Router /api/sections/{id} [delete]
func (ctrl *DashboardController) DeleteSection(ctx *fiber.Ctx) error {
	if err := ctrl.DashboardService.DeleteSection(ctx.UserContext(), ctx.Params("id"), middleware.CurrentUser(ctx)); err != nil {
		return fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
