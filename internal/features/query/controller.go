package query

import (
	"errors"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/middleware"
	"go-dashboards/pkg/filters"

	"github.com/gofiber/fiber/v2"
)

type QueryController struct {
	QueryService QueryService
}

func NewQueryController(queryService QueryService) *QueryController {
	return &QueryController{QueryService: queryService}
}

// DataRequest carries the current filter values of a data call.
type DataRequest struct {
	Filters filters.Values `json:"filters"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, widget.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoQuery):
		return fiber.StatusUnprocessableEntity
	default:
		return dashboard.StatusFor(err)
	}
}

func fail(ctx *fiber.Ctx, err error) error {
	return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func parseDataRequest(ctx *fiber.Ctx) (filters.Values, error) {
	var req DataRequest
	if len(ctx.Body()) == 0 {
		return filters.Values{}, nil
	}
	if err := ctx.BodyParser(&req); err != nil {
		return nil, err
	}
	if req.Filters == nil {
		req.Filters = filters.Values{}
	}
	return req.Filters, nil
}

// CreateQuery godoc
// @Summary Create dynamic query
// @Tags query
// @Accept json
// @Produce json
// @Success 201 {object} DynamicQuery
// @Router /api/queries [post]
func (ctrl *QueryController) CreateQuery(ctx *fiber.Ctx) error {
	var q DynamicQuery
	if err := ctx.BodyParser(&q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := ctrl.QueryService.CreateQuery(ctx.UserContext(), &q); err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(q)
}

// ListQueries godoc
// @Summary List dynamic queries
// @Tags query
// @Produce json
// @Success 200 {array} DynamicQuery
// @Router /api/queries [get]
func (ctrl *QueryController) ListQueries(ctx *fiber.Ctx) error {
	queries, err := ctrl.QueryService.ListQueries(ctx.UserContext())
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(queries)
}

// GetQuery godoc
// @Summary Get dynamic query
// @Tags query
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} DynamicQuery
// @Router /api/queries/{id} [get]
func (ctrl *QueryController) GetQuery(ctx *fiber.Ctx) error {
	q, err := ctrl.QueryService.GetQuery(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(q)
}

// UpdateQuery godoc
// @Summary Update dynamic query
// @Tags query
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} DynamicQuery
// @Router /api/queries/{id} [put]
func (ctrl *QueryController) UpdateQuery(ctx *fiber.Ctx) error {
	var q DynamicQuery
	if err := ctx.BodyParser(&q); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := ctrl.QueryService.UpdateQuery(ctx.UserContext(), ctx.Params("id"), &q); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(q)
}

// DeleteQuery godoc
// @Summary Delete dynamic query
// @Tags query
// @Param id path string true "Query ID"
// @Success 204
// @Router /api/queries/{id} [delete]
func (ctrl *QueryController) DeleteQuery(ctx *fiber.Ctx) error {
	if err := ctrl.QueryService.DeleteQuery(ctx.UserContext(), ctx.Params("id")); err != nil {
		return fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// RunQuery godoc
// @Summary Run a dynamic query with the given filters
// @Tags query
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Router /api/queries/{id}/run [post]
func (ctrl *QueryController) RunQuery(ctx *fiber.Ctx) error {
	values, err := parseDataRequest(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	data, err := ctrl.QueryService.RunQuery(ctx.UserContext(), ctx.Params("id"), values)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": data})
}

// GetSectionData godoc
// @Summary Load the data of every widget in a section
// @Description Widget failures are returned per widget and do not fail the request.
// @Tags data
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param token query string false "Invitation token"
// @Success 200 {object} SectionData
// @Failure 403 {object} map[string]interface{}
// @Router /api/sections/{id}/data [post]
func (ctrl *QueryController) GetSectionData(ctx *fiber.Ctx) error {
	values, err := parseDataRequest(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	data, err := ctrl.QueryService.SectionData(ctx.UserContext(), ctx.Params("id"), values, middleware.CurrentUser(ctx), ctx.Query("token"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(data)
}

// GetWidgetData godoc
// @Summary Load the data of a single widget
// @Tags data
// @Accept json
// @Produce json
// @Param id path string true "Widget ID"
// @Router /api/widgets/{id}/data [post]
func (ctrl *QueryController) GetWidgetData(ctx *fiber.Ctx) error {
	values, err := parseDataRequest(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	data, err := ctrl.QueryService.WidgetData(ctx.UserContext(), ctx.Params("id"), values, middleware.CurrentUser(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": data})
}
