package widget

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type WidgetController struct {
	WidgetService WidgetService
}

func NewWidgetController(widgetService WidgetService) *WidgetController {
	return &WidgetController{WidgetService: widgetService}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSectionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrKeyRequired):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// CreateWidget godoc
// @Summary Create widget
// @Tags widget
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Success 201 {object} Widget
// @Router /api/sections/{id}/widgets [post]
func (ctrl *WidgetController) CreateWidget(ctx *fiber.Ctx) error {
	var w Widget
	if err := ctx.BodyParser(&w); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.WidgetService.CreateWidget(ctx.UserContext(), ctx.Params("id"), &w); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(w)
}

// GetWidget godoc
// @Summary Get widget
// @Tags widget
// @Produce json
// @Param id path string true "Widget ID"
// @Success 200 {object} Widget
// @Router /api/widgets/{id} [get]
func (ctrl *WidgetController) GetWidget(ctx *fiber.Ctx) error {
	w, err := ctrl.WidgetService.GetWidget(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(w)
}

// UpdateWidget godoc
// @Summary Update widget
// @Tags widget
// @Accept json
// @Produce json
// @Param id path string true "Widget ID"
// @Success 200 {object} Widget
// @Router /api/widgets/{id} [put]
func (ctrl *WidgetController) UpdateWidget(ctx *fiber.Ctx) error {
	var w Widget
	if err := ctx.BodyParser(&w); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.WidgetService.UpdateWidget(ctx.UserContext(), ctx.Params("id"), &w); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(w)
}

// DeleteWidget godoc
// @Summary Delete widget
// @Tags widget
// @Param id path string true "Widget ID"
// @Success 204
// @Router /api/widgets/{id} [delete]
func (ctrl *WidgetController) DeleteWidget(ctx *fiber.Ctx) error {
	if err := ctrl.WidgetService.DeleteWidget(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
