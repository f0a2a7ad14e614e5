package invitation

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type InvitationController struct {
	Service InvitationService
}

func NewInvitationController(service InvitationService) *InvitationController {
	return &InvitationController{Service: service}
}

func errorResponse(c *fiber.Ctx, err error) error {
	var invalid *InvalidError
	switch {
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  err.Error(),
			"status": invalid.Status,
		})
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDashboardNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// CreateInvitation godoc
// @Summary Create invitation
// @Tags invitation
// @Accept json
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 201 {object} View
// @Router /api/dashboards/{key}/invitations [post]
func (ctrl *InvitationController) CreateInvitation(c *fiber.Ctx) error {
	var inv Invitation
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&inv); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if err := ctrl.Service.Create(c.UserContext(), c.Params("key"), &inv); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDashboardNotFound) {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(View{Invitation: inv, Status: StatusValid})
}

// ListInvitations godoc
// @Summary List invitations of a dashboard
// @Tags invitation
// @Produce json
// @Param key path string true "Dashboard key"
// @Success 200 {array} View
// @Router /api/dashboards/{key}/invitations [get]
func (ctrl *InvitationController) ListInvitations(c *fiber.Ctx) error {
	views, err := ctrl.Service.ListByDashboard(c.UserContext(), c.Params("key"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(views)
}

// UpdateInvitation godoc
// @Summary Update invitation limits
// @Tags invitation
// @Accept json
// @Produce json
// @Param id path string true "Invitation ID"
// @Success 200 {object} View
// @Router /api/invitations/{id} [put]
func (ctrl *InvitationController) UpdateInvitation(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := ctrl.Service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(view)
}

// RevokeInvitation godoc
// @Summary Revoke invitation
// @Tags invitation
// @Param id path string true "Invitation ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/invitations/{id}/revoke [post]
func (ctrl *InvitationController) RevokeInvitation(c *fiber.Ctx) error {
	if err := ctrl.Service.Revoke(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invitation revoked"})
}

// DeleteInvitation godoc
// @Summary Delete invitation
// @Tags invitation
// @Param id path string true "Invitation ID"
// @Success 204
// @Router /api/invitations/{id} [delete]
func (ctrl *InvitationController) DeleteInvitation(c *fiber.Ctx) error {
	if err := ctrl.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type validateRequest struct {
	Token string `json:"token"`
}

// ValidateInvitation godoc
// @Summary Validate an invitation token
// @Description Counts one use and returns the dashboard key the token opens
// @Tags invitation
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/invitations/validate [post]
func (ctrl *InvitationController) ValidateInvitation(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token is required"})
	}

	key, err := ctrl.Service.Validate(c.UserContext(), req.Token)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"dashboard_key": key, "status": StatusValid})
}

// ResolveInvitation godoc
// @Summary Resolve an invitation token
// @Description Returns the dashboard key the token opens without counting a use
// @Tags invitation
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/invitations/resolve [post]
func (ctrl *InvitationController) ResolveInvitation(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token is required"})
	}

	key, err := ctrl.Service.Resolve(c.UserContext(), req.Token)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"dashboard_key": key, "status": StatusValid})
}
