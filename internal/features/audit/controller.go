package audit

import (
	"strconv"
	"time"

	common_models "go-dashboards/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary      List audit entries
// @Description  Newest first. since and until are RFC 3339 timestamps.
// @Tags         audit
// @Produce      json
// @Param        module     query  string  false  "dashboards, sections, widgets, dynamic_queries, invitations"
// @Param        record_id  query  string  false  "Dashboard key or hex id"
// @Param        actor_id   query  string  false  "User id"
// @Param        action     query  string  false  "CREATE, UPDATE, DELETE, ..."
// @Param        since      query  string  false  "Lower bound, inclusive"
// @Param        until      query  string  false  "Upper bound, exclusive"
// @Param        page       query  int     false  "Page, from 1"
// @Param        limit      query  int     false  "Page size, at most 100"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/audit-logs [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logs, err := ctrl.Service.ListLogs(c.UserContext(), q)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	q = q.normalize()
	return c.JSON(fiber.Map{
		"logs":  logs,
		"page":  q.Page,
		"limit": q.Limit,
	})
}

// HistoryFor lists the entries of one record, e.g. /api/dashboards/:key/history.
func (ctrl *AuditController) HistoryFor(module, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseListQuery(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		q.Module, q.RecordID = module, c.Params(param)

		logs, err := ctrl.Service.ListLogs(c.UserContext(), q)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(logs)
	}
}

func parseListQuery(c *fiber.Ctx) (ListQuery, error) {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", strconv.Itoa(defaultLimit)), 10, 64)

	q := ListQuery{
		Module:   c.Query("module"),
		RecordID: c.Query("record_id"),
		ActorID:  c.Query("actor_id"),
		Action:   common_models.AuditAction(c.Query("action")),
		Page:     page,
		Limit:    limit,
	}

	var err error
	if v := c.Query("since"); v != "" {
		if q.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "invalid since: "+v)
		}
	}
	if v := c.Query("until"); v != "" {
		if q.Until, err = time.Parse(time.RFC3339, v); err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "invalid until: "+v)
		}
	}
	return q, nil
}
