package system

import (
	"context"
	"time"

	"go-dashboards/internal/database"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemController struct {
	DB        Pinger
	StartedAt time.Time
}

func NewSystemController(db *database.MongodbDB) *SystemController {
	return &SystemController{DB: db, StartedAt: time.Now()}
}

// Health godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *SystemController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), pingTimeout)
	defer cancel()

	uptime := time.Since(c.StartedAt).Round(time.Second).String()
	if err := c.DB.Ping(pingCtx); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": "down",
			"error":    err.Error(),
			"uptime":   uptime,
		})
	}
	return ctx.JSON(fiber.Map{
		"status":   "ok",
		"database": "up",
		"uptime":   uptime,
	})
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the current user's info from JWT
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *SystemController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims := middleware.CurrentUser(ctx)
	if claims == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}
	return ctx.JSON(fiber.Map{
		"user_id": claims.UserID,
		"roles":   claims.Roles,
	})
}
