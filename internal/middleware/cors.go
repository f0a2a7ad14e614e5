package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows browser viewers on the configured origins. The
// export filename travels in Content-Disposition, so it is exposed.
func CORSMiddleware(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: true,
		MaxAge:           600,
	})
}
