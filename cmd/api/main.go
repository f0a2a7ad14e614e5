package main

import (
	"context"
	"fmt"
	"time"

	_ "go-dashboards/docs"
	common_api "go-dashboards/internal/common/api"
	"go-dashboards/internal/config"
	"go-dashboards/internal/database"
	"go-dashboards/internal/features/audit"
	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/export"
	"go-dashboards/internal/features/invitation"
	"go-dashboards/internal/features/live"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/features/system"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/logger"
	"go-dashboards/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every route of the "routes" group.
func RegisterAllRoutes(app *fiber.App, log *zap.Logger, routes []common_api.Route) {
	log.Info("registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		log.Debug("setting up route", zap.String("type", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, ``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Error("server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	log *zap.Logger,
	dashboards dashboard.DashboardRepository,
	sections dashboard.SectionRepository,
	homes dashboard.HomeRepository,
	widgets widget.WidgetRepository,
	invitations invitation.InvitationRepository,
	audits audit.AuditRepository,
) {
	repos := map[string]any{
		"dashboards":            dashboards,
		"dashboard_sections":    sections,
		"dashboard_homes":       homes,
		"widgets":               widgets,
		"dashboard_invitations": invitations,
		"audit_logs":            audits,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				for name, repo := range repos {
					idx, ok := repo.(indexer)
					if !ok {
						continue
					}
					if err := idx.EnsureIndexes(ctx); err != nil {
						log.Warn("failed to ensure indexes", zap.String("collection", name), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}

func sectionFinder(r dashboard.SectionRepository) widget.SectionFinder { return r }

func dashboardFinder(r dashboard.DashboardRepository) invitation.DashboardFinder { return r }

func invitationChecker(s invitation.InvitationService) dashboard.InvitationChecker { return s }

// @title           Dashboards API
// @version         1.0
// @description     Dashboards with sections, widgets backed by dynamic queries, shared filters and invitation links.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			database.NewDatabase,
			logger.NewLogger,
			NewFiberServer,

			// Repositories
			audit.NewAuditRepository,
			dashboard.NewDashboardRepository,
			dashboard.NewSectionRepository,
			dashboard.NewHomeRepository,
			widget.NewWidgetRepository,
			invitation.NewInvitationRepository,
			query.NewQueryRepository,

			sectionFinder,
			dashboardFinder,
			invitationChecker,

			// Services
			audit.NewAuditService,
			widget.NewWidgetService,
			invitation.NewInvitationService,
			dashboard.NewDashboardService,
			query.NewExecutor,
			query.NewQueryService,
			export.NewExportService,

			// Controllers
			audit.NewAuditController,
			widget.NewWidgetController,
			invitation.NewInvitationController,
			dashboard.NewDashboardController,
			query.NewQueryController,
			export.NewExportController,
			live.NewLiveController,
			system.NewSystemController,

			// Routes
			AsRoute(system.NewSystemApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(widget.NewWidgetApi),
			AsRoute(invitation.NewInvitationApi),
			AsRoute(query.NewQueryApi),
			AsRoute(export.NewExportApi),
			AsRoute(live.NewLiveApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
		),
	)

	app.Run()
}
