package handler

import (
	"strings"

	"github.com/aisgo/workshop-server/metrics"
	"github.com/aisgo/workshop-server/middleware"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Router - 路由装配
 * ========================================================================
 * /api/v1/register 对外开放 (按 IP 限流);
 * 其余业务路由经过 认证 -> 租户限流 后进入 handler.
 * ======================================================================== */

// Router mounts all API routes onto the Fiber app.
type Router struct {
	auth *middleware.Authenticator

	registration *RegistrationHandler
	clients      *ClientHandler
	vehicles     *VehicleHandler
	mechanics    *MechanicHandler
	orders       *RepairOrderHandler
	timeEntries  *TimeEntryHandler
	notes        *NoteHandler
	users        *UserHandler
	reports      *ReportHandler
}

func NewRouter(
	auth *middleware.Authenticator,
	registration *RegistrationHandler,
	clients *ClientHandler,
	vehicles *VehicleHandler,
	mechanics *MechanicHandler,
	orders *RepairOrderHandler,
	timeEntries *TimeEntryHandler,
	notes *NoteHandler,
	users *UserHandler,
	reports *ReportHandler,
) *Router {
	return &Router{
		auth:         auth,
		registration: registration,
		clients:      clients,
		vehicles:     vehicles,
		mechanics:    mechanics,
		orders:       orders,
		timeEntries:  timeEntries,
		notes:        notes,
		users:        users,
		reports:      reports,
	}
}

// Register mounts middlewares and routes.
func (r *Router) Register(app *fiber.App) {
	app.Use(middleware.RequestID())
	app.Use(metrics.HTTPMetricsMiddleware(func(c fiber.Ctx) bool {
		// 探针与指标端点不计入业务指标
		p := c.Path()
		return p == "/metrics" || strings.HasPrefix(p, "/healthz") || strings.HasPrefix(p, "/readyz")
	}))

	api := app.Group("/api/v1")

	// 开放端点: 注册, 按来源 IP 限流
	api.Post("/register", r.registration.Register, middleware.RateLimitMiddleware())

	// 受保护端点: 认证 -> 按租户限流
	api.Use(r.auth.Handle())
	api.Use(middleware.RateLimitMiddleware())

	clients := api.Group("/clients")
	clients.Post("/", r.clients.Create)
	clients.Get("/", r.clients.List)
	clients.Get("/:id", r.clients.Get)
	clients.Put("/:id", r.clients.Update)
	clients.Delete("/:id", r.clients.Delete)

	vehicles := api.Group("/vehicles")
	vehicles.Post("/", r.vehicles.Create)
	vehicles.Get("/", r.vehicles.List)
	vehicles.Get("/:id", r.vehicles.Get)
	vehicles.Put("/:id", r.vehicles.Update)
	vehicles.Delete("/:id", r.vehicles.Delete)

	mechanics := api.Group("/mechanics")
	mechanics.Post("/", r.mechanics.Create)
	mechanics.Get("/", r.mechanics.List)
	mechanics.Get("/:id", r.mechanics.Get)
	mechanics.Put("/:id", r.mechanics.Update)
	mechanics.Delete("/:id", r.mechanics.Delete)

	orders := api.Group("/orders")
	orders.Post("/", r.orders.Create)
	orders.Get("/", r.orders.List)
	orders.Get("/:id", r.orders.Get)
	orders.Put("/:id", r.orders.Update)
	orders.Patch("/:id/status", r.orders.UpdateStatus)
	orders.Delete("/:id", r.orders.Delete)
	orders.Get("/:id/time-entries", r.timeEntries.ListByOrder)

	timeEntries := api.Group("/time-entries")
	timeEntries.Post("/", r.timeEntries.Log)
	timeEntries.Put("/:id", r.timeEntries.Update)
	timeEntries.Delete("/:id", r.timeEntries.Delete)

	notes := api.Group("/notes")
	notes.Post("/", r.notes.Add)
	notes.Get("/", r.notes.List)
	notes.Delete("/:id", r.notes.Delete)

	users := api.Group("/users")
	users.Post("/", r.users.Create)
	users.Get("/", r.users.List)
	users.Get("/:id", r.users.Get)
	users.Put("/:id", r.users.Update)
	users.Put("/:id/roles", r.users.SetRoles)
	users.Put("/:id/active", r.users.SetActive)
	users.Delete("/:id", r.users.Delete)

	reports := api.Group("/reports")
	reports.Get("/mechanic-hours", r.reports.MechanicHours)
	reports.Get("/orders-by-status", r.reports.OrdersByStatus)
}
