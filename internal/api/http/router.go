package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aftersales-service/internal/api/http/handlers"
	"github.com/spec-kit/aftersales-service/internal/auth"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/policy"
)

// RouteConfig bundles everything route registration needs.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Users         *handlers.UsersHandler
	Requests      *handlers.RequestsHandler
	Inventory     *handlers.InventoryHandler
	Notifications *handlers.NotificationsHandler
	Auth          *auth.AuthMiddleware
}

// RegisterRoutes wires all HTTP routes onto the app.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Post("/auth/login", cfg.Users.Login)

	api := app.Group("/api/v1", cfg.Auth.Handle)
	api.Get("/me", cfg.Users.Me)

	requests := api.Group("/requests")
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/number/:number", cfg.Requests.GetByNumber)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Post("/:id/assign", auth.RequireRole(policy.AssignerLevel...), cfg.Requests.Assign)
	requests.Patch("/:id/status", cfg.Requests.ChangeStatus)
	requests.Post("/:id/close", cfg.Requests.Close)
	requests.Post("/:id/costs", cfg.Requests.AddCost)
	requests.Get("/:id/costs", cfg.Requests.ListCosts)
	requests.Get("/:id/activities", cfg.Requests.ListActivities)
	requests.Post("/:id/parts", auth.RequireRole(domain.RoleWarehouseKeeper), cfg.Inventory.AddPart)
	requests.Get("/:id/parts", cfg.Inventory.ListRequestParts)

	spareParts := api.Group("/spare-parts")
	spareParts.Post("/", auth.RequireRole(domain.RoleWarehouseKeeper), cfg.Inventory.CreateSparePart)
	spareParts.Get("/", cfg.Inventory.ListSpareParts)

	parts := api.Group("/parts", auth.RequireRole(domain.RoleWarehouseKeeper))
	parts.Patch("/:id", cfg.Inventory.UpdatePartQuantity)
	parts.Delete("/:id", cfg.Inventory.RemovePart)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
