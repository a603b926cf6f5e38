package main

import (
	"log"
	"strings"

	"hotel-supply-backend/internal/audit"
	"hotel-supply-backend/internal/auth"
	"hotel-supply-backend/internal/config"
	"hotel-supply-backend/internal/database"
	"hotel-supply-backend/internal/inventory"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"
	"hotel-supply-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	var cache *stock.BalanceCache
	if cfg.BalanceCache {
		cache = stock.NewBalanceCache()
	}
	svc := stock.NewService(store.NewGorm(database.DB), stock.Options{
		Cache:         cache,
		AtomicCascade: cfg.CascadeAtomic,
	})
	logs := audit.NewGormWriter(database.DB)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(database.DB))
	api.Post("/auth/login", auth.LoginHandler(cfg, database.DB))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(database.DB))

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateStaffHandler(database.DB))
	adminRoutes.Post("/items", inventory.CreateItemHandler(svc, logs))
	adminRoutes.Put("/items/:id", inventory.UpdateItemHandler(svc, logs))
	adminRoutes.Post("/locations", inventory.CreateLocationHandler(svc, logs))
	adminRoutes.Put("/locations/:id", inventory.UpdateLocationHandler(svc, logs))
	adminRoutes.Put("/settings", inventory.UpdateSettingsHandler(svc, logs))
	adminRoutes.Post("/reconcile", inventory.ReconcileHandler(svc, logs))

	// Catalog
	protected.Get("/items", inventory.ListItemsHandler(svc))
	protected.Get("/items/:id", inventory.GetItemHandler(svc))
	protected.Get("/locations", inventory.ListLocationsHandler(svc))
	protected.Get("/locations/:id", inventory.GetLocationHandler(svc))
	protected.Get("/settings", inventory.GetSettingsHandler(svc))

	// Transaction log
	protected.Post("/transactions", inventory.CreateTransactionHandler(svc, logs))
	protected.Post("/transactions/import", inventory.ImportSheetHandler(svc, logs))
	protected.Get("/transactions", inventory.ListTransactionsHandler(svc))
	protected.Put("/transactions/:id", inventory.UpdateTransactionHandler(svc, logs))
	protected.Delete("/transactions/:id", inventory.DeleteTransactionHandler(svc, logs))

	// Balances
	protected.Get("/stock/opening-balance", inventory.OpeningBalanceHandler(svc))
	protected.Get("/stock/combined", inventory.CombinedStockHandler(svc))
	protected.Get("/stock/current", inventory.CurrentStockHandler(svc))
	protected.Get("/stock/items/:id", inventory.StockByItemHandler(svc))
	protected.Get("/stock/streams", inventory.StreamBreakdownHandler(svc))
	protected.Get("/stock/chart", inventory.StockChartHandler(svc))

	// Reports
	protected.Get("/reports/par-level", inventory.ParLevelHandler(svc))
	protected.Get("/reports/par-level.xlsx", inventory.ParLevelExcelHandler(svc))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(database.DB))

	log.Println("Server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
