package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"barstock-backend/internal/admin"
	"barstock-backend/internal/apperror"
	"barstock-backend/internal/audit"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/cache"
	"barstock-backend/internal/catalog"
	"barstock-backend/internal/config"
	"barstock-backend/internal/dashboard"
	"barstock-backend/internal/database"
	"barstock-backend/internal/inventory"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"
	"barstock-backend/internal/stocksheet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	for _, w := range cfg.Warnings {
		log.Warnw("config", "note", w)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store cache.Store
	if cfg.RedisAddress != "" {
		rs, err := cache.NewRedisStore(startCtx, cfg.RedisAddress)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		store = rs
	} else {
		store = cache.NewMemoryStore()
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	// Repositories & services
	profiles := auth.NewProfileRepository(db)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	revocations := auth.NewRevocations(store)
	authSvc := auth.NewService(profiles, issuer, revocations, log)

	auditSvc := audit.NewService(db, log)
	adminSvc := admin.NewService(profiles, auditSvc, log)

	invSvc := inventory.NewService(inventory.NewRepository(db), inventory.NewStore(), auditSvc, log)
	if err := invSvc.Refresh(startCtx); err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	auditSvc.OnUndo(func(ctx context.Context, entityType string) {
		if entityType != models.EntityInventoryItem {
			return
		}
		if err := invSvc.Refresh(ctx); err != nil {
			log.Errorw("refresh inventory after undo", "error", err)
		}
	})

	catalogSvc := catalog.NewService(catalog.NewRepository(db), auditSvc, log)
	sheetSvc := stocksheet.NewService(stocksheet.NewRepository(db), auditSvc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.FiberErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.RequestLogger(log))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/sign-up", auth.SignUpHandler(authSvc))
	api.Post("/auth/sign-in", auth.SignInHandler(authSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(issuer, revocations))

	managers := auth.RequireRole(models.RoleAdmin, models.RoleManager)

	protected.Post("/auth/sign-out", auth.SignOutHandler(authSvc))
	protected.Get("/auth/me", auth.MeHandler(authSvc))

	// User management
	adminRoutes := protected.Group("/admin", managers)
	adminRoutes.Get("/users", admin.ListUsersHandler(adminSvc))
	adminRoutes.Post("/users", admin.CreateUserHandler(adminSvc))
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler(adminSvc))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(adminSvc))

	// Inventory
	protected.Get("/inventory", inventory.ListItemsHandler(invSvc))
	protected.Post("/inventory/refresh", managers, inventory.RefreshHandler(invSvc))
	protected.Get("/inventory/:id", inventory.GetItemHandler(invSvc))
	protected.Post("/inventory", inventory.CreateItemHandler(invSvc))
	protected.Put("/inventory/:id", inventory.UpdateItemHandler(invSvc))
	protected.Delete("/inventory/:id", inventory.DeleteItemHandler(invSvc))

	// Dashboards
	protected.Get("/dashboard", dashboard.DashboardHandler(invSvc, cfg.CurrencySymbol))
	protected.Get("/low-stock", dashboard.LowStockHandler(invSvc))
	protected.Get("/potential-revenue", dashboard.PotentialRevenueHandler(invSvc, cfg.CurrencySymbol, time.Now))

	// Stock-item catalog
	protected.Get("/stock-items", catalog.ListStockItemsHandler(catalogSvc))
	protected.Post("/stock-items", managers, catalog.CreateStockItemHandler(catalogSvc))
	protected.Put("/stock-items/:id", managers, catalog.UpdateStockItemHandler(catalogSvc))
	protected.Delete("/stock-items/:id", managers, catalog.DeleteStockItemHandler(catalogSvc))

	// Stock sheets
	sheets := protected.Group("/stock-sheets")
	sheets.Get("/", stocksheet.ListSheetsHandler(sheetSvc))
	sheets.Post("/", stocksheet.CreateSheetHandler(sheetSvc))
	sheets.Get("/:id", stocksheet.GetSheetHandler(sheetSvc))
	sheets.Put("/:id", stocksheet.UpdateSheetHandler(sheetSvc))
	sheets.Delete("/:id", managers, stocksheet.DeleteSheetHandler(sheetSvc))
	sheets.Post("/:id/finalize", stocksheet.FinalizeHandler(sheetSvc))
	sheets.Post("/:id/reopen", stocksheet.ReopenHandler(sheetSvc))
	sheets.Post("/:id/toggle-status", stocksheet.ToggleStatusHandler(sheetSvc))

	sheets.Get("/:id/movements", stocksheet.ListMovementsHandler(sheetSvc))
	sheets.Post("/:id/movements", stocksheet.CreateMovementHandler(sheetSvc))
	sheets.Put("/:id/movements/:recordId", stocksheet.UpdateMovementHandler(sheetSvc))
	sheets.Delete("/:id/movements/:recordId", stocksheet.DeleteMovementHandler(sheetSvc))

	sheets.Get("/:id/sales", stocksheet.ListSalesHandler(sheetSvc))
	sheets.Post("/:id/sales", stocksheet.CreateSaleHandler(sheetSvc))
	sheets.Put("/:id/sales/:recordId", stocksheet.UpdateSaleHandler(sheetSvc))
	sheets.Delete("/:id/sales/:recordId", stocksheet.DeleteSaleHandler(sheetSvc))

	sheets.Get("/:id/expenses", stocksheet.ListExpensesHandler(sheetSvc))
	sheets.Post("/:id/expenses", stocksheet.CreateExpenseHandler(sheetSvc))
	sheets.Put("/:id/expenses/:recordId", stocksheet.UpdateExpenseHandler(sheetSvc))
	sheets.Delete("/:id/expenses/:recordId", stocksheet.DeleteExpenseHandler(sheetSvc))

	sheets.Get("/:id/income-statement", stocksheet.IncomeStatementHandler(sheetSvc))
	sheets.Get("/:id/income-statement/export", stocksheet.ExportIncomeStatementHandler(sheetSvc, cfg.BusinessName, cfg.CurrencySymbol))

	// Audit logs
	protected.Get("/audit-logs", managers, audit.ListAuditLogsHandler(auditSvc))
	protected.Post("/audit-logs/:id/undo", auth.RequireRole(models.RoleAdmin), audit.UndoAuditLogHandler(auditSvc))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Infow("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorw("shutdown", "error", err)
		}
	}()

	log.Infow("server listening", "port", cfg.HTTPPort)
	return app.Listen(":" + cfg.HTTPPort)
}
