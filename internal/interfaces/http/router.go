package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReportUC     *ledger.ReportUseCase
	ImportUC     *ledger.ImportUseCase
	FeedConfigUC *ledger.FeedConfigUseCase
	JWTSecret    string
	Logger       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		stats, err := deps.ReportUC.Stats(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "ledger": stats})
	})

	api := app.Group("/api")

	// Reportes (público, solo lectura)
	report := NewReportHandler(deps.ReportUC)
	items := api.Group("/items")
	items.Get("/", report.ItemReport)
	items.Get("/search", report.Search)
	items.Get("/with-stock", report.WithStock)
	items.Get("/low-stock", report.LowStock)
	items.Get("/:code/stock", report.ItemStock)
	items.Get("/:code/lots", report.ItemLots)

	api.Get("/lots/summary", report.LotSummary)
	api.Get("/entries", report.Entries)

	exports := api.Group("/export")
	exports.Get("/items.csv", report.ExportItems)
	exports.Get("/lots.csv", report.ExportLots)

	// Importación y configuración del origen (Bearer Token, rol admin)
	adminOnly := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(jwt.RoleAdmin), h}
	}
	imp := NewImportHandler(deps.ImportUC, deps.FeedConfigUC, deps.Logger)
	api.Post("/import", adminOnly(imp.Import)...)
	api.Get("/feed-configs", adminOnly(imp.ListConfigs)...)
	api.Post("/feed-configs", adminOnly(imp.SaveConfig)...)
}
