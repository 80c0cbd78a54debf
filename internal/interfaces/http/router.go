package http

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/ventas-api/internal/application/reporting"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CreateSale        *sales.CreateSaleUseCase
	SaleQuery         *sales.QueryUseCase
	ProductUC         *usecase.ProductUseCase
	StockUC           *usecase.StockUseCase
	CategoryUC        *usecase.CategoryUseCase
	ClientUC          *usecase.ClientUseCase
	StatsUC           *reporting.StatsUseCase
	LowStockThreshold int64
}

// AppConfig opciones del servidor fiber.
type AppConfig struct {
	Name        string
	SwaggerFile string // se monta /docs solo si el archivo existe
	Log         *logger.Logger
	Metrics     *metrics.Metrics
}

// NewApp crea la aplicación fiber con middlewares, /health, /metrics, /docs y las rutas de la API.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(RequestLogger(cfg.Log, cfg.Metrics))
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    cfg.Name,
			}))
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Name})
	})
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	ventas := api.Group("/ventas")
	saleHandler := NewSaleHandler(deps.CreateSale, deps.SaleQuery)
	ventas.Post("/", saleHandler.Create)
	ventas.Get("/", saleHandler.List)
	ventas.Get("/:id", saleHandler.GetByID)

	productos := api.Group("/productos")
	productHandler := NewProductHandler(deps.ProductUC, deps.StockUC, deps.LowStockThreshold)
	productos.Post("/", productHandler.Create)
	productos.Get("/", productHandler.List)
	productos.Get("/bajo-stock", productHandler.LowStock)
	productos.Get("/:id", productHandler.GetByID)
	productos.Put("/:id", productHandler.Update)
	productos.Delete("/:id", productHandler.Delete)
	productos.Post("/:id/stock", productHandler.Credit)
	productos.Get("/:id/movimientos", productHandler.Movements)

	categorias := api.Group("/categorias")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categorias.Post("/", categoryHandler.Create)
	categorias.Get("/", categoryHandler.List)
	categorias.Get("/:id", categoryHandler.GetByID)
	categorias.Put("/:id", categoryHandler.Update)
	categorias.Delete("/:id", categoryHandler.Delete)

	clientes := api.Group("/clientes")
	clientHandler := NewClientHandler(deps.ClientUC)
	clientes.Post("/", clientHandler.Create)
	clientes.Get("/", clientHandler.List)
	clientes.Get("/:id", clientHandler.GetByID)
	clientes.Put("/:id", clientHandler.Update)
	clientes.Delete("/:id", clientHandler.Delete)

	api.Get("/estadisticas", NewStatsHandler(deps.StatsUC).Get)
}
