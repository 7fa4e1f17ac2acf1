package router

import (
	"time"

	"github.com/DiegoMao201/Cotizador-sub000/internal/config"
	"github.com/DiegoMao201/Cotizador-sub000/internal/handler"
	"github.com/DiegoMao201/Cotizador-sub000/internal/infra"
	"github.com/DiegoMao201/Cotizador-sub000/internal/middleware"
	"github.com/DiegoMao201/Cotizador-sub000/internal/repository"
	"github.com/DiegoMao201/Cotizador-sub000/internal/service"
	"github.com/DiegoMao201/Cotizador-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	empresa := infra.EmpresaInfo{Nombre: cfg.EmpresaNombre, NIT: cfg.EmpresaNIT}

	// ── Repositories ─────────────────────────────────────────────────────────
	cotizacionRepo := repository.NewCotizacionRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	cotizacionSvc := service.NewCotizacionService(cotizacionRepo, clienteRepo, dispatcher, cfg)
	clienteSvc := service.NewClienteService(clienteRepo, rdb)
	productoSvc := service.NewProductoService(productoRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cotizacionesH := handler.NewCotizacionesHandler(cotizacionSvc, cotizacionRepo, empresa)
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc)

	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		v1.POST("/cotizaciones", cotizacionesH.Nueva)
		v1.GET("/cotizaciones", cotizacionesH.Listar)
		v1.GET("/cotizaciones/:id", cotizacionesH.Cargar)
		v1.PUT("/cotizaciones/:id", cotizacionesH.Guardar)
		v1.POST("/cotizaciones/:id/enviar", cotizacionesH.Enviar)
		v1.GET("/cotizaciones/:id/pdf", cotizacionesH.PDF)

		v1.GET("/clientes", clientesH.Listar)
		v1.POST("/clientes", clientesH.Crear)

		v1.GET("/productos", productosH.Buscar)
	}

	return r
}
