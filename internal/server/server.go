package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/catalog"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/render"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability"
	obsmiddleware "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/logger"
	obsmetrics "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/metrics"
	obstracing "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/tracing"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/ratelimit"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(HTTPMetrics(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ginParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.Metrics `optional:"true"`
}

func registerGin(p ginParams) *gin.Engine {
	if p.ObsCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(p.ObsCfg, p.HTTPMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	devisConfig   *config.DevisConfigHolder
	devisSvc      devisdomain.Service
	catalog       *catalog.Catalog
	renderer      *render.Renderer
	obsMetrics    *obsmetrics.Metrics
	writeLimiter  *ipRateLimiter
	sharedLimiter *ratelimit.WriteLimiter
	responseCache *cache.Cache
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DevisConfig *config.DevisConfigHolder
	DevisSvc    devisdomain.Service
	Catalog     *catalog.Catalog
	Renderer    *render.Renderer
	ObsMetrics  *obsmetrics.Metrics     `optional:"true"`
	Limiter     *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	ttl := p.DevisConfig.Get().CatalogCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		devisConfig:   p.DevisConfig,
		devisSvc:      p.DevisSvc,
		catalog:       p.Catalog,
		renderer:      p.Renderer,
		obsMetrics:    p.ObsMetrics,
		writeLimiter:  newIPRateLimiter(p.DevisConfig),
		sharedLimiter: p.Limiter,
		responseCache: cache.New(ttl, 2*ttl),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Catalog --------
	api.GET("/catalog", s.CacheResponse(), s.GetCatalog)
	api.GET("/catalog/rooms", s.CacheResponse(), s.ListCatalogRooms)
	api.GET("/tax-rates", s.ListTaxRates)

	// -------- Devis --------
	api.POST("/devis", s.WriteRateLimit(), s.CreateDevis)
	api.GET("/devis/:id", s.GetDevis)
	api.PUT("/devis/:id/fields/:field", s.WriteRateLimit(), s.SetDevisField)
	api.GET("/devis/:id/totals", s.GetDevisTotals)
	api.GET("/devis/:id/pdf", s.RenderDevisPDF)

	// -------- Surfaces --------
	api.GET("/devis/:id/surfaces", s.ListSurfaces)
	api.PATCH("/devis/:id/surfaces/:room", s.WriteRateLimit(), s.EditSurface)

	// -------- Items --------
	api.POST("/devis/:id/items", s.WriteRateLimit(), s.AddCatalogItem)
	api.POST("/devis/:id/items/custom", s.WriteRateLimit(), s.AddCustomItem)
	api.PATCH("/devis/:id/items/:itemId", s.WriteRateLimit(), s.UpdateItem)
	api.DELETE("/devis/:id/items/:itemId", s.WriteRateLimit(), s.RemoveItem)
	api.POST("/devis/:id/items/:itemId/gift", s.WriteRateLimit(), s.SetItemGifted)
	api.POST("/devis/:id/items/:itemId/image", s.WriteRateLimit(), s.UploadItemImage)
}
