package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	"github.com/interrail/forwarding/internal/config"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	"github.com/interrail/forwarding/internal/observability"
	obsmiddleware "github.com/interrail/forwarding/internal/observability/logger"
	obsmetrics "github.com/interrail/forwarding/internal/observability/metrics"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
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
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authSvc         authdomain.Service
	territorySvc    territorydomain.Service
	counterpartySvc counterpartydomain.Service
	applicationSvc  applicationdomain.Service
	allocator       paymentcodedomain.Allocator
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	TerritorySvc    territorydomain.Service
	CounterpartySvc counterpartydomain.Service
	ApplicationSvc  applicationdomain.Service
	Allocator       paymentcodedomain.Allocator
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log,
		genID:           p.GenID,
		authSvc:         p.AuthSvc,
		territorySvc:    p.TerritorySvc,
		counterpartySvc: p.CounterpartySvc,
		applicationSvc:  p.ApplicationSvc,
		allocator:       p.Allocator,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	auth := r.Group("/auth")
	{
		auth.POST("/login/", s.Login)
		auth.POST("/logout/", s.Logout)
		auth.POST("/register/", s.Register)
		auth.GET("/me/", s.AuthRequired(), s.Me)
		auth.POST("/change_password/", s.AuthRequired(), s.ChangePassword)
	}

	api := r.Group("/", s.AuthRequired())
	{
		api.GET("/territories/", s.ListTerritories)
		api.POST("/territories/", s.CreateTerritory)
		api.GET("/territories/:id/", s.GetTerritory)
		api.PUT("/territories/:id/", s.UpdateTerritory)
		api.PATCH("/territories/:id/", s.UpdateTerritory)
		api.DELETE("/territories/:id/", s.DeleteTerritory)

		api.GET("/counterparties/", s.ListCounterparties)
		api.POST("/counterparties/", s.CreateCounterparty)
		api.GET("/counterparties/:id/", s.GetCounterparty)
		api.PUT("/counterparties/:id/", s.UpdateCounterparty)
		api.PATCH("/counterparties/:id/", s.UpdateCounterparty)
		api.DELETE("/counterparties/:id/", s.DeleteCounterparty)

		api.GET("/application/", s.ListApplications)
		api.POST("/application/create/", s.CreateApplication)
		api.GET("/application/:id/detail/", s.ApplicationDetail)
		api.PUT("/application/:id/update/", s.UpdateApplication)
		api.DELETE("/application/:id/delete/", s.DeleteApplication)

		api.POST("/code_range/:id/create/", s.AllocateCodes)
	}
}
