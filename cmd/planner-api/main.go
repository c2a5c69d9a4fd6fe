package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mhutchins/course-planner-api/api/swagger"
	"github.com/mhutchins/course-planner-api/internal/handler"
	"github.com/mhutchins/course-planner-api/internal/middleware"
	"github.com/mhutchins/course-planner-api/internal/repository"
	"github.com/mhutchins/course-planner-api/internal/service"
	"github.com/mhutchins/course-planner-api/pkg/cache"
	"github.com/mhutchins/course-planner-api/pkg/config"
	"github.com/mhutchins/course-planner-api/pkg/database"
	"github.com/mhutchins/course-planner-api/pkg/logger"
	corsmiddleware "github.com/mhutchins/course-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mhutchins/course-planner-api/pkg/middleware/requestid"
)

// @title Course Planner API
// @version 1.0.0
// @description Weekly class-schedule planning over a live course catalog
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	scoreCfg, err := service.NewScoreConfig(cfg.Planner)
	if err != nil {
		logr.Sugar().Fatalw("invalid planner configuration", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	sectionRepo := repository.NewSectionRepository(db, logr)

	var catalogCache *repository.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		catalogCache = repository.NewCacheRepository(redisClient, logr)
	}

	var catalogSvc *service.CatalogService
	if catalogCache != nil {
		catalogSvc = service.NewCatalogService(sectionRepo, catalogCache, cfg.Catalog.CacheTTL, logr, metricsSvc)
	} else {
		catalogSvc = service.NewCatalogService(sectionRepo, nil, cfg.Catalog.CacheTTL, logr, metricsSvc)
	}

	resolver := service.NewCoreqResolver(catalogSvc, logr)
	scorer := service.NewScorer(scoreCfg)
	plannerSvc := service.NewPlannerService(
		catalogSvc,
		resolver,
		scorer,
		service.PlannerLimits{
			MaxRequestedCourses: cfg.Planner.MaxRequestedCourses,
			TopNResults:         cfg.Planner.TopNResults,
			MaxCombinations:     cfg.Planner.MaxCombinations,
		},
		nil,
		logr,
		metricsSvc,
	)
	exportSvc := service.NewExportService(logr, nil, nil)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
	})

	planHandler := handler.NewPlanHandler(plannerSvc, exportSvc)
	sectionHandler := handler.NewSectionHandler(catalogSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/plans", planHandler.Generate)
		api.GET("/courses/:courseId/sections", sectionHandler.ListSections)
		api.GET("/courses/:courseId/modalities", sectionHandler.ListModalities)
		api.GET("/sections/:sectionId", sectionHandler.GetSection)

		if cfg.Export.Enabled {
			api.POST("/plans/export", middleware.JWT(tokenSvc), planHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
