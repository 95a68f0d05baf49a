package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/daneshm/school-records-api/api/swagger"
	"github.com/daneshm/school-records-api/internal/handler"
	"github.com/daneshm/school-records-api/internal/middleware"
	"github.com/daneshm/school-records-api/internal/repository"
	"github.com/daneshm/school-records-api/internal/service"
	"github.com/daneshm/school-records-api/pkg/cache"
	"github.com/daneshm/school-records-api/pkg/config"
	"github.com/daneshm/school-records-api/pkg/database"
	"github.com/daneshm/school-records-api/pkg/logger"
	corsmiddleware "github.com/daneshm/school-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/daneshm/school-records-api/pkg/middleware/requestid"
)

// @title School Records API
// @version 1.0.0
// @description Student records, grades, attendance and performance summaries
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, studentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, validate, logr)
	summarySvc := service.NewSummaryService(studentRepo, gradeRepo, attendanceRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(summarySvc, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, summarySvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc, summarySvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, summarySvc)
	dashboardHandler := handler.NewDashboardHandler(summarySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/students", studentHandler.List)
	protected.POST("/students", studentHandler.Create)
	protected.GET("/students/:id", studentHandler.Get)
	protected.PUT("/students/:id", studentHandler.Update)
	protected.DELETE("/students/:id", studentHandler.Delete)
	protected.GET("/students/:id/grades", gradeHandler.ListByStudent)
	protected.GET("/students/:id/attendance", attendanceHandler.ListByStudent)
	protected.GET("/students/:id/attendance/summary", attendanceHandler.Summary)
	protected.GET("/students/:id/summary", dashboardHandler.StudentPerformance)

	protected.GET("/grades", gradeHandler.List)
	protected.POST("/grades", gradeHandler.Create)
	protected.GET("/grades/:id", gradeHandler.Get)
	protected.PUT("/grades/:id", gradeHandler.Update)
	protected.DELETE("/grades/:id", gradeHandler.Delete)

	protected.GET("/attendance", attendanceHandler.List)
	protected.POST("/attendance", attendanceHandler.Mark)
	protected.PUT("/attendance/:id", attendanceHandler.Update)
	protected.DELETE("/attendance/:id", attendanceHandler.Delete)

	protected.GET("/dashboard/roster", dashboardHandler.Roster)
	protected.GET("/exports/roster", exportHandler.Roster)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
