package main

import (
	"context"
	"log/slog"
	"os"

	_ "absensi/api/swagger" // swagger docs
	"absensi/internal/access"
	"absensi/internal/config"
	"absensi/internal/database"
	"absensi/internal/handler"
	"absensi/internal/identity"
	"absensi/internal/metrics"
	"absensi/internal/middleware"
	"absensi/internal/repository"
	"absensi/internal/repository/memory"
	"absensi/internal/service"
	"absensi/internal/session"
	"absensi/internal/storage"
	"absensi/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Absensi API
// @version         1.0
// @description     Employee attendance: check-in with photo and location, dashboards and employee management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.GinMode)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	stores, err := openStores(cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	logger.Info("storage ready", "driver", cfg.DBDriver)

	cache, closeCache, err := openSessionCache(cfg)
	if err != nil {
		logger.Error("session cache unavailable", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	blobs, err := storage.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		logger.Error("blob store unavailable", "error", err)
		os.Exit(1)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	provider := identity.NewProvider(stores.accounts, cfg.JWTSecret, cfg.TokenTTL)
	watchSessions(provider, cache, wsHub, logger)

	gate := access.NewGate(provider, stores.profiles, cache, logger)

	// Set up dependencies (Repository -> Service -> Handler)
	attendanceService := service.NewAttendanceService(stores.attendance, stores.audit, stores.tx, blobs, wsHub, cfg.Location)
	dashboardService := service.NewDashboardService(stores.statistics, stores.attendance, stores.profiles, cfg.Location)
	profileService := service.NewProfileService(stores.profiles, stores.attendance, stores.audit, stores.tx, provider, wsHub)
	auditService := service.NewAuditService(stores.audit)

	handler.RegisterValidators()
	authHandler := handler.NewAuthHandler(provider, profileService, gate)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, gate)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, gate, cfg.Location)
	profileHandler := handler.NewProfileHandler(profileService, gate)
	auditHandler := handler.NewAuditHandler(auditService, gate)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger(), metrics.GinMiddleware())
	router.MaxMultipartMemory = handler.MaxPhotoUpload

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/files", blobs.Root())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "dashboards": wsHub.ClientCount()})
	})

	router.GET("/ws", middleware.RequirePage(gate, access.AdminPage), func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// API Routing
	authHandler.RegisterRoutes(router.Group(""))
	attendanceHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	profileHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	logger.Info("server listening", "port", cfg.Port, "timezone", cfg.Location.String())
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(mode string) *slog.Logger {
	if mode == gin.ReleaseMode {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type stores struct {
	accounts   repository.AccountRepository
	profiles   repository.ProfileRepository
	attendance repository.AttendanceRepository
	statistics repository.StatisticsRepository
	audit      repository.AuditRepository
	tx         repository.TransactionManager
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.DBDriver == "memory" {
		m := memory.NewStore()
		return &stores{
			accounts:   m.Accounts(),
			profiles:   m.Profiles(),
			attendance: m.Attendance(),
			statistics: m.Statistics(),
			audit:      m.Audit(),
			tx:         m.TxManager(),
		}, nil
	}

	db, err := database.NewConnection(cfg.DSN, cfg.GinMode == gin.DebugMode)
	if err != nil {
		return nil, err
	}
	return &stores{
		accounts:   repository.NewAccountRepository(db),
		profiles:   repository.NewProfileRepository(db),
		attendance: repository.NewAttendanceRepository(db),
		statistics: repository.NewStatisticsRepository(db),
		audit:      repository.NewAuditRepository(db),
		tx:         repository.NewTransactionManager(db),
	}, nil
}

func openSessionCache(cfg *config.Config) (session.Cache, func(), error) {
	if cfg.SessionCache == "redis" {
		rc, err := session.NewRedisCache(cfg.RedisURL, cfg.TokenTTL)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}
	return session.NewMemoryCache(), func() {}, nil
}

// watchSessions clears the cached profile when a session ends and mirrors
// session transitions into metrics and the dashboard feed
func watchSessions(provider *identity.Provider, cache session.Cache, hub *websocket.Hub, logger *slog.Logger) {
	provider.OnChange(func(t identity.Transition) {
		metrics.ObserveSessionTransition(string(t.Kind))
		if t.Kind == identity.SessionEnded {
			if err := cache.Clear(context.Background(), t.SessionID); err != nil {
				logger.Warn("session cache clear failed", "session_id", t.SessionID, "error", err)
			}
			return
		}
		hub.Publish("session."+string(t.Kind), t)
	})
}
