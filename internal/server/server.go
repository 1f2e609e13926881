package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mosinatet/commspec/internal/agent"
	"github.com/mosinatet/commspec/internal/config"
	"github.com/mosinatet/commspec/internal/service"
	"github.com/mosinatet/commspec/internal/service/platform"
	"github.com/mosinatet/commspec/internal/service/platform/devto"
	"github.com/mosinatet/commspec/internal/service/platform/twitter"
)

type Server struct {
	Config   *config.Config
	DB       *gorm.DB
	Router   *gin.Engine
	Logger   *zap.Logger
	Server   *http.Server
	Location *time.Location

	// Services
	Scheduler *service.JobScheduler
	Platforms *platform.Manager
	Posts     *service.PostService
	Comments  *service.CommentService
	Audit     *service.AuditService

	store service.Store
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store := service.NewGormStore(db)

	monitorInterval, err := time.ParseDuration(cfg.Scheduler.MonitorInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid monitor_interval: %w", err)
	}
	monitorWindow, err := time.ParseDuration(cfg.Scheduler.MonitorWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid monitor_window: %w", err)
	}

	// Platform adapters are registered once at startup; requests can only
	// target what is configured here.
	platforms := platform.NewManager(logger)
	if cfg.Platforms.DevTo.Enabled {
		if err := platforms.Register(devto.New(cfg.Platforms.DevTo, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Platforms.Twitter.Enabled {
		if err := platforms.Register(twitter.New(cfg.Platforms.Twitter, logger)); err != nil {
			return nil, err
		}
	}

	// Initialize services around the single process-wide scheduler
	scheduler := service.NewJobScheduler(cfg.Scheduler.Workers, logger)
	ruleAgent := agent.New(loc, logger)
	audit := service.NewAuditService(store, logger)
	comments := service.NewCommentService(store, scheduler, platforms, ruleAgent, ruleAgent,
		audit, logger, loc, monitorInterval, monitorWindow)
	posts := service.NewPostService(store, scheduler, platforms, service.NewEventResolver(loc),
		ruleAgent, ruleAgent, comments, audit, logger, loc)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Logger:    logger,
		Location:  loc,
		Scheduler: scheduler,
		Platforms: platforms,
		Posts:     posts,
		Comments:  comments,
		Audit:     audit,
		store:     store,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.POST("", s.handleSchedulePost)
			posts.GET("/scheduled", s.handleListScheduled)
			posts.GET("/:id", s.handleGetPost)
			posts.PUT("/:id", s.handleUpdatePost)
			posts.DELETE("/:id", s.handleCancelPost)
			posts.POST("/:id/monitor", s.handleStartMonitoring)
		}

		comments := api.Group("/comments")
		{
			comments.GET("/pending", s.handlePendingComments)
			comments.GET("/stats", s.handleCommentStats)
		}

		responses := api.Group("/responses")
		{
			responses.GET("", s.handleListTemplates)
			responses.POST("", s.handleCreateTemplate)
		}

		api.GET("/events", s.handleListEvents)
		api.GET("/platforms", s.handleListPlatforms)
		api.GET("/stats", s.handleStats)
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Re-arm timers that were live before the last shutdown
	monitorWindow, _ := time.ParseDuration(s.Config.Scheduler.MonitorWindow)
	if !s.Config.Scheduler.Disabled {
		if err := s.Posts.RestoreJobs(ctx, monitorWindow); err != nil {
			return fmt.Errorf("failed to restore jobs: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop timers first so no publish fires mid-shutdown
	s.Scheduler.Shutdown()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
