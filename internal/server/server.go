// Package server
//
// @title Wanderlust API
// @version 1.0
// @description Travel agency site API: accounts, gallery, packages and contact inbox
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/auth"
	"github.com/wanderlust-dev/wanderlust/internal/clerkauth"
	"github.com/wanderlust-dev/wanderlust/internal/config"
	"github.com/wanderlust-dev/wanderlust/internal/database"
	"github.com/wanderlust-dev/wanderlust/internal/live"
)

// TaskEnqueuer is the part of *asynq.Client the API uses
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	issuer    *auth.Issuer
	tasks     TaskEnqueuer
	clerk     clerkauth.Verifier
	hub       *live.Hub
	version   string
}

// Deps are the collaborators New builds from configuration.
// Tests construct them directly and call NewWithDeps.
type Deps struct {
	DB    *gorm.DB
	Tasks TaskEnqueuer
	Clerk clerkauth.Verifier
	Hub   *live.Hub
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := database.Open(cfg.Database, zlog)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		DB: db,
		Tasks: asynq.NewClient(asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		}),
	}

	if cfg.Auth.ClerkSecretKey != "" {
		deps.Clerk = clerkauth.NewSDKVerifier(cfg.Auth.ClerkSecretKey)
	} else {
		zlog.Warn().Msg("CLERK_SECRET_KEY not set - Clerk sign-in disabled")
	}

	return NewWithDeps(cfg, zlog, version, deps)
}

// NewWithDeps wires a server around already constructed collaborators
func NewWithDeps(cfg *config.Config, zlog zerolog.Logger, version string, deps Deps) (*Server, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// 64 hex characters = 32 bytes of randomness
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		zlog.Warn().Msg("JWT_SECRET not set - using an ephemeral secret, tokens will not survive a restart")
	}
	if cfg.Auth.ClerkWebhookSecret == "" {
		zlog.Warn().Msg("CLERK_WEBHOOK_SECRET not set - Clerk webhooks will be rejected")
	}

	if err := os.MkdirAll(filepath.Join(cfg.Uploads.Dir, galleryDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	hub := deps.Hub
	if hub == nil {
		hub = live.NewHub(zlog)
	}

	server := &Server{
		db:        deps.DB,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		issuer:    auth.NewIssuer(secret, time.Duration(cfg.Auth.JWTExpirationHours)*time.Hour),
		tasks:     deps.Tasks,
		clerk:     deps.Clerk,
		hub:       hub,
		version:   version,
	}

	server.setupRouter()

	return server, nil
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{3,20}$`)
)

func newValidator() *validator.Validate {
	validate := validator.New()

	// Report fields by their JSON / form names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return validate
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.MaxMultipartMemory = s.config.Uploads.MaxSizeMB << 20

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)
	s.router.Static(s.config.Uploads.PublicPath, s.config.Uploads.Dir)

	// Clerk pushes user lifecycle events here, verified by svix signature
	s.router.POST("/webhook/clerk", s.clerkWebhook)

	// Admin dashboard live feed, token passed as query parameter
	s.router.GET("/ws/admin", s.liveFeed)

	// Public endpoints
	public := s.router.Group("/api")
	{
		public.POST("/auth/register", s.register)
		public.POST("/auth/login", s.login)
		public.GET("/auth/clerk/identity", s.clerkIdentity)

		public.GET("/site-settings", s.getSiteSettings)
		public.GET("/gallery", s.listGallery)
		public.GET("/gallery/:id", s.getGalleryItem)
		public.GET("/tour-types", s.listTourTypes)
		public.GET("/tour-types/:id", s.getTourType)
		public.GET("/packages", s.listPackages)
		public.GET("/packages/:slug", s.getPackage)
		public.POST("/messages", s.createMessage)
	}

	// Authenticated endpoints
	api := s.router.Group("/api")
	api.Use(s.JWTAuthMiddleware())
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)
		api.PUT("/auth/profile", s.updateProfile)
		api.PUT("/auth/change-password", s.changePassword)
		api.POST("/auth/refresh-token", s.refreshToken)
		api.POST("/auth/make-admin", s.makeAdmin)

		admin := api.Group("")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/admin/users", s.listUsers)
			admin.PATCH("/admin/users/:id/role", s.updateUserRole)

			admin.POST("/gallery", s.createGalleryItem)
			admin.PUT("/gallery/:id", s.updateGalleryItem)
			admin.DELETE("/gallery/:id", s.deleteGalleryItem)

			admin.GET("/messages", s.listMessages)
			admin.GET("/messages/:id", s.getMessage)
			admin.PATCH("/messages/:id/status", s.updateMessageStatus)
			admin.DELETE("/messages/:id", s.deleteMessage)

			admin.PUT("/site-settings", s.updateSiteSettings)

			admin.POST("/tour-types", s.createTourType)
			admin.PUT("/tour-types/:id", s.updateTourType)
			admin.DELETE("/tour-types/:id", s.deleteTourType)

			admin.POST("/packages", s.createPackage)
			admin.PUT("/packages/:id", s.updatePackage)
			admin.DELETE("/packages/:id", s.deletePackage)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "wanderlust-api",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// bindJSON decodes the body into req and runs validation, writing a 400 on failure
func (s *Server) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		respondFail(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// enqueue schedules a background task; failures are logged and never fail the request
func (s *Server) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) {
	if s.tasks == nil {
		return
	}
	if _, err := s.tasks.EnqueueContext(ctx, task, opts...); err != nil {
		s.logger.Error().Err(err).Str("task", task.Type()).Msg("Failed to enqueue task")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("port", port).Str("version", s.version).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	s.hub.Close()

	if s.tasks != nil {
		if err := s.tasks.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
