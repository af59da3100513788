package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ca-backoffice/internal/auth"
	"ca-backoffice/internal/cache"
	"ca-backoffice/internal/database"
	"ca-backoffice/internal/events"
	"ca-backoffice/internal/license"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ProductionMode bool
	AllowOrigins   []string
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	repo        *database.Repository
	eventBus    *events.EventBus
	config      ServerConfig
	authService *auth.Service
	enforcer    *license.Enforcer
	issuer      *license.Issuer
	cache       *cache.Service
	rateLimiter *RateLimiter
	log         zerolog.Logger
	startedAt   time.Time
}

// NewServer creates a new API server. cacheService may be nil when Redis
// is disabled.
func NewServer(
	config ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	authService *auth.Service,
	enforcer *license.Enforcer,
	issuer *license.Issuer,
	cacheService *cache.Service,
	log zerolog.Logger,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(config.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		repo:        repo,
		eventBus:    eventBus,
		config:      config,
		authService: authService,
		enforcer:    enforcer,
		issuer:      issuer,
		cache:       cacheService,
		rateLimiter: NewRateLimiter(300, time.Minute),
		log:         log.With().Str("component", "api").Logger(),
		startedAt:   time.Now(),
	}

	server.setupRoutes()

	InitWebSocket(eventBus, server.log)

	return server
}

// rateLimitMiddleware limits requests per endpoint path.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes. Login, health, and the license
// activation and status endpoints stay reachable without a valid license so
// an expired installation can be recovered; everything else sits behind the
// enforcement middleware.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	jwtManager := s.authService.GetJWTManager()

	authHandlers := auth.NewHandlers(s.authService)
	authGroup := s.router.Group("/api/auth")
	authHandlers.RegisterRoutes(authGroup, jwtManager)

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	api.Use(auth.Middleware(jwtManager))

	// License lifecycle, outside the enforcement gate.
	lic := api.Group("/license")
	{
		lic.GET("/status", s.handleLicenseStatus)
		lic.GET("/history", auth.RequireAdmin(), s.handleLicenseHistory)
		lic.POST("/activate", auth.RequireAdmin(), s.handleActivateLicense)
		lic.DELETE("", auth.RequireAdmin(), s.handleDeactivateLicense)
		lic.POST("/generate", auth.RequireAdmin(), s.handleGenerateLicense)
		lic.POST("/extend", auth.RequireAdmin(), s.handleExtendLicense)
		lic.POST("/inspect", auth.RequireAdmin(), s.handleInspectLicense)
	}

	// Everything below requires a valid, within-seats license.
	protected := api.Group("")
	protected.Use(s.enforcer.Middleware())
	{
		protected.GET("/license/feature/:feature", s.handleCheckFeature)

		protected.GET("/ws", s.handleWebSocket)

		staff := protected.Group("/staff")
		{
			staff.GET("", s.handleListStaff)
			staff.GET("/:id", s.handleGetStaff)
			staff.POST("", auth.RequireAdmin(), s.handleCreateStaff)
			staff.PUT("/:id", auth.RequireAdmin(), s.handleUpdateStaff)
			staff.POST("/:id/status", auth.RequireAdmin(), s.handleSetStaffStatus)
		}

		clients := protected.Group("/clients")
		{
			clients.GET("", s.handleListClients)
			clients.GET("/:id", s.handleGetClient)
			clients.POST("", s.handleCreateClient)
			clients.PUT("/:id", s.handleUpdateClient)
			clients.DELETE("/:id", auth.RequireAdmin(), s.handleDeleteClient)
		}

		tasks := protected.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.GET("/:id", s.handleGetTask)
			tasks.POST("", s.handleCreateTask)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.POST("/:id/complete", s.handleCompleteTask)
			tasks.DELETE("/:id", auth.RequireAdmin(), s.handleDeleteTask)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.GET("", s.handleListInvoices)
			invoices.GET("/:id", s.handleGetInvoice)
			invoices.POST("", s.handleCreateInvoice)
			invoices.POST("/:id/status", s.handleSetInvoiceStatus)
			invoices.GET("/:id/receipts", s.handleListReceipts)
			invoices.POST("/:id/receipts", s.handleCreateReceipt)
		}

		attendance := protected.Group("/attendance")
		{
			attendance.POST("/check-in", s.handleCheckIn)
			attendance.POST("/check-out", s.handleCheckOut)
			attendance.GET("/day", s.handleAttendanceForDay)
			attendance.GET("/staff/:id", s.handleAttendanceForStaff)
		}

		protected.GET("/audit-logs", auth.RequireAdmin(), s.handleListAuditLogs)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
