// Package devapi is a reference implementation of the structures directory
// API, protected by HTTP Basic authentication. It backs local development
// and the client's integration tests.
package devapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/healthmap/healthmap/internal/config"
)

// InMemoryDatabase keeps all data in a single in-process SQLite connection
const InMemoryDatabase = ":memory:"

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	db         *gorm.DB
	config     config.DevAPIConfig
	logger     zerolog.Logger
	bcryptCost int
	version    string
}

// Option configures a Server
type Option func(*Server)

// WithBcryptCost overrides the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.bcryptCost = cost
	}
}

// New creates a new server instance
func New(cfg config.DevAPIConfig, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	db, err := initDatabase(cfg.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	server := &Server{
		db:         db,
		config:     cfg,
		logger:     zlog,
		bcryptCost: bcrypt.DefaultCost,
		version:    version,
	}
	for _, opt := range opts {
		opt(server)
	}

	if cfg.AdminEmail != "" {
		if err := server.ensureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, err
		}
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the SQLite database. An in-memory database lives in a
// single connection, so the pool is capped at one.
func initDatabase(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if url == InMemoryDatabase {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=1",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
	}
	if url != InMemoryDatabase {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	// Invalid credentials are rejected on every route, public or not
	api := s.router.Group("/api")
	api.Use(BasicAuthMiddleware(s.db, s.logger))
	{
		api.POST("/login", RequireAuth(s.logger), s.login)

		// Structures: reads are public
		structures := api.Group("/structures")
		{
			structures.GET("", s.listStructures)
			structures.GET("/type/:type", s.structuresByType)
			structures.GET("/search", s.searchStructures)
			structures.GET("/region/:region", s.structuresByRegion)
			structures.GET("/region/:region/city/:city", s.structuresByRegionAndCity)
			structures.GET("/available_docs/:id", s.availableDocs)
			structures.GET("/filter", s.filterStructures)

			structures.POST("", RequireAuth(s.logger), s.createStructure)
			structures.POST("/:id/document", RequireAuth(s.logger), s.addDocument)
			structures.GET("/:id", RequireAdmin(s.logger), s.getStructure)
			structures.PUT("/:id", RequireAuth(s.logger), s.updateStructure)
			structures.DELETE("/:id", RequireAdmin(s.logger), s.deleteStructure)
		}

		// Members: sign-up is public, the roster is members-only
		members := api.Group("/membres_structures")
		{
			members.POST("", s.createMember)
			members.GET("", RequireMember(s.logger), s.listMembers)
			members.GET("/:id", RequireAdmin(s.logger), s.getMember)
			members.PUT("/:id", RequireAuth(s.logger), s.updateMember)
			members.DELETE("/:id", RequireAdmin(s.logger), s.deleteMember)
		}

		api.POST("/admins", s.createAdmin)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		event := s.logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = s.logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "healthmap-devapi",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or ctx ends
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			s.logger.Error().Err(err).Msg("HTTP server error")
			return err
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Closing database connection...")
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
