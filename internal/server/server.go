package server

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskapi/internal/auth"
	"taskapi/internal/models"
	"taskapi/internal/storage"
)

// Options carries the settings the HTTP layer needs from the process config.
type Options struct {
	CORSOrigins []string
	Debug       bool
}

// Server provides HTTP handlers for the task API.
type Server struct {
	engine   *gin.Engine
	store    *storage.Store
	verifier *auth.Verifier
	logger   *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *storage.Store, verifier *auth.Verifier, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	srv := &Server{
		engine:   router,
		store:    store,
		verifier: verifier,
		logger:   logger,
	}

	router.Use(srv.requestID())
	router.Use(srv.requestLogger())
	router.Use(gin.CustomRecoveryWithWriter(io.Discard, srv.recoverPanic))
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires the health, info and task handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/health/db", s.handleHealthDB)

	api := s.engine.Group("/api")
	{
		tasks := api.Group("/:user_id/tasks", s.authorizeOwner(ownerFromPath))
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/:task_id", s.handleGetTask)
			tasks.PUT("/:task_id", s.handleUpdateTask)
			tasks.DELETE("/:task_id", s.handleDeleteTask)
			tasks.PATCH("/:task_id/complete", s.handleToggleTask)
		}
	}

	s.engine.NoRoute(s.handleNoRoute)
	s.engine.NoMethod(s.handleNoMethod)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	return cfg
}

func ownerFromPath(c *gin.Context) string {
	return c.Param("user_id")
}

// parseTaskID converts the task_id path parameter to int64.
func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		return 0, models.Invalid("path.task_id", "Input should be a valid integer, unable to parse string as an integer", "int_parsing")
	}
	return id, nil
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
