package api

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"diagram2terraform/internal/session"
	"diagram2terraform/internal/workflow"
)

type Options struct {
	Sessions       *session.Store
	NewWorkflow    func() *workflow.Workflow
	Logger         *slog.Logger
	MaxUploadBytes int64
	RequestTimeout time.Duration
	// Static serves the browser front-end at "/"; nil disables it.
	Static fs.FS
}

type Server struct {
	echo           *echo.Echo
	sessions       *session.Store
	newWorkflow    func() *workflow.Workflow
	logger         *slog.Logger
	maxUploadBytes int64
	requestTimeout time.Duration
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 240 * time.Second
	}

	newWorkflow := opts.NewWorkflow
	if newWorkflow == nil {
		newWorkflow = func() *workflow.Workflow { return workflow.New(workflow.Options{Logger: logger}) }
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{NewWorkflow: newWorkflow})
	}

	s := &Server{
		echo:           echo.New(),
		sessions:       sessions,
		newWorkflow:    newWorkflow,
		logger:         logger,
		maxUploadBytes: maxUpload,
		requestTimeout: timeout,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = ErrorHandler

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http",
				"method", v.Method,
				"path", v.URI,
				"status", v.Status,
				"dur_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	s.registerRoutes(opts.Static)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes(static fs.FS) {
	api := s.echo.Group("/api")

	api.GET("/health", s.handleHealth)
	api.GET("/providers", s.handleProviders)
	api.POST("/generate", s.handleGenerateOnce)

	sessions := api.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.PUT("/:id/image", s.handleSetImage)
	sessions.DELETE("/:id/image", s.handleClearImage)
	sessions.PUT("/:id/provider", s.handleSetProvider)
	sessions.POST("/:id/tags", s.handleAddTag)
	sessions.DELETE("/:id/tags/:key", s.handleRemoveTag)
	sessions.POST("/:id/generate", s.handleGenerate)
	sessions.GET("/:id/files/:index/download", s.handleDownloadFile)
	sessions.POST("/:id/files/:index/copied", s.handleFileCopied)
	sessions.POST("/:id/files/:index/copy-failed", s.handleFileCopyFailed)

	if static != nil {
		s.echo.GET("/*", echo.WrapHandler(http.FileServer(http.FS(static))))
	}
}
