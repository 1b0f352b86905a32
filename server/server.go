// Package server exposes the tutor over HTTP:
//
//	GET  /         greeting
//	POST /chat     {"prompt": "..."} -> {"response": "..."}
//	GET  /healthz  liveness
//	GET  /metrics  Prometheus exposition (when metrics are enabled)
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hupe1980/tutormesh/logging"
	"github.com/hupe1980/tutormesh/metrics"
)

// Answerer answers one question; *tutormesh.Tutor satisfies it.
type Answerer interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// Options configure a Server.
type Options struct {
	AllowOrigins []string
	Logger       logging.Logger
	Metrics      *metrics.Metrics
	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration
}

// Server is the echo based HTTP front end.
type Server struct {
	echo     *echo.Echo
	answerer Answerer
	opts     Options
}

// New creates a Server and registers its routes.
func New(answerer Answerer, optFns ...func(o *Options)) *Server {
	opts := Options{
		AllowOrigins:    []string{"http://localhost:3000"},
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, answerer: answerer, opts: opts}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.observe)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	e.GET("/", s.root)
	e.POST("/chat", s.chat)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	return s
}

// Handler returns the server as http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)

	go func() {
		s.opts.Logger.Info("server.start", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.opts.Logger.Info("server.shutdown", "addr", addr)

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Hello, World!"})
}

func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	answer, err := s.answerer.Ask(c.Request().Context(), req.Prompt)
	if err != nil {
		return fmt.Errorf("answer prompt: %w", err)
	}

	return c.JSON(http.StatusOK, ChatResponse{Response: answer})
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.opts.Logger.Error("server.request.error", "method", req.Method, "path", req.URL.Path, "code", code, "error", err.Error())
	} else {
		s.opts.Logger.Debug("server.request.rejected", "method", req.Method, "path", req.URL.Path, "code", code, "error", msg)
	}

	if c.Response().Committed {
		return
	}

	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, map[string]string{"error": msg})
}

// observe counts requests per route and status code.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		code := c.Response().Status
		if err != nil {
			code = http.StatusInternalServerError
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
		}

		s.opts.Metrics.ObserveHTTP(c.Request().Method, c.Path(), code)

		return err
	}
}
