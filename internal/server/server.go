// Package server exposes the workflow engine over HTTP. Turns are streamed
// to the client as server-sent events, one event per workflow step.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/session"
)

// Options configures the HTTP server.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger

	// Registry receives the Prometheus metrics. Defaults to a fresh
	// registry if nil.
	Registry *prometheus.Registry
}

// Server wires the workflow engine into an Echo HTTP application.
type Server struct {
	echo    *echo.Echo
	graph   *graph.Graph
	metrics *Metrics
	logger  logging.Logger
}

type turnRequest struct {
	Input string `json:"input"`
}

// New creates the HTTP server and registers all routes.
func New(g *graph.Graph, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		graph:   g,
		metrics: NewMetrics(opts.Registry),
		logger:  opts.Logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	v1 := e.Group("/v1")
	v1.POST("/threads/:id/turns", s.handleTurn)
	v1.GET("/threads/:id", s.handleGetThread)
	v1.DELETE("/threads/:id", s.handleDeleteThread)

	s.echo = e
	return s
}

// Start begins serving on the given address and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleTurn runs one workflow turn and streams its steps as SSE events.
// Each step becomes an "event: step" record; a fatal error becomes a single
// "event: error" record before the stream closes.
func (s *Server) handleTurn(c echo.Context) error {
	threadID := c.Param("id")

	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Input == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "input must not be empty")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	start := time.Now()
	steps, errs := s.graph.Turn(ctx, threadID, req.Input)

	for step := range steps {
		s.metrics.StepsTotal.WithLabelValues(string(step.State)).Inc()
		if err := writeEvent(resp, "step", step); err != nil {
			s.logger.Warn("server.stream.aborted", "thread_id", threadID, "error", err)
			return nil
		}
		resp.Flush()
	}

	outcome := "ok"
	if err := <-errs; err != nil {
		outcome = "error"
		s.logger.Error("server.turn.failed", "thread_id", threadID, "error", err)
		_ = writeEvent(resp, "error", map[string]string{"error": err.Error()})
		resp.Flush()
	}

	s.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	s.metrics.TurnDuration.Observe(time.Since(start).Seconds())
	return nil
}

// handleGetThread returns the full checkpointed session for a thread.
func (s *Server) handleGetThread(c echo.Context) error {
	sess, err := s.graph.Session(c.Request().Context(), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "thread not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

// handleDeleteThread removes a thread's checkpoint.
func (s *Server) handleDeleteThread(c echo.Context) error {
	if err := s.graph.Forget(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
