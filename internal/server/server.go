// Package server exposes the ledger commands over HTTP. Every request runs
// one full load/operate/persist cycle; requests are serialized.
package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tiliavir/litt/internal/app"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ExitCodeHeader carries the exit code the equivalent CLI call would end with.
const ExitCodeHeader = "X-Exit-Code"

// Options configures a Server.
type Options struct {
	// PresharedKey, when set, must be sent as "Authorization: Bearer <key>".
	PresharedKey string
	Logger       *slog.Logger
	// Registry receives the server metrics; nil creates a private one.
	Registry *prom.Registry
}

// Server is the HTTP front-end of an App.
type Server struct {
	app    *app.App
	router *gin.Engine
	logger *slog.Logger
	psk    string

	// mu serializes cycles against the one ledger document.
	mu sync.Mutex

	registry *prom.Registry
	requests *prom.CounterVec
	duration *prom.HistogramVec
}

// New creates a Server for a.
func New(a *app.App, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}

	s := &Server{
		app:      a,
		router:   gin.New(),
		logger:   logger,
		psk:      opts.PresharedKey,
		registry: reg,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Name: "litt_http_requests_total",
			Help: "HTTP requests by route and exit code",
		}, []string{"route", "exit_code"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "litt_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prom.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(s.requests, s.duration)

	s.router.Use(gin.Recovery(), s.requestID(), s.logRequests())
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})))

	api := s.router.Group("/", s.authenticate())
	{
		api.GET("/", s.handleStatus)
		api.GET("/ls", s.handleList)
		api.GET("/ls/:id", s.handleList)
		api.POST("/sw", s.handleToggle)
		api.POST("/sw/:q", s.handleToggle)
		api.POST("/start", s.handleStart)
		api.POST("/start/:q", s.handleStart)
		api.PUT("/stop", s.handleStop)
		api.POST("/interrupt", s.handleInterrupt)
		api.PUT("/resume", s.handleResume)
		api.DELETE("/cancel", s.handleCancel)
		api.POST("/track", s.handleTrack)
		api.PATCH("/amend", s.handleAmend)
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("serving ledger", "addr", addr, "authenticated", s.psk != "")
	return s.router.Run(addr)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		exit := c.Writer.Header().Get(ExitCodeHeader)
		if exit == "" {
			exit = "0"
		}
		s.requests.WithLabelValues(route, exit).Inc()
		s.duration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"exit_code", exit,
			"request_id", c.GetString(RequestIDHeader),
			"latency", elapsed,
		)
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.psk == "" {
			c.Next()
			return
		}
		want := "Bearer " + s.psk
		got := c.GetHeader("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid pre-shared key"})
			return
		}
		c.Next()
	}
}

func exitCodeString(code int) string {
	return strconv.Itoa(code)
}
