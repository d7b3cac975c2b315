// Package api exposes the orchestrator over HTTP: JSON endpoints for
// the RAG and council pipelines, an SSE streaming variant, and a
// WebSocket feed of pipeline events.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/orchestrator"
)

// queryTimeout bounds one pipeline execution end to end.
const queryTimeout = 120 * time.Second

// Server wires HTTP handlers to the orchestrator.
type Server struct {
	orch *orchestrator.Orchestrator
	bus  *events.Bus
	cfg  config.ServerConfig
	// defaultStrategy applies when a council request omits one.
	defaultStrategy string
}

// NewServer creates an API server.
func NewServer(orch *orchestrator.Orchestrator, bus *events.Bus, cfg config.ServerConfig, defaultStrategy string) *Server {
	return &Server{
		orch:            orch,
		bus:             bus,
		cfg:             cfg,
		defaultStrategy: defaultStrategy,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", s.Health)
	router.GET("/ws", s.HandleWS)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/query", s.Query)
		v1.POST("/query/stream", s.QueryStream)
		v1.POST("/council", s.Council)
		v1.GET("/history", s.History)
	}
	return router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "conclave",
	})
}
