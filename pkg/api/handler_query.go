package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/orchestrator"
)

// Query handles POST /api/v1/query: the non-streaming RAG pipeline.
func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := s.orch.ExecuteQuery(ctx, orchestrator.QueryRequest{
		Query:   req.Query,
		Filters: req.Filters,
		UserID:  req.UserID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// QueryStream handles POST /api/v1/query/stream: the RAG pipeline with
// progress events delivered as Server-Sent Events. The subscription is
// set up before the pipeline starts so no event can be missed.
func (s *Server) QueryStream(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	ch, cancelSub := s.bus.Subscribe(events.SessionChannel(sessionID))
	defer cancelSub()

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := s.orch.ExecuteQueryStream(ctx, orchestrator.QueryRequest{
			Query:     req.Query,
			Filters:   req.Filters,
			UserID:    req.UserID,
			SessionID: sessionID,
		})
		done <- err
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Session-ID", sessionID)

	// Stream until the terminal complete or error event, then drain the
	// pipeline goroutine.
	finished := false
	c.Stream(func(w io.Writer) bool {
		if finished {
			return false
		}
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			if event.Type == events.TypeComplete || event.Type == events.TypeError {
				finished = true
			}
			return !finished
		case <-ctx.Done():
			return false
		}
	})

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		// The error event already went to the client; nothing to add.
		return
	}
}
