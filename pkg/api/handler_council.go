package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conclave-ai/conclave/pkg/consensus"
	"github.com/conclave-ai/conclave/pkg/orchestrator"
)

// Council handles POST /api/v1/council: multi-voter consensus with
// optional debate rounds.
func (s *Server) Council(c *gin.Context) {
	var req CouncilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = s.defaultStrategy
	}
	if req.DebateRounds == 0 {
		req.DebateRounds = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := s.orch.ExecuteCouncilVoting(ctx, orchestrator.CouncilRequest{
		Query:            req.Query,
		Strategy:         req.Strategy,
		IncludeSynthesis: req.IncludeSynthesis,
		DebateRounds:     req.DebateRounds,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, consensus.ErrUnknownStrategy) || errors.Is(err, orchestrator.ErrInvalidDebateRounds) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles GET /api/v1/history: the bounded execution log.
func (s *Server) History(c *gin.Context) {
	entries := s.orch.History().Entries()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}
