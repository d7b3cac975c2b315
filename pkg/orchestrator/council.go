package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/consensus"
	"github.com/conclave-ai/conclave/pkg/models"
)

// ExecuteCouncilVoting fans out all council voters concurrently,
// aggregates their votes with the requested strategy, and optionally
// runs debate rounds where voters see each other's prior answers.
//
// Individual voter failures are captured in the result's FailedVotes;
// only a total failure of the first round is fatal.
func (o *Orchestrator) ExecuteCouncilVoting(ctx context.Context, req CouncilRequest) (*CouncilResult, error) {
	start := time.Now()

	// Validation happens before any agent runs.
	if !consensus.ValidStrategy(req.Strategy) {
		return nil, fmt.Errorf("%w: %q", consensus.ErrUnknownStrategy, req.Strategy)
	}
	if req.DebateRounds < 1 || req.DebateRounds > o.opts.MaxDebateRounds {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidDebateRounds, req.DebateRounds, o.opts.MaxDebateRounds)
	}
	voters := o.registry.Voters()
	if len(voters) == 0 {
		return nil, fmt.Errorf("%w: no voters registered", ErrAllVotersFailed)
	}

	slog.Info("Starting council voting",
		"query_length", len(req.Query),
		"strategy", req.Strategy,
		"debate_rounds", req.DebateRounds,
		"voters", len(voters))

	// Round 1: every voter sees only the bare query.
	votes, failedVotes, totalUsage := o.runVoterRound(ctx, voters, agent.Input{Query: req.Query})
	if len(votes) == 0 {
		o.history.Record(HistoryEntry{
			Query:          req.Query,
			Pipeline:       "council",
			AgentsInvolved: voterNames(voters),
			Success:        false,
			Error:          ErrAllVotersFailed.Error(),
		})
		return nil, ErrAllVotersFailed
	}

	aggregation, synthUsage, err := o.aggregator.Aggregate(ctx, votes, req.Strategy, req.IncludeSynthesis)
	if err != nil {
		return nil, err
	}
	totalUsage.Add(synthUsage)

	// Debate rounds 2..N. Each voter re-answers with the prior
	// aggregate and its peers' answers as context; a round where every
	// voter fails keeps the prior round's votes and stops debating.
	var debateHistory []models.DebateRound
	roundsRun := 1
	for round := 2; round <= req.DebateRounds; round++ {
		roundVotes, roundUsage := o.runDebateRound(ctx, voters, req.Query, aggregation.FinalResponse, votes)
		totalUsage.Add(roundUsage)
		if len(roundVotes) == 0 {
			slog.Warn("Debate round produced no votes, keeping prior round", "round", round)
			break
		}

		votes = roundVotes
		debateHistory = append(debateHistory, models.DebateRound{
			RoundNumber: round,
			Votes:       roundVotes,
			Timestamp:   time.Now(),
		})
		roundsRun = round

		aggregation, synthUsage, err = o.aggregator.Aggregate(ctx, votes, req.Strategy, req.IncludeSynthesis)
		if err != nil {
			return nil, err
		}
		totalUsage.Add(synthUsage)
	}

	metrics := consensus.ComputeMetrics(votes)

	o.history.Record(HistoryEntry{
		Query:          req.Query,
		Pipeline:       "council",
		AgentsInvolved: voterNames(voters),
		Success:        true,
	})

	slog.Info("Council voting complete",
		"strategy", req.Strategy,
		"votes", len(votes),
		"failed_votes", len(failedVotes),
		"rounds_run", roundsRun,
		"aggregated_confidence", aggregation.AggregatedConfidence,
		"consensus_level", metrics.ConsensusLevel,
		"duration", time.Since(start))

	return &CouncilResult{
		Aggregation:   aggregation,
		Votes:         votes,
		FailedVotes:   failedVotes,
		Metrics:       metrics,
		DebateRounds:  roundsRun,
		DebateHistory: debateHistory,
		TokenUsage:    totalUsage,
		ExecutionTime: time.Since(start),
	}, nil
}

// runVoterRound executes every voter concurrently against the same
// input. One voter's failure never cancels its siblings; failures come
// back as FailedVote values.
func (o *Orchestrator) runVoterRound(ctx context.Context, voters []*agent.CouncilVoter, input agent.Input) ([]models.Vote, []models.FailedVote, models.TokenUsage) {
	results := make([]agent.Result, len(voters))

	var wg sync.WaitGroup
	for i, voter := range voters {
		wg.Add(1)
		go func(i int, voter *agent.CouncilVoter) {
			defer wg.Done()
			results[i] = voter.Execute(ctx, input)
		}(i, voter)
	}
	wg.Wait()

	var votes []models.Vote
	var failed []models.FailedVote
	var usage models.TokenUsage
	for i, res := range results {
		if !res.Completed() {
			failed = append(failed, models.FailedVote{Agent: res.Agent, Error: res.Err})
			continue
		}
		votes = append(votes, res.Vote(voters[i].VoteWeight(), voters[i].Temperature()))
		usage.Add(res.TokenUsage)
	}
	return votes, failed, usage
}

// runDebateRound re-runs all voters with a per-voter debate context.
// Failures in a debate round are dropped, not accumulated.
func (o *Orchestrator) runDebateRound(ctx context.Context, voters []*agent.CouncilVoter, query, priorResponse string, priorVotes []models.Vote) ([]models.Vote, models.TokenUsage) {
	results := make([]agent.Result, len(voters))

	var wg sync.WaitGroup
	for i, voter := range voters {
		wg.Add(1)
		go func(i int, voter *agent.CouncilVoter) {
			defer wg.Done()
			results[i] = voter.Execute(ctx, agent.Input{
				Query:   query,
				Context: o.prompts.BuildDebateContext(voter.Name(), priorResponse, priorVotes),
			})
		}(i, voter)
	}
	wg.Wait()

	var votes []models.Vote
	var usage models.TokenUsage
	for i, res := range results {
		if !res.Completed() {
			slog.Debug("Voter failed in debate round", "agent", res.Agent, "error", res.Err)
			continue
		}
		votes = append(votes, res.Vote(voters[i].VoteWeight(), voters[i].Temperature()))
		usage.Add(res.TokenUsage)
	}
	return votes, usage
}

func voterNames(voters []*agent.CouncilVoter) []string {
	names := make([]string, len(voters))
	for i, v := range voters {
		names[i] = v.Name()
	}
	return names
}
