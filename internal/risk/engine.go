package risk

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
)

// Engine turns opportunities into risk assessments. It is a thin composition
// over the limiter: every decision happens against a fresh ledger read, and
// the engine itself holds no locks and no state.
type Engine struct {
	limiter *Limiter
}

// NewEngine creates an Engine over the given limiter.
func NewEngine(limiter *Limiter) *Engine {
	return &Engine{limiter: limiter}
}

// Decide evaluates one opportunity and returns its assessment, bound to the
// cycle that produced it.
func (e *Engine) Decide(_ context.Context, cycleID uuid.UUID, opp domain.BettingOpportunity) domain.RiskAssessment {
	a := e.limiter.Evaluate(cycleID, opp)

	if a.Approved {
		slog.Info("bet approved",
			"ref", opp.Ref(),
			"edge", a.Edge,
			"ev", a.ExpectedValue,
			"kelly", a.KellyFraction,
			"stake", a.Stake,
		)
	} else {
		slog.Debug("bet rejected",
			"ref", opp.Ref(),
			"reason", a.Reason,
			"edge", a.Edge,
		)
	}
	return a
}

// DecideAll evaluates a batch of opportunities in order. Assessments are
// produced for every opportunity, approved or not, so the archive keeps the
// full decision trail.
func (e *Engine) DecideAll(ctx context.Context, cycleID uuid.UUID, opps []domain.BettingOpportunity) []domain.RiskAssessment {
	assessments := make([]domain.RiskAssessment, 0, len(opps))
	for _, opp := range opps {
		assessments = append(assessments, e.Decide(ctx, cycleID, opp))
	}
	return assessments
}
