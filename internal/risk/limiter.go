package risk

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/alejandrodnm/betbot/internal/ledger"
	"github.com/google/uuid"
)

// Limits holds the hard limits the limiter enforces. Every threshold is
// inclusive at the boundary that favors safety: equality on edge meets the
// threshold, equality on a count or loss limit means the limit is reached.
type Limits struct {
	MinEdge          float64
	MaxKellyFraction float64
	MinBet           float64
	MaxBet           float64
	DailyBetLimit    int
}

// Limiter evaluates candidate bets against the configured limits and the
// bankroll ledger. Evaluation is pure except for the reservation taken on
// approval.
type Limiter struct {
	limits Limits
	ledger *ledger.Ledger
}

// NewLimiter creates a Limiter bound to the given ledger.
func NewLimiter(limits Limits, l *ledger.Ledger) *Limiter {
	return &Limiter{limits: limits, ledger: l}
}

// Evaluate sizes and approves (or rejects) a single opportunity for the
// given cycle. Assessments are born complete: the cycle id is part of
// construction, never stamped on afterwards.
//
// Order of checks: minimum edge, daily bet count, daily loss limit, then
// fractional Kelly sizing with the stake clamped to [MinBet, MaxBet] and to
// the capital actually available. On approval the stake is reserved in the
// ledger before the assessment is returned; losing a reservation race with
// a concurrent settlement rejects the bet instead of retrying.
func (l *Limiter) Evaluate(cycleID uuid.UUID, opp domain.BettingOpportunity) domain.RiskAssessment {
	edge := opp.Edge()
	ev := opp.ExpectedValue()

	if edge < l.limits.MinEdge {
		return domain.Rejected(cycleID, opp, domain.ReasonInsufficientEdge, edge, ev)
	}

	snap := l.ledger.Snapshot()
	if snap.DailyBetCount >= l.limits.DailyBetLimit {
		return domain.Rejected(cycleID, opp, domain.ReasonDailyBetLimitReached, edge, ev)
	}
	if l.ledger.DailyLossExceeded() {
		return domain.Rejected(cycleID, opp, domain.ReasonDailyLossLimitReached, edge, ev)
	}

	// Binary-outcome Kelly at the net odds implied by the market price:
	// f* = (b*p - q) / b, clamped to the partial-Kelly safety factor.
	b := opp.NetOdds()
	p := opp.ModelProbability
	q := 1 - p
	fraction := (b*p - q) / b
	fraction = math.Max(0, math.Min(fraction, l.limits.MaxKellyFraction))

	stake := fraction * snap.AvailableCapital
	stake = math.Max(l.limits.MinBet, math.Min(stake, l.limits.MaxBet))

	if stake > snap.AvailableCapital {
		return domain.Rejected(cycleID, opp, domain.ReasonInsufficientFunds, edge, ev)
	}

	token, err := l.ledger.Reserve(stake)
	if err != nil {
		if !errors.Is(err, ledger.ErrInsufficientFunds) && !errors.Is(err, ledger.ErrHalted) {
			slog.Warn("reservation failed", "ref", opp.Ref(), "err", err)
		}
		return domain.Rejected(cycleID, opp, domain.ReasonInsufficientFunds, edge, ev)
	}

	return domain.RiskAssessment{
		ID:            uuid.New(),
		CycleID:       cycleID,
		Opportunity:   opp,
		Approved:      true,
		Stake:         stake,
		Edge:          edge,
		ExpectedValue: ev,
		KellyFraction: fraction,
		ReservationID: token,
		EvaluatedAt:   time.Now().UTC(),
	}
}
