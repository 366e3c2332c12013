package risk_test

import (
	"testing"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/alejandrodnm/betbot/internal/ledger"
	"github.com/alejandrodnm/betbot/internal/risk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultLimits() risk.Limits {
	return risk.Limits{
		MinEdge:          0.05,
		MaxKellyFraction: 0.25,
		MinBet:           10,
		MaxBet:           500,
		DailyBetLimit:    5,
	}
}

func newBank(capital, lossLimit float64) *ledger.Ledger {
	return ledger.New(ledger.Config{InitialCapital: capital, DailyLossLimit: lossLimit})
}

func opp(p, price float64) domain.BettingOpportunity {
	return domain.BettingOpportunity{
		EventID:          "ev-1",
		MarketSide:       "HOME",
		ModelProbability: p,
		MarketPrice:      price,
	}
}

func TestEvaluate_ApprovesWithKellySizing(t *testing.T) {
	// p=0.60 a precio 0.50: f* = (1*0.6 - 0.4)/1 = 0.20 → stake 200
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	cycle := uuid.New()
	a := l.Evaluate(cycle, opp(0.60, 0.50))

	require.True(t, a.Approved)
	assert.Equal(t, cycle, a.CycleID)
	assert.InDelta(t, 0.20, a.KellyFraction, 1e-9)
	assert.InDelta(t, 200, a.Stake, 1e-9)
	assert.InDelta(t, 0.10, a.Edge, 1e-9)
	assert.NotEqual(t, uuid.Nil, a.ReservationID)

	// la reserva ya está tomada
	snap := bank.Snapshot()
	assert.InDelta(t, 800, snap.AvailableCapital, 1e-9)
	assert.InDelta(t, 200, snap.ReservedExposure, 1e-9)
}

func TestEvaluate_RejectsInsufficientEdge(t *testing.T) {
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	cycle := uuid.New()
	a := l.Evaluate(cycle, opp(0.52, 0.50)) // edge 0.02 < 0.05

	require.False(t, a.Approved)
	assert.Equal(t, domain.ReasonInsufficientEdge, a.Reason)
	assert.Equal(t, cycle, a.CycleID, "un rechazo también nace con su ciclo")
	assert.Equal(t, uuid.Nil, a.ReservationID)

	// un rechazo no toca el ledger
	snap := bank.Snapshot()
	assert.InDelta(t, 1000, snap.AvailableCapital, 1e-9)
	assert.Equal(t, 0, snap.DailyBetCount)
}

func TestEvaluate_EdgeEqualityMeetsThreshold(t *testing.T) {
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	a := l.Evaluate(uuid.New(), opp(0.55, 0.50)) // edge exactamente 0.05
	assert.True(t, a.Approved)
}

func TestEvaluate_KellyClampedToMaxFraction(t *testing.T) {
	// p=0.90 a precio 0.50: f* crudo = 0.80 → clamp a 0.25 → stake 250
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	a := l.Evaluate(uuid.New(), opp(0.90, 0.50))

	require.True(t, a.Approved)
	assert.InDelta(t, 0.25, a.KellyFraction, 1e-9)
	assert.InDelta(t, 250, a.Stake, 1e-9)
}

func TestEvaluate_StakeClampedToMaxBet(t *testing.T) {
	limits := defaultLimits()
	limits.MaxBet = 100
	bank := newBank(1000, 100)
	l := risk.NewLimiter(limits, bank)

	a := l.Evaluate(uuid.New(), opp(0.90, 0.50))

	require.True(t, a.Approved)
	assert.InDelta(t, 100, a.Stake, 1e-9)
}

func TestEvaluate_StakeClampedUpToMinBet(t *testing.T) {
	// capital pequeño: el Kelly crudo da menos que min_bet → sube al mínimo
	bank := newBank(40, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	a := l.Evaluate(uuid.New(), opp(0.60, 0.50)) // f 0.20 * 40 = 8 < min_bet 10

	require.True(t, a.Approved)
	assert.InDelta(t, 10, a.Stake, 1e-9)
}

func TestEvaluate_RejectsWhenMinBetExceedsCapital(t *testing.T) {
	bank := newBank(5, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	a := l.Evaluate(uuid.New(), opp(0.60, 0.50)) // min_bet 10 > capital 5

	require.False(t, a.Approved)
	assert.Equal(t, domain.ReasonInsufficientFunds, a.Reason)
}

func TestEvaluate_DailyBetLimit(t *testing.T) {
	limits := defaultLimits()
	limits.DailyBetLimit = 1
	bank := newBank(1000, 100)
	l := risk.NewLimiter(limits, bank)

	first := l.Evaluate(uuid.New(), opp(0.60, 0.50))
	require.True(t, first.Approved)

	second := l.Evaluate(uuid.New(), opp(0.60, 0.50))
	require.False(t, second.Approved)
	assert.Equal(t, domain.ReasonDailyBetLimitReached, second.Reason)
}

func TestEvaluate_DailyLossLimit(t *testing.T) {
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	// una pérdida realizada que alcanza el límite bloquea el resto del día
	token, err := bank.Reserve(100)
	require.NoError(t, err)
	require.NoError(t, bank.Settle(token, -100))

	a := l.Evaluate(uuid.New(), opp(0.60, 0.50))
	require.False(t, a.Approved)
	assert.Equal(t, domain.ReasonDailyLossLimitReached, a.Reason)
}

func TestEvaluate_RejectionsKeepMetrics(t *testing.T) {
	bank := newBank(1000, 100)
	l := risk.NewLimiter(defaultLimits(), bank)

	a := l.Evaluate(uuid.New(), opp(0.52, 0.50))

	assert.InDelta(t, 0.02, a.Edge, 1e-9)
	assert.InDelta(t, 0.52*1-0.48, a.ExpectedValue, 1e-9)
}
