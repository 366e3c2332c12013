package paper

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePending(age time.Duration, price float64) domain.BetRecord {
	return domain.BetRecord{
		ID:       uuid.New(),
		Stake:    100,
		Price:    price,
		Status:   domain.BetPending,
		PlacedAt: time.Now().UTC().Add(-age),
	}
}

func TestTestResults_SettleVoidImmediately(t *testing.T) {
	r := NewTestResults()
	pending := []domain.BetRecord{
		makePending(0, 0.50),
		makePending(time.Hour, 0.30),
	}

	settlements, err := r.FetchResults(context.Background(), pending)
	require.NoError(t, err)
	require.Len(t, settlements, 2)

	for _, s := range settlements {
		assert.Equal(t, domain.BetVoid, s.Outcome)
	}
}

func TestSimulationResults_RespectsHold(t *testing.T) {
	r := NewSimulationResults(time.Hour)

	fresh := makePending(time.Minute, 0.50)
	due := makePending(2*time.Hour, 0.50)

	settlements, err := r.FetchResults(context.Background(), []domain.BetRecord{fresh, due})
	require.NoError(t, err)
	require.Len(t, settlements, 1, "solo liquida la apuesta que cumplió el hold")
	assert.Equal(t, due.ID, settlements[0].BetID)
}

func TestSimulationResults_DrawsAgainstMarketPrice(t *testing.T) {
	r := NewSimulationResults(0)
	bet := makePending(time.Minute, 0.60)

	r.draw = func() float64 { return 0.59 } // < price → gana
	settlements, err := r.FetchResults(context.Background(), []domain.BetRecord{bet})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, domain.BetWon, settlements[0].Outcome)

	r.draw = func() float64 { return 0.61 } // >= price → pierde
	settlements, err = r.FetchResults(context.Background(), []domain.BetRecord{bet})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, domain.BetLost, settlements[0].Outcome)
}

func TestExecutor_SynthesizesPendingBet(t *testing.T) {
	e := NewExecutor()
	a := domain.RiskAssessment{
		ID: uuid.New(),
		Opportunity: domain.BettingOpportunity{
			EventID:          "ev-1",
			MarketSide:       "HOME",
			ModelProbability: 0.60,
			MarketPrice:      0.50,
		},
		Approved:      true,
		Stake:         200,
		ReservationID: uuid.New(),
	}

	bet, err := e.Place(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, domain.BetPending, bet.Status)
	assert.Equal(t, a.ReservationID, bet.ReservationID)
	assert.Empty(t, bet.ExchangeID, "las apuestas de papel no tocan el exchange")
	assert.NotEmpty(t, bet.IdempotencyKey)
	assert.InDelta(t, 200, bet.Stake, 1e-9)
	assert.InDelta(t, 0.50, bet.Price, 1e-9)
}
