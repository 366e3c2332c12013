package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/betbot/internal/adapters/notify"
	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCycle() (domain.CycleRecord, []domain.RiskAssessment, []domain.BetRecord, domain.BankrollState) {
	now := time.Now().UTC()
	record := domain.CycleRecord{
		CycleID:       uuid.New(),
		StartedAt:     now.Add(-2 * time.Second),
		FinishedAt:    now,
		Opportunities: 2,
		Approved:      1,
		Placed:        1,
	}
	assessments := []domain.RiskAssessment{
		{
			ID: uuid.New(),
			Opportunity: domain.BettingOpportunity{
				EventID: "ev-lal-bos", MarketSide: "HOME",
				ModelProbability: 0.60, MarketPrice: 0.50,
			},
			Approved: true, Stake: 200,
			Edge: 0.10, ExpectedValue: 0.20, KellyFraction: 0.20,
			ReservationID: uuid.New(),
		},
		domain.Rejected(record.CycleID, domain.BettingOpportunity{
			EventID: "ev-gsw-den", MarketSide: "AWAY",
			ModelProbability: 0.40, MarketPrice: 0.38,
		}, domain.ReasonInsufficientEdge, 0.02, 0.05),
	}
	bets := []domain.BetRecord{{
		ID: uuid.New(), EventID: "ev-lal-bos", MarketSide: "HOME",
		Stake: 200, Price: 0.50, Status: domain.BetPending, PlacedAt: now,
	}}
	bankroll := domain.BankrollState{
		AvailableCapital: 800,
		ReservedExposure: 200,
		DailyRealizedPnL: 0,
		DailyBetCount:    1,
	}
	return record, assessments, bets, bankroll
}

func TestNotifyCycle_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	record, assessments, bets, bankroll := sampleCycle()
	require.NoError(t, c.NotifyCycle(context.Background(), record, assessments, bets, bankroll))

	out := buf.String()
	assert.Contains(t, out, "2 opps")
	assert.Contains(t, out, "1 approved")
	assert.Contains(t, out, "avail $800.00")
	assert.Contains(t, out, "ev-lal-bos/HOME")
}

func TestNotifyCycle_FullTable(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	record, assessments, bets, bankroll := sampleCycle()
	require.NoError(t, c.NotifyCycle(context.Background(), record, assessments, bets, bankroll))

	out := buf.String()
	assert.Contains(t, out, "APPROVED")
	assert.Contains(t, out, string(domain.ReasonInsufficientEdge))
	assert.Contains(t, out, "ev-lal-bos")
	assert.Contains(t, out, "bankroll: avail $800.00")
	assert.Contains(t, out, "[paper]")
}

func TestNotifyCycle_Aborted(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	record := domain.CycleRecord{
		CycleID:     uuid.New(),
		Aborted:     true,
		AbortPhase:  domain.PhaseResearching,
		AbortReason: "fetch events: feed down",
	}
	require.NoError(t, c.NotifyCycle(context.Background(), record, nil, nil, domain.BankrollState{}))

	out := buf.String()
	assert.Contains(t, out, "ABORTED")
	assert.Contains(t, out, "researching")
	assert.Contains(t, out, "feed down")
}
