package paper

import (
	"context"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
)

// Executor implements ports.Executor for the non-live modes: it synthesizes
// a BetRecord without contacting the execution transport.
type Executor struct{}

// NewExecutor creates a paper executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Place records a virtual bet for the approved stake.
func (e *Executor) Place(_ context.Context, a domain.RiskAssessment) (domain.BetRecord, error) {
	opp := a.Opportunity
	return domain.BetRecord{
		ID:             uuid.New(),
		EventID:        opp.EventID,
		MarketSide:     opp.MarketSide,
		Stake:          a.Stake,
		Price:          opp.MarketPrice,
		ReservationID:  a.ReservationID,
		IdempotencyKey: uuid.NewString(),
		Status:         domain.BetPending,
		PlacedAt:       time.Now().UTC(),
	}, nil
}
