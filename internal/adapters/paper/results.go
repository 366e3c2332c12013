package paper

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// Results implements ports.ResultProvider for the non-live modes.
//
// In test mode every pending bet resolves immediately as void: the stake
// comes back and no P&L is fabricated. In simulation mode a bet resolves
// after the hold period by drawing against its market-implied probability,
// which makes long simulations land near zero EV before edge.
type Results struct {
	simulate bool
	hold     time.Duration
	draw     func() float64
}

// NewTestResults creates the deterministic test-mode provider.
func NewTestResults() *Results {
	return &Results{}
}

// NewSimulationResults creates the randomized simulation provider. Bets
// resolve once they have been pending for at least hold.
func NewSimulationResults(hold time.Duration) *Results {
	return &Results{
		simulate: true,
		hold:     hold,
		draw:     rand.Float64,
	}
}

// FetchResults resolves whichever pending bets are due.
func (r *Results) FetchResults(_ context.Context, pending []domain.BetRecord) ([]domain.Settlement, error) {
	now := time.Now().UTC()
	var settlements []domain.Settlement

	for _, bet := range pending {
		if !r.simulate {
			settlements = append(settlements, domain.Settlement{
				BetID:     bet.ID,
				Outcome:   domain.BetVoid,
				SettledAt: now,
			})
			continue
		}

		if now.Sub(bet.PlacedAt) < r.hold {
			continue
		}
		outcome := domain.BetLost
		if r.draw() < bet.Price {
			outcome = domain.BetWon
		}
		settlements = append(settlements, domain.Settlement{
			BetID:     bet.ID,
			Outcome:   outcome,
			SettledAt: now,
		})
	}
	return settlements, nil
}
