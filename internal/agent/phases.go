package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// researchPhase fetches upcoming events with their market quotes.
func (c *Controller) researchPhase(ctx context.Context, data *cycleData) error {
	events, err := c.deps.Research.FetchEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	data.events = events
	slog.Info("research complete", "events", len(events))
	return nil
}

// reasoningPhase asks the belief strategy for a probability on every quoted
// side and pairs it with the market price into opportunities. An empty
// result is a normal outcome, not a failure.
func (c *Controller) reasoningPhase(ctx context.Context, data *cycleData) error {
	now := time.Now().UTC()
	var opps []domain.BettingOpportunity

	for _, event := range data.events {
		beliefs, err := c.deps.Estimator.Estimate(ctx, event)
		if err != nil {
			return fmt.Errorf("estimate %s: %w", event.ID, err)
		}

		for _, belief := range beliefs {
			quote, ok := event.Quote(belief.Side)
			if !ok || !quote.Valid() {
				slog.Debug("no usable quote for belief",
					"event_id", event.ID, "side", belief.Side)
				continue
			}

			opp := domain.BettingOpportunity{
				EventID:          event.ID,
				MarketSide:       quote.Side,
				ModelProbability: belief.Probability,
				MarketPrice:      quote.Price,
				Metadata:         map[string]string{"description": event.Description},
				ProducedAt:       now,
			}
			if err := opp.Validate(); err != nil {
				slog.Debug("dropping invalid opportunity", "err", err)
				continue
			}
			opps = append(opps, opp)
		}
	}

	data.opportunities = opps
	slog.Info("reasoning complete",
		"events", len(data.events),
		"opportunities", len(opps),
	)
	return nil
}

// riskPhase runs every opportunity through the decision engine and archives
// the full assessment trail, approved or not.
func (c *Controller) riskPhase(ctx context.Context, cs domain.CycleState, data *cycleData) error {
	assessments := c.deps.Engine.DecideAll(ctx, cs.CycleID, data.opportunities)
	data.assessments = assessments

	if err := c.deps.Store.SaveAssessments(ctx, assessments); err != nil {
		return fmt.Errorf("archive assessments: %w", err)
	}

	slog.Info("risk assessment complete",
		"assessed", len(assessments),
		"approved", countApproved(assessments),
	)
	return nil
}

// executionPhase places every approved bet through the executor. The first
// placement failure aborts the phase; reservations of bets not yet placed
// are released by the abort path.
func (c *Controller) executionPhase(ctx context.Context, cs domain.CycleState, data *cycleData) error {
	for _, a := range data.assessments {
		if !a.Approved {
			continue
		}

		bet, err := c.deps.Executor.Place(ctx, a)
		if err != nil {
			return fmt.Errorf("place %s: %w", a.Opportunity.Ref(), err)
		}
		bet.CycleID = cs.CycleID

		// The bet exists at the exchange from here on, so it keeps its
		// reservation even if archiving fails and the cycle aborts.
		data.bets = append(data.bets, bet)

		if err := c.deps.Store.SaveBet(ctx, bet); err != nil {
			return fmt.Errorf("archive bet %s: %w", bet.ID, err)
		}

		slog.Info("bet placed",
			"bet_id", bet.ID,
			"ref", a.Opportunity.Ref(),
			"stake", bet.Stake,
			"price", bet.Price,
		)
	}

	slog.Info("execution complete", "placed", len(data.bets))
	return nil
}
