package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betbot/internal/adapters/rest"
	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultBase = "https://api.exchange.example.com"

	exchangeRatePerSec = 5
)

// Client is the live execution transport. It implements both ports.Executor
// (bet placement) and ports.ResultProvider (settlement lookup).
type Client struct {
	rest *rest.Client
}

// NewClient creates an exchange client. An empty base selects production.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &Client{
		rest: rest.NewClient(base, exchangeRatePerSec, 2, headers),
	}
}

// Place submits the approved stake to the exchange. The Idempotency-Key
// header makes a retried submission resolve to the same exchange bet
// instead of a duplicate.
func (c *Client) Place(ctx context.Context, a domain.RiskAssessment) (domain.BetRecord, error) {
	opp := a.Opportunity
	key := uuid.NewString()

	req := struct {
		MarketID string  `json:"market_id"`
		Side     string  `json:"side"`
		Stake    float64 `json:"stake"`
		Price    float64 `json:"price"`
	}{
		MarketID: opp.EventID,
		Side:     opp.MarketSide,
		Stake:    a.Stake,
		Price:    opp.MarketPrice,
	}

	var resp struct {
		BetID string `json:"bet_id"`
	}
	err := c.rest.Post(ctx, "/v1/bets", req, &resp, map[string]string{
		"Idempotency-Key": key,
	})
	if err != nil {
		return domain.BetRecord{}, fmt.Errorf("exchange.Place: %s: %w", opp.Ref(), err)
	}

	return domain.BetRecord{
		ID:             uuid.New(),
		EventID:        opp.EventID,
		MarketSide:     opp.MarketSide,
		Stake:          a.Stake,
		Price:          opp.MarketPrice,
		ReservationID:  a.ReservationID,
		ExchangeID:     resp.BetID,
		IdempotencyKey: key,
		Status:         domain.BetPending,
		PlacedAt:       time.Now().UTC(),
	}, nil
}

// Balance returns the account balance held at the exchange. Informational:
// the ledger, not the exchange, is authoritative for sizing.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp struct {
		Available float64 `json:"available"`
	}
	if err := c.rest.Get(ctx, "/v1/balance", &resp); err != nil {
		return 0, fmt.Errorf("exchange.Balance: %w", err)
	}
	return resp.Available, nil
}

// FetchResults looks up the exchange status of each pending bet and returns
// settlements for the ones that resolved.
func (c *Client) FetchResults(ctx context.Context, pending []domain.BetRecord) ([]domain.Settlement, error) {
	var settlements []domain.Settlement
	for _, bet := range pending {
		if bet.ExchangeID == "" {
			continue
		}

		var resp struct {
			Status string `json:"status"`
		}
		if err := c.rest.Get(ctx, "/v1/bets/"+bet.ExchangeID, &resp); err != nil {
			return nil, fmt.Errorf("exchange.FetchResults: bet %s: %w", bet.ID, err)
		}

		outcome, resolved := mapStatus(resp.Status)
		if !resolved {
			continue
		}
		settlements = append(settlements, domain.Settlement{
			BetID:     bet.ID,
			Outcome:   outcome,
			SettledAt: time.Now().UTC(),
		})
	}
	return settlements, nil
}

// mapStatus translates exchange statuses into settlement outcomes.
func mapStatus(status string) (domain.BetStatus, bool) {
	switch status {
	case "won":
		return domain.BetWon, true
	case "lost":
		return domain.BetLost, true
	case "void", "canceled":
		return domain.BetVoid, true
	case "open", "matched", "pending":
		return "", false
	default:
		slog.Warn("unknown exchange bet status", "status", status)
		return "", false
	}
}
