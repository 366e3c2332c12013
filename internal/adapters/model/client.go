package model

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/betbot/internal/adapters/rest"
	"github.com/alejandrodnm/betbot/internal/domain"
)

const (
	defaultBase = "https://api.predictions.example.com"

	modelRatePerSec = 5
)

// Client implementa ports.BeliefEstimator contra la API del modelo de
// predicción. Para el core el modelo es opaco: entra un evento, sale una
// probabilidad por lado.
type Client struct {
	rest *rest.Client
}

// NewClient crea un Client del modelo. Si base está vacío usa producción.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &Client{
		rest: rest.NewClient(base, modelRatePerSec, 2, headers),
	}
}

// Estimate pide al modelo la probabilidad de cada lado del evento.
func (c *Client) Estimate(ctx context.Context, event domain.Event) ([]domain.Belief, error) {
	req := struct {
		EventID string   `json:"event_id"`
		Notes   []string `json:"notes,omitempty"`
	}{EventID: event.ID, Notes: event.Notes}

	var resp struct {
		Predictions []struct {
			Side        string  `json:"side"`
			Probability float64 `json:"probability"`
		} `json:"predictions"`
	}
	if err := c.rest.Post(ctx, "/v1/predictions", req, &resp, nil); err != nil {
		return nil, fmt.Errorf("model.Estimate: %s: %w", event.ID, err)
	}

	beliefs := make([]domain.Belief, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		beliefs = append(beliefs, domain.Belief{Side: p.Side, Probability: p.Probability})
	}
	return beliefs, nil
}

// Observe realimenta al modelo con el resultado realizado de una apuesta.
func (c *Client) Observe(ctx context.Context, bet domain.BetRecord, s domain.Settlement) error {
	req := struct {
		EventID string  `json:"event_id"`
		Side    string  `json:"side"`
		Price   float64 `json:"price"`
		Stake   float64 `json:"stake"`
		Outcome string  `json:"outcome"`
		PnL     float64 `json:"pnl"`
	}{
		EventID: bet.EventID,
		Side:    bet.MarketSide,
		Price:   bet.Price,
		Stake:   bet.Stake,
		Outcome: string(s.Outcome),
		PnL:     s.PnL,
	}
	if err := c.rest.Post(ctx, "/v1/outcomes", req, nil, nil); err != nil {
		return fmt.Errorf("model.Observe: bet %s: %w", bet.ID, err)
	}
	return nil
}
