package sportsfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/betbot/internal/adapters/rest"
	"github.com/alejandrodnm/betbot/internal/domain"
)

const (
	defaultBase = "https://api.sportsfeed.example.com"

	// El feed documenta 300 req/10s; nos quedamos muy por debajo.
	feedRatePerSec = 10
)

// Client implementa ports.ResearchProvider contra el feed de eventos.
type Client struct {
	rest *rest.Client
}

// NewClient crea un Client del feed. Si base está vacío usa producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		rest: rest.NewClient(base, feedRatePerSec, 5, nil),
	}
}

// eventDTO es la respuesta del endpoint /v1/events.
type eventDTO struct {
	ID        string   `json:"id"`
	HomeTeam  string   `json:"home_team"`
	AwayTeam  string   `json:"away_team"`
	StartTime string   `json:"start_time"`
	Notes     []string `json:"notes"`
	Markets   []struct {
		Side  string  `json:"side"`
		Price float64 `json:"price"`
	} `json:"markets"`
}

// FetchEvents devuelve los eventos de las próximas 24h con sus cotizaciones.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	var resp struct {
		Events []eventDTO `json:"events"`
	}
	if err := c.rest.Get(ctx, "/v1/events?hours=24", &resp); err != nil {
		return nil, fmt.Errorf("sportsfeed.FetchEvents: %w", err)
	}

	now := time.Now().UTC()
	events := make([]domain.Event, 0, len(resp.Events))
	for _, dto := range resp.Events {
		ev := domain.Event{
			ID:          dto.ID,
			Description: fmt.Sprintf("%s @ %s", dto.AwayTeam, dto.HomeTeam),
			Notes:       dto.Notes,
			FetchedAt:   now,
		}
		if t, err := time.Parse(time.RFC3339, dto.StartTime); err == nil {
			ev.StartsAt = t
		}
		for _, m := range dto.Markets {
			q := domain.MarketQuote{Side: m.Side, Price: m.Price}
			if !q.Valid() {
				continue
			}
			ev.Quotes = append(ev.Quotes, q)
		}
		if len(ev.Quotes) == 0 {
			continue // sin mercados usables no hay nada que razonar
		}
		events = append(events, ev)
	}
	return events, nil
}
