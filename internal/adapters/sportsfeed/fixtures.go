package sportsfeed

import (
	"context"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// Fixtures implementa ports.ResearchProvider con eventos enlatados,
// para -dry-run y tests manuales sin tocar la API real.
type Fixtures struct{}

// NewFixtures crea el provider de fixtures.
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// FetchEvents devuelve un set fijo de eventos con precios variados.
func (f *Fixtures) FetchEvents(_ context.Context) ([]domain.Event, error) {
	now := time.Now().UTC()
	return []domain.Event{
		{
			ID:          "fixture-lal-bos",
			Description: "LAL @ BOS",
			StartsAt:    now.Add(6 * time.Hour),
			Quotes: []domain.MarketQuote{
				{Side: "HOME", Price: 0.50},
				{Side: "AWAY", Price: 0.52},
			},
			Notes:     []string{"BOS fully healthy", "LAL missing starting center"},
			FetchedAt: now,
		},
		{
			ID:          "fixture-gsw-den",
			Description: "GSW @ DEN",
			StartsAt:    now.Add(8 * time.Hour),
			Quotes: []domain.MarketQuote{
				{Side: "HOME", Price: 0.64},
				{Side: "AWAY", Price: 0.38},
			},
			FetchedAt: now,
		},
	}, nil
}
