package model

import (
	"context"
	"math"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// Fixtures implementa ports.BeliefEstimator sin tocar la API del modelo,
// para -dry-run y tests manuales. Devuelve la probabilidad implícita del
// precio con un sesgo fijo, suficiente para ejercitar el pipeline completo.
type Fixtures struct{}

// NewFixtures crea el estimador de fixtures.
func NewFixtures() *Fixtures {
	return &Fixtures{}
}

// Estimate devuelve price + 0.07 por lado, con clamp a (0, 1).
func (f *Fixtures) Estimate(_ context.Context, event domain.Event) ([]domain.Belief, error) {
	beliefs := make([]domain.Belief, 0, len(event.Quotes))
	for _, q := range event.Quotes {
		p := math.Min(q.Price+0.07, 0.99)
		beliefs = append(beliefs, domain.Belief{Side: q.Side, Probability: p})
	}
	return beliefs, nil
}

// Observe es un no-op: no hay modelo que realimentar.
func (f *Fixtures) Observe(_ context.Context, _ domain.BetRecord, _ domain.Settlement) error {
	return nil
}
