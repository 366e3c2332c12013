package ports

import (
	"context"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// BeliefEstimator es la estrategia opaca que convierte hechos en
// probabilidades. El core no sabe ni le importa cómo se calculan:
// implementaciones intercambiables sin tocar el motor de decisión.
type BeliefEstimator interface {
	// Estimate devuelve la probabilidad del modelo para cada lado del evento.
	Estimate(ctx context.Context, event domain.Event) ([]domain.Belief, error)

	// Observe realimenta al modelo con el resultado realizado de una apuesta.
	Observe(ctx context.Context, bet domain.BetRecord, settlement domain.Settlement) error
}
