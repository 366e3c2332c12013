package ports

import (
	"context"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// ResearchProvider obtiene los eventos apostables con sus precios de mercado.
// Un fallo transitorio se trata como fallo de fase: el ciclo se aborta.
type ResearchProvider interface {
	// FetchEvents devuelve los eventos próximos con cotizaciones y notas.
	FetchEvents(ctx context.Context) ([]domain.Event, error)
}
