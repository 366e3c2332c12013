package ports

import (
	"context"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// Executor places approved bets at the execution boundary.
type Executor interface {
	// Place submits the approved stake and returns the resulting BetRecord.
	// Implementations must be idempotent-safe against retry: the record's
	// IdempotencyKey identifies the placement attempt, and the core never
	// retries without one.
	Place(ctx context.Context, assessment domain.RiskAssessment) (domain.BetRecord, error)
}

// ResultProvider resolves the outcomes of pending bets.
type ResultProvider interface {
	// FetchResults returns settlements for whichever of the given pending
	// bets have resolved. Unresolved bets are simply absent from the result.
	FetchResults(ctx context.Context, pending []domain.BetRecord) ([]domain.Settlement, error)
}
