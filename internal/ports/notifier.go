package ports

import (
	"context"

	"github.com/alejandrodnm/betbot/internal/domain"
)

// Notifier presenta al usuario el resultado de cada ciclo.
type Notifier interface {
	// NotifyCycle muestra el resumen del ciclo: assessments, apuestas
	// colocadas y estado del bankroll.
	NotifyCycle(ctx context.Context, record domain.CycleRecord, assessments []domain.RiskAssessment, bets []domain.BetRecord, bankroll domain.BankrollState) error
}
