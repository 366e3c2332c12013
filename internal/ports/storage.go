package ports

import (
	"context"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
)

// Storage persiste el historial de ciclos, assessments y apuestas, más el
// snapshot del bankroll. El core requiere read-after-write dentro de un
// ciclo, no consistencia entre procesos.
type Storage interface {
	// SaveCycle archiva el registro de un ciclo terminado.
	SaveCycle(ctx context.Context, record domain.CycleRecord) error

	// SaveAssessments archiva los assessments de un ciclo (write-once).
	SaveAssessments(ctx context.Context, assessments []domain.RiskAssessment) error

	// SaveBet persiste una apuesta recién colocada.
	SaveBet(ctx context.Context, bet domain.BetRecord) error

	// SettleBet aplica la transición de estado pending → {won,lost,void}.
	// Falla si la apuesta ya no está pendiente: la transición ocurre
	// exactamente una vez.
	SettleBet(ctx context.Context, betID uuid.UUID, settlement domain.Settlement) error

	// GetPendingBets devuelve las apuestas aún sin liquidar.
	GetPendingBets(ctx context.Context) ([]domain.BetRecord, error)

	// SaveBankroll persiste el snapshot del ledger.
	SaveBankroll(ctx context.Context, state domain.BankrollState) error

	// LoadBankroll devuelve el último snapshot persistido, si existe.
	LoadBankroll(ctx context.Context) (domain.BankrollState, bool, error)

	// Close cierra la conexión limpiamente.
	Close() error
}
