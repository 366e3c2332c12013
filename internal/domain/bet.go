package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BetStatus es el estado de liquidación de una apuesta.
// Transiciona pending → {won, lost, void} exactamente una vez.
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
	BetVoid    BetStatus = "void"
)

// Terminal devuelve true si el estado ya no puede cambiar.
func (s BetStatus) Terminal() bool {
	return s == BetWon || s == BetLost || s == BetVoid
}

// BetRecord es una apuesta colocada. ID y Stake son inmutables tras la
// creación; solo el estado transiciona, y lo hace una única vez.
type BetRecord struct {
	ID             uuid.UUID
	CycleID        uuid.UUID
	EventID        string
	MarketSide     string
	Stake          float64
	Price          float64 // precio de mercado al colocar la apuesta
	ReservationID  uuid.UUID
	ExchangeID     string // id de la apuesta en el exchange; vacío en modos no-live
	IdempotencyKey string
	Status         BetStatus
	PlacedAt       time.Time
}

// PnL devuelve el resultado realizado de la apuesta para el outcome dado.
// Ganada: stake por odds netas. Perdida: -stake. Void: 0.
func (b BetRecord) PnL(outcome BetStatus) (float64, error) {
	switch outcome {
	case BetWon:
		return b.Stake * (1/b.Price - 1), nil
	case BetLost:
		return -b.Stake, nil
	case BetVoid:
		return 0, nil
	default:
		return 0, fmt.Errorf("bet %s: %q is not a settlement outcome", b.ID, outcome)
	}
}

// Settlement es el resultado de liquidar una apuesta pendiente.
type Settlement struct {
	BetID     uuid.UUID
	Outcome   BetStatus // won | lost | void
	PnL       float64
	SettledAt time.Time
}
