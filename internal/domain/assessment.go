package domain

import (
	"time"

	"github.com/google/uuid"
)

// RejectionReason clasifica por qué el RiskLimiter rechazó una oportunidad.
// Los rechazos son datos, no errores: el ciclo continúa con normalidad.
type RejectionReason string

const (
	ReasonNone                  RejectionReason = ""
	ReasonInsufficientEdge      RejectionReason = "insufficient_edge"
	ReasonDailyBetLimitReached  RejectionReason = "daily_bet_limit_reached"
	ReasonDailyLossLimitReached RejectionReason = "daily_loss_limit_reached"
	ReasonInsufficientFunds     RejectionReason = "insufficient_funds"
)

// RiskAssessment es el veredicto del RiskLimiter sobre una oportunidad.
// Se crea exactamente una vez y nunca se muta: una re-evaluación produce
// un assessment nuevo.
type RiskAssessment struct {
	ID          uuid.UUID
	CycleID     uuid.UUID
	Opportunity BettingOpportunity

	Approved bool
	Stake    float64
	Reason   RejectionReason

	Edge          float64
	ExpectedValue float64
	KellyFraction float64 // fracción efectivamente usada tras el clamp

	// ReservationID identifica la reserva de capital en el ledger.
	// uuid.Nil si el assessment fue rechazado.
	ReservationID uuid.UUID

	EvaluatedAt time.Time
}

// Rejected construye un assessment rechazado con las métricas ya calculadas.
func Rejected(cycleID uuid.UUID, opp BettingOpportunity, reason RejectionReason, edge, ev float64) RiskAssessment {
	return RiskAssessment{
		ID:            uuid.New(),
		CycleID:       cycleID,
		Opportunity:   opp,
		Approved:      false,
		Reason:        reason,
		Edge:          edge,
		ExpectedValue: ev,
		EvaluatedAt:   time.Now().UTC(),
	}
}
