package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase es una fase del ciclo del agente.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseResearching    Phase = "researching"
	PhaseReasoning      Phase = "reasoning"
	PhaseRiskAssessment Phase = "risk_assessment"
	PhaseExecuting      Phase = "executing"
)

// phaseTransitions es la tabla de transiciones del ciclo. Cualquier fallo
// en cualquier fase transiciona directamente a Idle (ciclo abortado);
// esa arista de aborto no aparece aquí porque aplica desde todos los estados.
var phaseTransitions = map[Phase]Phase{
	PhaseIdle:           PhaseResearching,
	PhaseResearching:    PhaseReasoning,
	PhaseReasoning:      PhaseRiskAssessment,
	PhaseRiskAssessment: PhaseExecuting,
	PhaseExecuting:      PhaseIdle,
}

// NextPhase devuelve la fase siguiente según la tabla de transiciones.
func NextPhase(p Phase) (Phase, bool) {
	next, ok := phaseTransitions[p]
	return next, ok
}

// CycleState es el estado del ciclo activo. Lo posee en exclusiva el
// PhaseController: exactamente un CycleState está activo a la vez.
type CycleState struct {
	CycleID   uuid.UUID
	Phase     Phase
	StartedAt time.Time
}

// NewCycleState crea el estado de un ciclo nuevo en Idle.
func NewCycleState(now time.Time) CycleState {
	return CycleState{
		CycleID:   uuid.New(),
		Phase:     PhaseIdle,
		StartedAt: now,
	}
}

// CycleRecord es el registro archivado de un ciclo terminado.
type CycleRecord struct {
	CycleID       uuid.UUID
	StartedAt     time.Time
	FinishedAt    time.Time
	Opportunities int
	Approved      int
	Placed        int
	Aborted       bool
	AbortPhase    Phase  // fase en la que se abortó, si Aborted
	AbortReason   string // error registrado, si Aborted
}
