package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPhase_FullCycle(t *testing.T) {
	want := []Phase{PhaseResearching, PhaseReasoning, PhaseRiskAssessment, PhaseExecuting, PhaseIdle}

	phase := PhaseIdle
	for _, expected := range want {
		next, ok := NextPhase(phase)
		require.True(t, ok, "transición desde %s", phase)
		assert.Equal(t, expected, next)
		phase = next
	}
}

func TestNextPhase_UnknownPhase(t *testing.T) {
	_, ok := NextPhase(Phase("settling"))
	assert.False(t, ok)
}

func TestNewCycleState_StartsIdle(t *testing.T) {
	now := time.Now().UTC()
	cs := NewCycleState(now)

	assert.Equal(t, PhaseIdle, cs.Phase)
	assert.Equal(t, now, cs.StartedAt)

	// cada ciclo recibe un ID distinto
	assert.NotEqual(t, cs.CycleID, NewCycleState(now).CycleID)
}
