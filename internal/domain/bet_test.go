package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetPnL(t *testing.T) {
	bet := BetRecord{Stake: 100, Price: 0.50}

	pnl, err := bet.PnL(BetWon)
	require.NoError(t, err)
	assert.InDelta(t, 100, pnl, 1e-9) // stake * (1/0.5 - 1)

	pnl, err = bet.PnL(BetLost)
	require.NoError(t, err)
	assert.InDelta(t, -100, pnl, 1e-9)

	pnl, err = bet.PnL(BetVoid)
	require.NoError(t, err)
	assert.InDelta(t, 0, pnl, 1e-9)
}

func TestBetPnL_LongshotPrice(t *testing.T) {
	// precio 0.20: ganar paga 4x el stake
	bet := BetRecord{Stake: 50, Price: 0.20}
	pnl, err := bet.PnL(BetWon)
	require.NoError(t, err)
	assert.InDelta(t, 200, pnl, 1e-9)
}

func TestBetPnL_InvalidOutcome(t *testing.T) {
	bet := BetRecord{Stake: 100, Price: 0.50}
	_, err := bet.PnL(BetPending)
	assert.Error(t, err)
}

func TestBetStatus_Terminal(t *testing.T) {
	assert.False(t, BetPending.Terminal())
	assert.True(t, BetWon.Terminal())
	assert.True(t, BetLost.Terminal())
	assert.True(t, BetVoid.Terminal())
}
