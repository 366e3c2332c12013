package exchange_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/betbot/internal/adapters/exchange"
	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		ID: uuid.New(),
		Opportunity: domain.BettingOpportunity{
			EventID:          "ev-lal-bos",
			MarketSide:       "HOME",
			ModelProbability: 0.60,
			MarketPrice:      0.50,
		},
		Approved:      true,
		Stake:         200,
		ReservationID: uuid.New(),
		EvaluatedAt:   time.Now().UTC(),
	}
}

func TestPlace_SendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/bets", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var req struct {
			MarketID string  `json:"market_id"`
			Side     string  `json:"side"`
			Stake    float64 `json:"stake"`
			Price    float64 `json:"price"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ev-lal-bos", req.MarketID)
		assert.Equal(t, "HOME", req.Side)
		assert.InDelta(t, 200, req.Stake, 1e-9)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"bet_id": "exch-42"})
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL, "test-key")
	a := approvedAssessment()

	bet, err := client.Place(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, "exch-42", bet.ExchangeID)
	assert.Equal(t, a.ReservationID, bet.ReservationID)
	assert.Equal(t, domain.BetPending, bet.Status)
	assert.NotEmpty(t, bet.IdempotencyKey)
	assert.InDelta(t, 200, bet.Stake, 1e-9)
}

func TestPlace_ClientErrorDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"insufficient balance"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL, "test-key")
	_, err := client.Place(context.Background(), approvedAssessment())

	require.Error(t, err)
	assert.Equal(t, 1, calls, "un 4xx no se reintenta")
}

func TestFetchResults_MapsStatuses(t *testing.T) {
	statuses := map[string]string{
		"exch-1": "won",
		"exch-2": "lost",
		"exch-3": "canceled",
		"exch-4": "matched", // aún sin resolver
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/v1/bets/"):]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": statuses[id]})
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL, "test-key")

	pending := []domain.BetRecord{
		{ID: uuid.New(), ExchangeID: "exch-1", Stake: 100, Price: 0.5},
		{ID: uuid.New(), ExchangeID: "exch-2", Stake: 100, Price: 0.5},
		{ID: uuid.New(), ExchangeID: "exch-3", Stake: 100, Price: 0.5},
		{ID: uuid.New(), ExchangeID: "exch-4", Stake: 100, Price: 0.5},
	}

	settlements, err := client.FetchResults(context.Background(), pending)
	require.NoError(t, err)
	require.Len(t, settlements, 3, "matched sigue pendiente")

	byBet := make(map[string]domain.BetStatus)
	for _, s := range settlements {
		byBet[s.BetID.String()] = s.Outcome
	}
	assert.Equal(t, domain.BetWon, byBet[pending[0].ID.String()])
	assert.Equal(t, domain.BetLost, byBet[pending[1].ID.String()])
	assert.Equal(t, domain.BetVoid, byBet[pending[2].ID.String()])
}

func TestFetchResults_SkipsBetsWithoutExchangeID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no debe llamar a la API para apuestas sin exchange_id")
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL, "test-key")
	settlements, err := client.FetchResults(context.Background(), []domain.BetRecord{
		{ID: uuid.New(), Stake: 100, Price: 0.5},
	})
	require.NoError(t, err)
	assert.Empty(t, settlements)
}
