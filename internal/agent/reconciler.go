package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/alejandrodnm/betbot/internal/ledger"
	"github.com/alejandrodnm/betbot/internal/ports"
)

// Reconciler applies settlement results back into the ledger and feeds
// realized outcomes to the belief strategy. It runs independently of the
// cycle: a settlement may land while a new cycle is mid-assessment, which
// is why every ledger mutation goes through the ledger's critical section.
type Reconciler struct {
	bank      *ledger.Ledger
	store     ports.Storage
	results   ports.ResultProvider
	estimator ports.BeliefEstimator
	interval  time.Duration
}

// NewReconciler creates a Reconciler polling at the given interval.
func NewReconciler(bank *ledger.Ledger, store ports.Storage, results ports.ResultProvider, estimator ports.BeliefEstimator, interval time.Duration) *Reconciler {
	return &Reconciler{
		bank:      bank,
		store:     store,
		results:   results,
		estimator: estimator,
		interval:  interval,
	}
}

// Run polls for resolved bets until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) error {
	slog.Info("reconciler starting", "interval", r.interval)

	if _, err := r.ReconcileOnce(ctx); err != nil {
		slog.Error("reconcile failed", "err", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				slog.Error("reconcile failed", "err", err)
			}
		}
	}
}

// ReconcileOnce settles whatever pending bets have resolved and returns how
// many were settled. The storage transition is the exactly-once gate: it
// commits before any money moves, and refuses a second transition even if
// the result provider repeats itself.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	pending, err := r.store.GetPendingBets(ctx)
	if err != nil {
		return 0, fmt.Errorf("agent.ReconcileOnce: load pending bets: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	settlements, err := r.results.FetchResults(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("agent.ReconcileOnce: fetch results: %w", err)
	}

	byID := make(map[string]domain.BetRecord, len(pending))
	for _, b := range pending {
		byID[b.ID.String()] = b
	}

	settled := 0
	for _, s := range settlements {
		bet, ok := byID[s.BetID.String()]
		if !ok {
			slog.Warn("settlement for unknown bet", "bet_id", s.BetID)
			continue
		}

		pnl, err := bet.PnL(s.Outcome)
		if err != nil {
			slog.Warn("settlement with invalid outcome",
				"bet_id", s.BetID, "outcome", s.Outcome)
			continue
		}
		s.PnL = pnl
		if s.SettledAt.IsZero() {
			s.SettledAt = time.Now().UTC()
		}

		// Storage first. If this write fails the bet stays pending and the
		// ledger is untouched, so the next pass retries the whole settlement.
		// Crediting the ledger first would leave a settled reservation behind
		// a still-pending bet, and a restart would credit it again.
		if err := r.store.SettleBet(ctx, bet.ID, s); err != nil {
			slog.Error("storage settle failed", "bet_id", bet.ID, "err", err)
			continue
		}

		if err := r.bank.Settle(bet.ReservationID, pnl); err != nil {
			slog.Error("ledger settle failed after storage transition",
				"bet_id", bet.ID, "reservation_id", bet.ReservationID, "err", err)
			continue
		}

		if err := r.estimator.Observe(ctx, bet, s); err != nil {
			slog.Warn("outcome feedback failed", "bet_id", bet.ID, "err", err)
		}

		settled++
		slog.Info("bet settled",
			"bet_id", bet.ID,
			"outcome", s.Outcome,
			"pnl", pnl,
		)
	}

	if settled > 0 {
		if err := r.store.SaveBankroll(ctx, r.bank.Snapshot()); err != nil {
			slog.Warn("storage error saving bankroll", "err", err)
		}
	}
	return settled, nil
}

// RestoreExposure re-registers ledger reservations for bets that were
// pending before a restart. The persisted bankroll snapshot already carries
// their exposure; this only re-binds the tokens so settlement can find them.
func (r *Reconciler) RestoreExposure(ctx context.Context) error {
	pending, err := r.store.GetPendingBets(ctx)
	if err != nil {
		return fmt.Errorf("agent.RestoreExposure: %w", err)
	}
	for _, bet := range pending {
		if err := r.bank.RestoreReservation(bet.ReservationID, bet.Stake); err != nil {
			return fmt.Errorf("agent.RestoreExposure: bet %s: %w", bet.ID, err)
		}
	}
	if len(pending) > 0 {
		slog.Info("restored exposure for pending bets", "count", len(pending))
	}
	return nil
}
