package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds means the requested reservation exceeds the
	// available capital.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrHalted means an invariant violation was detected earlier and the
	// ledger refuses to reserve more capital. Requires manual intervention.
	ErrHalted = errors.New("ledger: halted after invariant violation")

	// ErrUnknownReservation means the token does not match an outstanding
	// reservation. A token can be used at most once.
	ErrUnknownReservation = errors.New("ledger: unknown reservation token")
)

const day = 24 * time.Hour

// Config holds the ledger limits.
type Config struct {
	InitialCapital float64
	DailyLossLimit float64 // positive; 0 disables the check
}

// Ledger is the authoritative record of available capital, outstanding
// exposure and realized daily P&L. It is the only shared mutable state in
// the core: every operation runs inside one critical section, so a
// settlement callback can never observe a reservation half-applied.
type Ledger struct {
	mu           sync.Mutex
	available    float64
	reserved     float64
	dailyPnL     float64
	dailyBets    int
	dayStart     time.Time
	reservations map[uuid.UUID]float64
	halted       bool
	cfg          Config

	now func() time.Time
}

// New creates a ledger holding the configured initial capital.
func New(cfg Config) *Ledger {
	return &Ledger{
		available:    cfg.InitialCapital,
		reservations: make(map[uuid.UUID]float64),
		cfg:          cfg,
		now:          time.Now,
	}
}

// Restore creates a ledger from a persisted snapshot. Reservations are not
// restored: exposure for bets that survived a restart is re-established by
// the reconciler when it re-reads pending bets.
func Restore(cfg Config, state domain.BankrollState) *Ledger {
	l := New(cfg)
	l.available = state.AvailableCapital
	l.dailyPnL = state.DailyRealizedPnL
	l.dailyBets = state.DailyBetCount
	l.dayStart = state.DayWindowStart
	return l
}

// Reserve earmarks amount for a pending bet, debiting available capital and
// crediting exposure atomically. The returned token is the only handle that
// can later release or settle the reservation.
func (l *Ledger) Reserve(amount float64) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	if l.halted {
		return uuid.Nil, ErrHalted
	}
	if amount <= 0 {
		return uuid.Nil, fmt.Errorf("ledger.Reserve: non-positive amount %.2f", amount)
	}
	if amount > l.available {
		return uuid.Nil, fmt.Errorf("ledger.Reserve: %.2f requested, %.2f available: %w",
			amount, l.available, ErrInsufficientFunds)
	}

	token := uuid.New()
	l.available -= amount
	l.reserved += amount
	l.dailyBets++
	l.reservations[token] = amount
	l.checkInvariants("reserve")
	return token, nil
}

// Release undoes a reservation, returning the ledger to its pre-reserve
// state. The daily bet count is NOT decremented: a released slot still
// counts against the day.
func (l *Ledger) Release(token uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	amount, ok := l.reservations[token]
	if !ok {
		return fmt.Errorf("ledger.Release: %s: %w", token, ErrUnknownReservation)
	}
	delete(l.reservations, token)
	l.reserved -= amount
	l.available += amount
	l.checkInvariants("release")
	return nil
}

// Settle applies the realized result of a reserved bet: the reservation is
// removed from exposure and the stake plus pnl flows back into available
// capital and the daily P&L. A full loss is pnl = -stake, a void is pnl = 0.
func (l *Ledger) Settle(token uuid.UUID, pnl float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	amount, ok := l.reservations[token]
	if !ok {
		return fmt.Errorf("ledger.Settle: %s: %w", token, ErrUnknownReservation)
	}
	delete(l.reservations, token)
	l.reserved -= amount
	l.available += amount + pnl
	l.dailyPnL += pnl
	l.checkInvariants("settle")
	return nil
}

// RestoreReservation re-binds a reservation token after a restart. Available
// capital is untouched: the restored snapshot is already net of this stake.
// Only the exposure and the token come back, so settlement can find it.
func (l *Ledger) RestoreReservation(token uuid.UUID, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return fmt.Errorf("ledger.RestoreReservation: non-positive amount %.2f", amount)
	}
	if _, ok := l.reservations[token]; ok {
		return fmt.Errorf("ledger.RestoreReservation: %s already bound", token)
	}
	l.reservations[token] = amount
	l.reserved += amount
	return nil
}

// DailyLossExceeded reports whether today's realized losses have reached the
// configured limit. Equality counts as exceeded.
func (l *Ledger) DailyLossExceeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	if l.cfg.DailyLossLimit <= 0 {
		return false
	}
	return l.dailyPnL <= -l.cfg.DailyLossLimit
}

// Snapshot returns a consistent copy of the current bankroll state.
func (l *Ledger) Snapshot() domain.BankrollState {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	return domain.BankrollState{
		AvailableCapital: l.available,
		ReservedExposure: l.reserved,
		DailyRealizedPnL: l.dailyPnL,
		DailyBetCount:    l.dailyBets,
		DayWindowStart:   l.dayStart,
	}
}

// Halted reports whether the ledger has failed closed. Once halted it never
// accepts another reservation for the lifetime of the process.
func (l *Ledger) Halted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.halted
}

// rollover resets the daily counters when the 24h window has elapsed.
// Lazy: evaluated on first access, no separate timer. Idempotent under
// repeated checks within the same window. Caller must hold the lock.
func (l *Ledger) rollover() {
	now := l.now()
	if l.dayStart.IsZero() {
		l.dayStart = now
		return
	}
	if now.Sub(l.dayStart) < day {
		return
	}
	for !l.dayStart.Add(day).After(now) {
		l.dayStart = l.dayStart.Add(day)
	}
	l.dailyPnL = 0
	l.dailyBets = 0
}

// checkInvariants fails the ledger closed if capital or exposure went
// negative. Money-moving logic never recovers locally from this: further
// reservations are refused until manual intervention. Caller must hold the
// lock.
func (l *Ledger) checkInvariants(op string) {
	const eps = 1e-9
	if l.available < -eps || l.reserved < -eps {
		l.halted = true
		slog.Error("ledger invariant violated, halting bet placement",
			"op", op,
			"available", l.available,
			"reserved", l.reserved,
		)
	}
}
