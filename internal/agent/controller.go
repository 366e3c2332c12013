package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/alejandrodnm/betbot/internal/ledger"
	"github.com/alejandrodnm/betbot/internal/ports"
	"github.com/alejandrodnm/betbot/internal/risk"
)

// ErrCycleInFlight means a cycle was requested while another one is active.
// The single-flight guarantee queues wake signals instead of overlapping
// cycles, so hitting this error directly means RunCycle was called from
// outside the controller loop.
var ErrCycleInFlight = errors.New("agent: cycle already in flight")

// Config holds the controller timing knobs.
type Config struct {
	// ResearchInterval is the idle time between cycles, unless a wake
	// signal shortcuts the wait.
	ResearchInterval time.Duration
	// PhaseTimeout bounds each phase body. A phase that overruns is
	// treated as failed and the cycle aborts to Idle.
	PhaseTimeout time.Duration
}

// Deps are the collaborators the controller drives.
type Deps struct {
	Research  ports.ResearchProvider
	Estimator ports.BeliefEstimator
	Engine    *risk.Engine
	Executor  ports.Executor
	Store     ports.Storage
	Notifier  ports.Notifier
	Bank      *ledger.Ledger
}

// Controller drives the perpetual betting cycle:
//
//	Idle → Researching → Reasoning → RiskAssessment → Executing → Idle
//
// It owns the only active CycleState, enforces single-flight execution, and
// converts any phase failure into a logged aborted cycle instead of crashing
// the loop.
type Controller struct {
	cfg  Config
	deps Deps

	wake     chan struct{}
	inFlight atomic.Bool

	mu    sync.Mutex
	state domain.CycleState
}

// New creates a Controller. The initial state is Idle.
func New(cfg Config, deps Deps) *Controller {
	return &Controller{
		cfg:   cfg,
		deps:  deps,
		wake:  make(chan struct{}, 1),
		state: domain.NewCycleState(time.Now().UTC()),
	}
}

// State returns a copy of the current cycle state.
func (c *Controller) State() domain.CycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wake requests a cycle ahead of the research interval. Signals arriving
// mid-cycle coalesce into a single queued wake, consumed at the next Idle.
func (c *Controller) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Run executes cycles until the context is canceled. The first cycle runs
// immediately; afterwards the controller sleeps the research interval in
// Idle, or less if a wake signal arrives. Cancellation is honored at the
// next phase boundary, never mid-phase.
func (c *Controller) Run(ctx context.Context) error {
	slog.Info("controller starting",
		"research_interval", c.cfg.ResearchInterval,
		"phase_timeout", c.cfg.PhaseTimeout,
	)

	if err := c.RunCycle(ctx); err != nil {
		slog.Error("cycle aborted", "err", err)
	}

	timer := time.NewTimer(c.cfg.ResearchInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("controller stopped")
			return nil
		case <-timer.C:
		case <-c.wake:
			slog.Info("wake signal received")
		}

		if err := c.RunCycle(ctx); err != nil {
			slog.Error("cycle aborted", "err", err)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.cfg.ResearchInterval)
	}
}

// cycleData is the opaque store handed from phase to phase. Exactly one
// phase writes each field; ownership passes forward, never shared-write.
type cycleData struct {
	events        []domain.Event
	opportunities []domain.BettingOpportunity
	assessments   []domain.RiskAssessment
	bets          []domain.BetRecord
}

// RunCycle runs exactly one full cycle. It returns an error when the cycle
// aborted; rejected bets are not errors.
func (c *Controller) RunCycle(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer c.inFlight.Store(false)

	if c.deps.Bank.Halted() {
		return fmt.Errorf("agent.RunCycle: ledger halted, bet placement disabled")
	}

	start := time.Now()
	cs := domain.NewCycleState(start.UTC())
	c.setPhase(cs, domain.PhaseIdle)
	data := &cycleData{}

	for phase, ok := domain.NextPhase(domain.PhaseIdle); ok && phase != domain.PhaseIdle; phase, ok = domain.NextPhase(phase) {
		if err := ctx.Err(); err != nil {
			c.abort(ctx, cs, phase, data, err)
			return fmt.Errorf("agent.RunCycle: stopped before %s: %w", phase, err)
		}

		c.setPhase(cs, phase)
		slog.Debug("phase started", "cycle_id", cs.CycleID, "phase", phase)

		// Detached from the run context: a stop request lets the phase in
		// flight finish under its own timeout and takes effect at the
		// boundary check above, never mid-phase.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PhaseTimeout)
		err := c.runPhase(pctx, cs, phase, data)
		if err == nil && pctx.Err() != nil {
			err = pctx.Err()
		}
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("phase timeout after %s: %w", c.cfg.PhaseTimeout, err)
			}
			c.abort(ctx, cs, phase, data, err)
			return fmt.Errorf("agent.RunCycle: %s: %w", phase, err)
		}
	}

	c.finish(ctx, cs, data, start)
	return nil
}

// runPhase dispatches to the body of the given phase.
func (c *Controller) runPhase(ctx context.Context, cs domain.CycleState, phase domain.Phase, data *cycleData) error {
	switch phase {
	case domain.PhaseResearching:
		return c.researchPhase(ctx, data)
	case domain.PhaseReasoning:
		return c.reasoningPhase(ctx, data)
	case domain.PhaseRiskAssessment:
		return c.riskPhase(ctx, cs, data)
	case domain.PhaseExecuting:
		return c.executionPhase(ctx, cs, data)
	default:
		return fmt.Errorf("no body for phase %s", phase)
	}
}

// setPhase updates the active cycle state.
func (c *Controller) setPhase(cs domain.CycleState, phase domain.Phase) {
	c.mu.Lock()
	cs.Phase = phase
	c.state = cs
	c.mu.Unlock()
}

// abort records a failed cycle and returns the machine to Idle. Reservations
// held by approved assessments that never became bets are released, so an
// aborted Executing phase leaves no capital dangling.
func (c *Controller) abort(ctx context.Context, cs domain.CycleState, phase domain.Phase, data *cycleData, cause error) {
	c.releaseDangling(data)

	record := domain.CycleRecord{
		CycleID:       cs.CycleID,
		StartedAt:     cs.StartedAt,
		FinishedAt:    time.Now().UTC(),
		Opportunities: len(data.opportunities),
		Approved:      countApproved(data.assessments),
		Placed:        len(data.bets),
		Aborted:       true,
		AbortPhase:    phase,
		AbortReason:   cause.Error(),
	}
	// A shutdown-triggered abort arrives with the parent already canceled;
	// the archival write gets its own short deadline so it still lands.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.deps.Store.SaveCycle(actx, record); err != nil {
		slog.Warn("storage error archiving aborted cycle", "cycle_id", cs.CycleID, "err", err)
	}

	c.setPhase(cs, domain.PhaseIdle)
}

// finish archives a completed cycle, persists the bankroll and notifies.
func (c *Controller) finish(ctx context.Context, cs domain.CycleState, data *cycleData, start time.Time) {
	record := domain.CycleRecord{
		CycleID:       cs.CycleID,
		StartedAt:     cs.StartedAt,
		FinishedAt:    time.Now().UTC(),
		Opportunities: len(data.opportunities),
		Approved:      countApproved(data.assessments),
		Placed:        len(data.bets),
	}

	if err := c.deps.Store.SaveCycle(ctx, record); err != nil {
		slog.Warn("storage error archiving cycle", "cycle_id", cs.CycleID, "err", err)
	}

	bankroll := c.deps.Bank.Snapshot()
	if err := c.deps.Store.SaveBankroll(ctx, bankroll); err != nil {
		slog.Warn("storage error saving bankroll", "err", err)
	}

	if err := c.deps.Notifier.NotifyCycle(ctx, record, data.assessments, data.bets, bankroll); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	c.setPhase(cs, domain.PhaseIdle)
	slog.Info("cycle complete",
		"cycle_id", cs.CycleID,
		"opportunities", record.Opportunities,
		"approved", record.Approved,
		"placed", record.Placed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// releaseDangling frees reservations of approved assessments that have no
// placed bet.
func (c *Controller) releaseDangling(data *cycleData) {
	placed := make(map[string]bool, len(data.bets))
	for _, b := range data.bets {
		placed[b.ReservationID.String()] = true
	}
	for _, a := range data.assessments {
		if !a.Approved || placed[a.ReservationID.String()] {
			continue
		}
		if err := c.deps.Bank.Release(a.ReservationID); err != nil {
			slog.Warn("release failed for dangling reservation",
				"ref", a.Opportunity.Ref(), "err", err)
		}
	}
}

func countApproved(assessments []domain.RiskAssessment) int {
	n := 0
	for _, a := range assessments {
		if a.Approved {
			n++
		}
	}
	return n
}
