package storage

// sqlite.go — persistencia del historial del agente.
//
// Estrategia:
//   - `cycles`: una fila ligera por ciclo terminado (conteos + aborto).
//   - `assessments`: una fila por veredicto de riesgo, aprobados y rechazados.
//     El histórico de rechazos es la señal para calibrar umbrales.
//   - `bets`: una fila por apuesta; la liquidación es un UPDATE condicionado
//     a status='pending', así la transición ocurre exactamente una vez
//     aunque el reconciliador repita un lote.
//   - `bankroll`: snapshot único (id=1) del ledger, para restaurar tras
//     un reinicio.
//   - Prune automático al arrancar: historial > 30d; las apuestas pendientes
//     nunca se borran.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo del agente
CREATE TABLE IF NOT EXISTS cycles (
    cycle_id      TEXT PRIMARY KEY,
    started_at    DATETIME NOT NULL,
    finished_at   DATETIME NOT NULL,
    opportunities INTEGER  NOT NULL DEFAULT 0,
    approved      INTEGER  NOT NULL DEFAULT 0,
    placed        INTEGER  NOT NULL DEFAULT 0,
    aborted       INTEGER  NOT NULL DEFAULT 0,
    abort_phase   TEXT     NOT NULL DEFAULT '',
    abort_reason  TEXT     NOT NULL DEFAULT ''
);

-- Un veredicto por oportunidad evaluada, write-once
CREATE TABLE IF NOT EXISTS assessments (
    id             TEXT PRIMARY KEY,
    cycle_id       TEXT    NOT NULL,
    event_id       TEXT    NOT NULL,
    market_side    TEXT    NOT NULL,
    model_prob     REAL    NOT NULL,
    market_price   REAL    NOT NULL,
    approved       INTEGER NOT NULL DEFAULT 0,
    stake          REAL    NOT NULL DEFAULT 0,
    reason         TEXT    NOT NULL DEFAULT '',
    edge           REAL    NOT NULL DEFAULT 0,
    expected_value REAL    NOT NULL DEFAULT 0,
    kelly_fraction REAL    NOT NULL DEFAULT 0,
    reservation_id TEXT    NOT NULL DEFAULT '',
    evaluated_at   DATETIME NOT NULL
);

-- Una fila por apuesta colocada; solo status/pnl/settled_at mutan
CREATE TABLE IF NOT EXISTS bets (
    id              TEXT PRIMARY KEY,
    cycle_id        TEXT NOT NULL,
    event_id        TEXT NOT NULL,
    market_side     TEXT NOT NULL,
    stake           REAL NOT NULL,
    price           REAL NOT NULL,
    reservation_id  TEXT NOT NULL,
    exchange_id     TEXT NOT NULL DEFAULT '',
    idempotency_key TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'pending',
    pnl             REAL NOT NULL DEFAULT 0,
    placed_at       DATETIME NOT NULL,
    settled_at      DATETIME
);

-- Snapshot único del ledger (id=1)
CREATE TABLE IF NOT EXISTS bankroll (
    id               INTEGER PRIMARY KEY CHECK (id = 1),
    available        REAL NOT NULL,
    reserved         REAL NOT NULL,
    daily_pnl        REAL NOT NULL,
    daily_bets       INTEGER NOT NULL,
    day_window_start DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_started  ON cycles(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_assess_cycle    ON assessments(cycle_id);
CREATE INDEX IF NOT EXISTS idx_bets_status     ON bets(status);
CREATE INDEX IF NOT EXISTS idx_bets_placed     ON bets(placed_at DESC);
`

const retentionHistory = 30 * 24 * time.Hour // historial: 30 días

// Los DATETIME se guardan como texto RFC3339 en UTC: comparables
// lexicográficamente y sin depender del formato del driver.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia historial antiguo.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle archiva el registro de un ciclo terminado.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, r domain.CycleRecord) error {
	aborted := 0
	if r.Aborted {
		aborted = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(cycle_id, started_at, finished_at, opportunities, approved,
			 placed, aborted, abort_phase, abort_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CycleID.String(), fmtTime(r.StartedAt), fmtTime(r.FinishedAt),
		r.Opportunities, r.Approved, r.Placed,
		aborted, string(r.AbortPhase), r.AbortReason,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: %s: %w", r.CycleID, err)
	}
	return nil
}

// SaveAssessments archiva los veredictos de un ciclo en una transacción.
func (s *SQLiteStorage) SaveAssessments(ctx context.Context, assessments []domain.RiskAssessment) error {
	if len(assessments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveAssessments: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assessments
			(id, cycle_id, event_id, market_side, model_prob, market_price,
			 approved, stake, reason, edge, expected_value, kelly_fraction,
			 reservation_id, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveAssessments: prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range assessments {
		approved := 0
		if a.Approved {
			approved = 1
		}
		reservation := ""
		if a.ReservationID != uuid.Nil {
			reservation = a.ReservationID.String()
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID.String(), a.CycleID.String(),
			a.Opportunity.EventID, a.Opportunity.MarketSide,
			a.Opportunity.ModelProbability, a.Opportunity.MarketPrice,
			approved, a.Stake, string(a.Reason),
			a.Edge, a.ExpectedValue, a.KellyFraction,
			reservation, fmtTime(a.EvaluatedAt),
		); err != nil {
			return fmt.Errorf("storage.SaveAssessments: insert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveAssessments: commit: %w", err)
	}
	return nil
}

// SaveBet persiste una apuesta recién colocada.
func (s *SQLiteStorage) SaveBet(ctx context.Context, bet domain.BetRecord) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bets
			(id, cycle_id, event_id, market_side, stake, price,
			 reservation_id, exchange_id, idempotency_key, status, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bet.ID.String(), bet.CycleID.String(),
		bet.EventID, bet.MarketSide, bet.Stake, bet.Price,
		bet.ReservationID.String(), bet.ExchangeID, bet.IdempotencyKey,
		string(bet.Status), fmtTime(bet.PlacedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveBet: %s: %w", bet.ID, err)
	}
	return nil
}

// SettleBet aplica pending → outcome. El WHERE sobre el estado garantiza
// que la transición ocurre una sola vez: si la apuesta ya no está
// pendiente, devuelve error.
func (s *SQLiteStorage) SettleBet(ctx context.Context, betID uuid.UUID, st domain.Settlement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bets
		SET status = ?, pnl = ?, settled_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(st.Outcome), st.PnL, fmtTime(st.SettledAt), betID.String(),
	)
	if err != nil {
		return fmt.Errorf("storage.SettleBet: %s: %w", betID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.SettleBet: %s: rows affected: %w", betID, err)
	}
	if n == 0 {
		return fmt.Errorf("storage.SettleBet: %s: not pending", betID)
	}
	return nil
}

// GetPendingBets devuelve las apuestas aún sin liquidar, por antigüedad.
func (s *SQLiteStorage) GetPendingBets(ctx context.Context) ([]domain.BetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, event_id, market_side, stake, price,
		       reservation_id, exchange_id, idempotency_key, status, placed_at
		FROM bets
		WHERE status = 'pending'
		ORDER BY placed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPendingBets: query: %w", err)
	}
	defer rows.Close()

	var bets []domain.BetRecord
	for rows.Next() {
		var bet domain.BetRecord
		var id, cycleID, reservation, status, placedAt string

		if err := rows.Scan(
			&id, &cycleID, &bet.EventID, &bet.MarketSide,
			&bet.Stake, &bet.Price, &reservation,
			&bet.ExchangeID, &bet.IdempotencyKey, &status, &placedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetPendingBets: scan row: %w", err)
		}

		bet.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("storage.GetPendingBets: bet id %q: %w", id, err)
		}
		bet.CycleID, _ = uuid.Parse(cycleID)
		bet.ReservationID, _ = uuid.Parse(reservation)
		bet.Status = domain.BetStatus(status)
		bet.PlacedAt = parseTime(placedAt)
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// SaveBankroll persiste el snapshot del ledger (upsert sobre id=1).
func (s *SQLiteStorage) SaveBankroll(ctx context.Context, st domain.BankrollState) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bankroll
			(id, available, reserved, daily_pnl, daily_bets, day_window_start, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			available        = excluded.available,
			reserved         = excluded.reserved,
			daily_pnl        = excluded.daily_pnl,
			daily_bets       = excluded.daily_bets,
			day_window_start = excluded.day_window_start,
			updated_at       = excluded.updated_at`,
		st.AvailableCapital, st.ReservedExposure,
		st.DailyRealizedPnL, st.DailyBetCount,
		fmtTime(st.DayWindowStart), fmtTime(time.Now()),
	); err != nil {
		return fmt.Errorf("storage.SaveBankroll: %w", err)
	}
	return nil
}

// LoadBankroll devuelve el último snapshot persistido, si existe.
func (s *SQLiteStorage) LoadBankroll(ctx context.Context) (domain.BankrollState, bool, error) {
	var st domain.BankrollState
	var dayStart string

	err := s.db.QueryRowContext(ctx, `
		SELECT available, reserved, daily_pnl, daily_bets, day_window_start
		FROM bankroll WHERE id = 1`,
	).Scan(&st.AvailableCapital, &st.ReservedExposure,
		&st.DailyRealizedPnL, &st.DailyBetCount, &dayStart)
	if err == sql.ErrNoRows {
		return domain.BankrollState{}, false, nil
	}
	if err != nil {
		return domain.BankrollState{}, false, fmt.Errorf("storage.LoadBankroll: %w", err)
	}
	st.DayWindowStart = parseTime(dayStart)
	return st, true, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina historial antiguo para mantener la DB ligera.
// Las apuestas pendientes se conservan siempre, tengan la edad que tengan.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := fmtTime(time.Now().Add(-retentionHistory))
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM assessments WHERE evaluated_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM bets WHERE status != 'pending' AND placed_at < ?`, cutoff)
}
