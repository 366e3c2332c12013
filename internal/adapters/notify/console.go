package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/betbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyCycle imprime el resumen del ciclo en el modo configurado.
func (c *Console) NotifyCycle(_ context.Context, record domain.CycleRecord, assessments []domain.RiskAssessment, bets []domain.BetRecord, bankroll domain.BankrollState) error {
	if record.Aborted {
		fmt.Fprintf(c.out, "[%s] cycle %s ABORTED in %s: %s\n",
			time.Now().Format("15:04:05"),
			shortID(record.CycleID.String()), record.AbortPhase, record.AbortReason)
		return nil
	}

	if c.table {
		c.printFull(record, assessments, bets, bankroll)
	} else {
		c.printCompact(record, assessments, bankroll)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(record domain.CycleRecord, assessments []domain.RiskAssessment, bankroll domain.BankrollState) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] cycle %s: %d opps → %d approved, %d placed | avail $%.2f expo $%.2f pnl $%+.2f (%d/día)",
		now, shortID(record.CycleID.String()),
		record.Opportunities, record.Approved, record.Placed,
		bankroll.AvailableCapital, bankroll.ReservedExposure,
		bankroll.DailyRealizedPnL, bankroll.DailyBetCount)

	shown := 0
	for _, a := range assessments {
		if !a.Approved || shown >= 3 {
			continue
		}
		fmt.Fprintf(&sb, " | %s $%.0f @%.2f edge %.3f",
			truncate(a.Opportunity.Ref(), 25), a.Stake, a.Opportunity.MarketPrice, a.Edge)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de veredictos y el estado del bankroll.
func (c *Console) printFull(record domain.CycleRecord, assessments []domain.RiskAssessment, bets []domain.BetRecord, bankroll domain.BankrollState) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] cycle %s — %d opportunities, %d approved, %d placed (%.1fs)\n",
		now, shortID(record.CycleID.String()),
		record.Opportunities, record.Approved, record.Placed,
		record.FinishedAt.Sub(record.StartedAt).Seconds())

	if len(assessments) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Event", "Side", "P", "Price", "Edge", "EV", "Kelly", "Stake", "Verdict")

		for i, a := range assessments {
			verdict := "APPROVED"
			stake := fmt.Sprintf("$%.2f", a.Stake)
			if !a.Approved {
				verdict = string(a.Reason)
				stake = "-"
			}
			table.Append(
				fmt.Sprintf("%d", i+1),
				truncate(a.Opportunity.EventID, 28),
				a.Opportunity.MarketSide,
				fmt.Sprintf("%.3f", a.Opportunity.ModelProbability),
				fmt.Sprintf("%.3f", a.Opportunity.MarketPrice),
				fmt.Sprintf("%+.3f", a.Edge),
				fmt.Sprintf("%+.3f", a.ExpectedValue),
				fmt.Sprintf("%.3f", a.KellyFraction),
				stake,
				verdict,
			)
		}
		table.Render()
	}

	for _, bet := range bets {
		exch := bet.ExchangeID
		if exch == "" {
			exch = "paper"
		}
		fmt.Fprintf(c.out, "  placed %s %s/%s $%.2f @%.3f [%s]\n",
			shortID(bet.ID.String()), bet.EventID, bet.MarketSide,
			bet.Stake, bet.Price, exch)
	}

	fmt.Fprintf(c.out, "  bankroll: avail $%.2f | exposure $%.2f | daily pnl $%+.2f | bets today %d\n\n",
		bankroll.AvailableCapital, bankroll.ReservedExposure,
		bankroll.DailyRealizedPnL, bankroll.DailyBetCount)
}

// --- helpers ---

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
