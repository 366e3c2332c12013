package domain

import "time"

// BankrollState es un snapshot inmutable del ledger en un instante dado.
// El estado mutable vive en el ledger; todo lector recibe copias.
type BankrollState struct {
	AvailableCapital float64 // capital libre, neto de reservas
	ReservedExposure float64 // capital reservado para apuestas pendientes
	DailyRealizedPnL float64
	DailyBetCount    int
	DayWindowStart   time.Time
}
