package domain

import "time"

// MarketQuote es el precio de mercado de un lado del evento. El precio es
// la probabilidad implícita, estrictamente dentro de (0, 1).
type MarketQuote struct {
	Side  string
	Price float64
}

// Valid devuelve true si el precio tiene interpretación como probabilidad.
func (q MarketQuote) Valid() bool {
	return q.Price > 0 && q.Price < 1
}

// Event es un evento apostable descubierto en la fase de research, con sus
// cotizaciones y las notas cualitativas que acompañan al evento.
type Event struct {
	ID          string
	Description string
	StartsAt    time.Time
	Quotes      []MarketQuote
	Notes       []string
	FetchedAt   time.Time
}

// Quote devuelve la cotización del lado dado, si existe.
func (e Event) Quote(side string) (MarketQuote, bool) {
	for _, q := range e.Quotes {
		if q.Side == side {
			return q, true
		}
	}
	return MarketQuote{}, false
}

// Belief es la probabilidad que el modelo asigna a un lado del evento.
type Belief struct {
	Side        string
	Probability float64
}
