package domain

import (
	"fmt"
	"time"
)

// BettingOpportunity es una apuesta candidata producida por la fase de
// reasoning. Inmutable una vez creada: la fase de riesgo la consume pero
// nunca la modifica.
type BettingOpportunity struct {
	EventID          string
	MarketSide       string
	ModelProbability float64 // probabilidad del modelo, en [0, 1]
	MarketPrice      float64 // probabilidad implícita del mercado, en (0, 1)
	Metadata         map[string]string
	ProducedAt       time.Time
}

// Edge devuelve la ventaja en espacio de probabilidad:
// probabilidad del modelo menos probabilidad implícita del mercado.
func (o BettingOpportunity) Edge() float64 {
	return o.ModelProbability - o.MarketPrice
}

// NetOdds devuelve las odds decimales netas b implicadas por el precio:
// apostar 1 unidad paga b unidades de ganancia si acierta.
func (o BettingOpportunity) NetOdds() float64 {
	return 1/o.MarketPrice - 1
}

// ExpectedValue devuelve el EV por unidad apostada:
// p*b - (1-p), con b las odds netas.
func (o BettingOpportunity) ExpectedValue() float64 {
	p := o.ModelProbability
	return p*o.NetOdds() - (1 - p)
}

// Validate comprueba que la oportunidad tiene valores usables.
func (o BettingOpportunity) Validate() error {
	if o.EventID == "" || o.MarketSide == "" {
		return fmt.Errorf("opportunity: missing event or side")
	}
	if o.ModelProbability < 0 || o.ModelProbability > 1 {
		return fmt.Errorf("opportunity %s/%s: model probability %.4f out of [0,1]",
			o.EventID, o.MarketSide, o.ModelProbability)
	}
	if o.MarketPrice <= 0 || o.MarketPrice >= 1 {
		return fmt.Errorf("opportunity %s/%s: market price %.4f out of (0,1)",
			o.EventID, o.MarketSide, o.MarketPrice)
	}
	return nil
}

// Ref devuelve la referencia estable de la oportunidad (evento + lado).
func (o BettingOpportunity) Ref() string {
	return o.EventID + "/" + o.MarketSide
}
