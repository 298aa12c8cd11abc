// Package domain defines core data structures used throughout the order-entry engine.
package domain

import "fmt"

// Pair cryptocurrency trading pair as reference data from the terminal backend.
type Pair struct {
	// ID backend identifier, also the symbol users size contracts in.
	ID string `json:"id"`
	// Base base currency symbol.
	Base string `json:"base"`
	// Quote quote currency symbol.
	Quote string `json:"quote"`
	// MarketType market this pair trades on.
	MarketType MarketType `json:"market_type"`
	// IsContract true when quantities are denominated in contracts, not the base asset.
	IsContract bool `json:"is_contract"`
	// IsInverse true for inverse contracts (quantity in quote, PnL in base).
	IsInverse bool `json:"is_inverse"`
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Quote)
}

// SizingSymbol returns the symbol a position in this pair is sized in:
// the pair id itself for contract markets, the base asset otherwise.
func (p *Pair) SizingSymbol() string {
	if p.IsContract {
		return p.ID
	}
	return p.Base
}
