package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AssetType distinguishes derivative positions from plain balances.
type AssetType string

const (
	// AssetTypeBalance a plain wallet balance.
	AssetTypeBalance AssetType = "balance"
	// AssetTypePosition an open derivative position.
	AssetTypePosition AssetType = "position"
)

// AssetEntry one line item inside a balance snapshot, as delivered by the
// terminal backend. Amount and Size are mutually exclusive: exchanges report
// one or the other, never both.
type AssetEntry struct {
	Symbol        string          `json:"symbol"`
	Amount        decimal.Decimal `json:"amount"`
	Size          decimal.Decimal `json:"size"`
	Borrowed      decimal.Decimal `json:"borrowed"`
	WalletType    WalletType      `json:"wallet_type"`
	AssetType     AssetType       `json:"asset_type"`
	MarginBalance decimal.Decimal `json:"margin_balance"`
	InitialMargin decimal.Decimal `json:"initial_margin"`
	Notional      decimal.Decimal `json:"notional"`
}

// Quantity returns the held quantity regardless of which field the exchange
// reports it in.
func (e *AssetEntry) Quantity() decimal.Decimal {
	if !e.Amount.IsZero() {
		return e.Amount
	}
	return e.Size
}

// NetQuantity returns quantity minus borrowed. Negative results represent a
// net short or borrow position.
func (e *AssetEntry) NetQuantity() decimal.Decimal {
	return e.Quantity().Sub(e.Borrowed)
}

// EffectiveMargin prefers the exchange-reported margin balance when positive
// and falls back to net quantity otherwise. Non-positive margin balances are
// treated as absent on purpose: some venues report zero for flat isolated
// positions whose equity still sits in the raw amount.
func (e *AssetEntry) EffectiveMargin() decimal.Decimal {
	if e.MarginBalance.IsPositive() {
		return e.MarginBalance
	}
	return e.NetQuantity()
}

// IsPosition reports whether the entry is an open derivative position.
func (e *AssetEntry) IsPosition() bool {
	return e.AssetType == AssetTypePosition
}

// Validate rejects entries that carry both amount and size. They have never
// been observed together; treat it as a backend bug rather than guessing.
func (e *AssetEntry) Validate() error {
	if e.Symbol == "" {
		return errors.New("asset entry symbol is required")
	}
	if !e.Amount.IsZero() && !e.Size.IsZero() {
		return errors.Errorf("asset entry %s carries both amount (%s) and size (%s)",
			e.Symbol, e.Amount.String(), e.Size.String())
	}
	return nil
}
