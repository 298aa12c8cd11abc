package domain

import "github.com/shopspring/decimal"

// QuantityConversion result of converting a typed quantity into the other
// unit via the backend's exchange-aware conversion.
type QuantityConversion struct {
	BaseAssetQty  decimal.Decimal `json:"base_asset_qty"`
	QuoteAssetQty decimal.Decimal `json:"quote_asset_qty"`
}

// OrderRequest the submit payload assembled by the order form. Submission
// itself is handled downstream; the engine only guarantees the base and quote
// quantities in here are numerically consistent.
type OrderRequest struct {
	ClientOrderID string          `json:"client_order_id"`
	Accounts      []string        `json:"accounts"`
	PairID        string          `json:"pair_id"`
	Side          Side            `json:"side"`
	BaseAssetQty  decimal.Decimal `json:"base_asset_qty"`
	QuoteAssetQty decimal.Decimal `json:"quote_asset_qty"`
}
