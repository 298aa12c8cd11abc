// Package pricer provides current-price lookups for trading pairs, with a
// memoizing wrapper that bounds both staleness and retry pressure.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tradeterm/orderform/internal/domain"
)

// Pricer returns the current price for a pair on a venue.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair, exchange domain.ExchangeName) (decimal.Decimal, error)
}
