package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tradeterm/orderform/internal/domain"
)

type priceGetter interface {
	GetPrice(ctx context.Context, pairID string, exchange string) (map[string]decimal.Decimal, error)
}

// TerminalPricer fetches prices from the terminal backend's price endpoint.
type TerminalPricer struct {
	client priceGetter
}

func NewTerminalPricer(client priceGetter) *TerminalPricer {
	return &TerminalPricer{client: client}
}

func (p *TerminalPricer) GetPrice(ctx context.Context, pair domain.Pair, exchange domain.ExchangeName) (decimal.Decimal, error) {
	prices, err := p.client.GetPrice(ctx, pair.ID, exchange.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "fetch price for %s on %s", pair.ID, exchange)
	}

	price, ok := prices[pair.ID]
	if !ok || price.IsZero() {
		return decimal.Zero, errors.Errorf("backend returned no price for %s on %s", pair.ID, exchange)
	}
	return price, nil
}
