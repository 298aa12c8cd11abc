// Package clients wraps the remote services the engine talks to: the trading
// terminal backend and the Hyperliquid SDK.
package clients

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tradeterm/orderform/internal/domain"
)

const terminalTimeout = 10 * time.Second

// TerminalClient talks to the terminal backend's REST API: balance snapshots,
// price lookups, quantity conversion and order submission.
type TerminalClient struct {
	client *resty.Client
}

// NewTerminalClient creates a client for the given backend base URL.
func NewTerminalClient(baseURL string) *TerminalClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(terminalTimeout).
		SetHeader("Accept", "application/json")

	return &TerminalClient{client: client}
}

type balancesRequest struct {
	AccountIDs []string `json:"account_ids"`
}

type balancesResponse struct {
	Balances []domain.BalanceSnapshot `json:"balances"`
}

// FetchBalances returns fresh snapshots for the given account ids. An empty
// slice asks for all accounts. Safe to call on every poll tick.
func (c *TerminalClient) FetchBalances(ctx context.Context, accountIDs []string) ([]domain.BalanceSnapshot, error) {
	var out balancesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(balancesRequest{AccountIDs: accountIDs}).
		SetResult(&out).
		Post("/api/v1/balances")
	if err != nil {
		return nil, errors.Wrap(err, "fetch balances")
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetch balances: backend returned %s", resp.Status())
	}
	return out.Balances, nil
}

// GetPrice returns the backend's current price map for a pair on a venue.
func (c *TerminalClient) GetPrice(ctx context.Context, pairID string, exchange string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("pair_id", pairID).
		SetQueryParam("exchange", exchange).
		SetResult(&out).
		Get("/api/v1/price")
	if err != nil {
		return nil, errors.Wrap(err, "fetch price")
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetch price: backend returned %s", resp.Status())
	}
	return out, nil
}

type convertRequest struct {
	Accounts    []string        `json:"accounts"`
	PairID      string          `json:"pair_id"`
	Value       decimal.Decimal `json:"value"`
	IsBaseUnit  bool            `json:"is_base_unit"`
	Price       decimal.Decimal `json:"price"`
	ToContracts bool            `json:"to_contracts,omitempty"`
}

// ConvertQuantity converts a typed quantity into the other unit given a
// price, applying exchange-specific rounding and contract rules server-side.
func (c *TerminalClient) ConvertQuantity(ctx context.Context, accounts []string, pairID string,
	value decimal.Decimal, isBaseUnit bool, price decimal.Decimal, toContracts bool) (domain.QuantityConversion, error) {

	var out domain.QuantityConversion
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(convertRequest{
			Accounts:    accounts,
			PairID:      pairID,
			Value:       value,
			IsBaseUnit:  isBaseUnit,
			Price:       price,
			ToContracts: toContracts,
		}).
		SetResult(&out).
		Post("/api/v1/quantity/convert")
	if err != nil {
		return domain.QuantityConversion{}, errors.Wrap(err, "convert quantity")
	}
	if resp.IsError() {
		return domain.QuantityConversion{}, errors.Errorf("convert quantity: backend returned %s", resp.Status())
	}
	return out, nil
}

// SubmitOrder posts a reconciled order payload to the backend.
func (c *TerminalClient) SubmitOrder(ctx context.Context, order domain.OrderRequest) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(order).
		Post("/api/v1/orders")
	if err != nil {
		return errors.Wrap(err, "submit order")
	}
	if resp.IsError() {
		return errors.Errorf("submit order: backend returned %s", resp.Status())
	}
	return nil
}
