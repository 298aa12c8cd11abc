// Package form is the UI-facing facade of the order-entry engine: it owns the
// trader's selection state and wires the balance store, poller, aggregator
// and quantity reconciler together behind one API.
package form

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
	"github.com/tradeterm/orderform/internal/services/balance"
	"github.com/tradeterm/orderform/internal/services/pricer"
	"github.com/tradeterm/orderform/internal/services/quantity"
)

type submitter interface {
	SubmitOrder(ctx context.Context, order domain.OrderRequest) error
}

// Overrides optionally replaces parts of the current selection for a single
// aggregation call.
type Overrides struct {
	SelectedAccounts []string
	SelectedPair     *domain.Pair
}

// OrderForm ties the order-entry services together for one session.
type OrderForm struct {
	logger     *zap.Logger
	store      *balance.Store
	poller     *balance.Poller
	aggregator *balance.Aggregator
	reconciler *quantity.Reconciler
	prices     *pricer.MemoPricer
	submitter  submitter

	mu            sync.Mutex
	directory     []domain.Account
	selection     domain.SelectionState
	activeTab     domain.ActiveTab
	authenticated bool
}

// New creates an order form over an account directory. The form starts on the
// Orders tab with nothing selected; polling begins once accounts are picked.
func New(
	store *balance.Store,
	poller *balance.Poller,
	aggregator *balance.Aggregator,
	reconciler *quantity.Reconciler,
	prices *pricer.MemoPricer,
	submitter submitter,
	directory []domain.Account,
	logger *zap.Logger,
) *OrderForm {
	return &OrderForm{
		logger:     logger,
		store:      store,
		poller:     poller,
		aggregator: aggregator,
		reconciler: reconciler,
		prices:     prices,
		submitter:  submitter,
		directory:  directory,
		activeTab:  domain.TabOrders,
	}
}

// SelectAccounts replaces the selected account set and restarts polling.
func (f *OrderForm) SelectAccounts(ctx context.Context, names []string) {
	f.mu.Lock()
	f.selection.SelectedAccounts = append([]string(nil), names...)
	f.syncReconcilerLocked()
	f.mu.Unlock()
	f.restartPolling(ctx)
}

// SelectPair replaces the trading pair; quantity state and the price memo are
// reset because nothing derived from the old pair survives.
func (f *OrderForm) SelectPair(ctx context.Context, pair domain.Pair) {
	f.mu.Lock()
	old := f.selection.SelectedPair
	exchange := f.primaryExchangeLocked()
	f.selection.SelectedPair = pair
	f.syncReconcilerLocked()
	f.mu.Unlock()

	f.prices.Reset(old, exchange)
	f.reconciler.Reset()
	f.restartPolling(ctx)
}

// SelectSide sets the order side.
func (f *OrderForm) SelectSide(side domain.Side) {
	f.mu.Lock()
	f.selection.SelectedSide = side
	f.mu.Unlock()
}

// SetActiveTab records the terminal tab in view and restarts polling, since
// the tab decides the polling scope.
func (f *OrderForm) SetActiveTab(ctx context.Context, tab domain.ActiveTab) {
	f.mu.Lock()
	f.activeTab = tab
	f.mu.Unlock()
	f.restartPolling(ctx)
}

// SetAuthenticated flips the auth flag; polling only runs while authenticated.
func (f *OrderForm) SetAuthenticated(ctx context.Context, authed bool) {
	f.mu.Lock()
	f.authenticated = authed
	f.mu.Unlock()
	f.restartPolling(ctx)
}

func (f *OrderForm) restartPolling(ctx context.Context) {
	f.mu.Lock()
	sel, tab, authed := f.selection, f.activeTab, f.authenticated
	directory := f.directory
	f.mu.Unlock()

	scope, ok := balance.ResolveScope(sel, tab, authed, directory)
	if !ok {
		f.poller.Stop()
		return
	}
	f.poller.Restart(ctx, scope)
}

// RefreshBalances triggers one immediate poll for the named accounts without
// touching the recurring schedule.
func (f *OrderForm) RefreshBalances(ctx context.Context, names []string) {
	f.mu.Lock()
	byName := make(map[string]domain.Account, len(f.directory))
	for _, acc := range f.directory {
		byName[acc.Name] = acc
	}
	f.mu.Unlock()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if acc, ok := byName[name]; ok {
			ids = append(ids, acc.ID)
		}
	}
	f.poller.PollOnce(ctx, balance.Scope{AccountIDs: ids})
}

// Balances returns a copy of the cached balance snapshots.
func (f *OrderForm) Balances() map[string][]domain.AssetEntry {
	return f.store.Snapshot()
}

// IsBalanceLoading reports whether a balance poll is in flight.
func (f *OrderForm) IsBalanceLoading() bool {
	return f.store.IsLoading()
}

// AssetBalance computes the aggregate asset balance for a symbol.
func (f *OrderForm) AssetBalance(symbol string, o *Overrides) decimal.Decimal {
	return f.aggregator.AssetBalance(symbol, f.balanceContext(o))
}

// MarginBalance computes the aggregate margin balance for a symbol.
func (f *OrderForm) MarginBalance(symbol string, o *Overrides) decimal.Decimal {
	return f.aggregator.MarginBalance(symbol, f.balanceContext(o))
}

// CurrentBalance returns the balance backing the selected side.
func (f *OrderForm) CurrentBalance(o *Overrides) decimal.Decimal {
	f.mu.Lock()
	side := f.selection.SelectedSide
	f.mu.Unlock()
	return f.aggregator.CurrentBalance(f.balanceContext(o), side)
}

// USDTBalance returns the aggregate USDT balance.
func (f *OrderForm) USDTBalance(o *Overrides) decimal.Decimal {
	return f.aggregator.USDTBalance(f.balanceContext(o))
}

// Quantity returns the current quantity state for the UI.
func (f *OrderForm) Quantity() quantity.State {
	return f.reconciler.State()
}

// SetBaseQty forwards a base-field edit to the reconciler.
func (f *OrderForm) SetBaseQty(ctx context.Context, value string) {
	f.reconciler.SetBaseQty(ctx, value)
}

// SetQuoteQty forwards a quote-field edit to the reconciler.
func (f *OrderForm) SetQuoteQty(ctx context.Context, value string) {
	f.reconciler.SetQuoteQty(ctx, value)
}

// CommitBasePercent forwards a base-slider commit.
func (f *OrderForm) CommitBasePercent(ctx context.Context, percent decimal.Decimal) {
	f.reconciler.CommitBasePercent(ctx, percent)
}

// CommitQuotePercent forwards a quote-slider commit.
func (f *OrderForm) CommitQuotePercent(ctx context.Context, percent decimal.Decimal) {
	f.reconciler.CommitQuotePercent(ctx, percent)
}

// SetSliderDragging marks a slider drag in progress.
func (f *OrderForm) SetSliderDragging(dragging bool) {
	f.reconciler.SetSliderDragging(dragging)
}

// BuildOrder assembles a submit payload from the reconciled quantities. It
// fails while a conversion is in flight or when the quantities are not yet
// numerically consistent.
func (f *OrderForm) BuildOrder() (domain.OrderRequest, error) {
	state := f.reconciler.State()
	if state.Converting {
		return domain.OrderRequest{}, errors.New("quantity conversion in progress")
	}
	if state.ErrMsg != "" {
		return domain.OrderRequest{}, errors.New(state.ErrMsg)
	}

	baseQty, err := parseQty(state.BaseQty, state.BasePlaceholder)
	if err != nil {
		return domain.OrderRequest{}, errors.Wrap(err, "base quantity")
	}
	quoteQty, err := parseQty(state.QuoteQty, state.QuotePlaceholder)
	if err != nil {
		return domain.OrderRequest{}, errors.Wrap(err, "quote quantity")
	}

	f.mu.Lock()
	sel := f.selection
	f.mu.Unlock()

	return domain.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Accounts:      append([]string(nil), sel.SelectedAccounts...),
		PairID:        sel.SelectedPair.ID,
		Side:          sel.SelectedSide,
		BaseAssetQty:  baseQty,
		QuoteAssetQty: quoteQty,
	}, nil
}

// Submit builds and posts the order.
func (f *OrderForm) Submit(ctx context.Context) error {
	order, err := f.BuildOrder()
	if err != nil {
		return err
	}

	f.logger.Info("submitting order",
		zap.String("client_order_id", order.ClientOrderID),
		zap.String("pair_id", order.PairID),
		zap.String("side", string(order.Side)),
		zap.String("base_qty", order.BaseAssetQty.String()),
		zap.String("quote_qty", order.QuoteAssetQty.String()))

	return errors.Wrap(f.submitter.SubmitOrder(ctx, order), "submit order")
}

// parseQty reads the committed field value when present, falling back to the
// derived placeholder.
func parseQty(value, placeholder string) (decimal.Decimal, error) {
	raw := value
	if raw == "" {
		raw = placeholder
	}
	if raw == "" {
		return decimal.Decimal{}, errors.New("not set")
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "parse %q", raw)
	}
	return qty, nil
}

func (f *OrderForm) balanceContext(o *Overrides) balance.Context {
	f.mu.Lock()
	defer f.mu.Unlock()

	bctx := balance.Context{
		SelectedAccounts: append([]string(nil), f.selection.SelectedAccounts...),
		SelectedPair:     f.selection.SelectedPair,
		Accounts:         f.directory,
	}
	if o != nil {
		if o.SelectedAccounts != nil {
			bctx.SelectedAccounts = o.SelectedAccounts
		}
		if o.SelectedPair != nil {
			bctx.SelectedPair = *o.SelectedPair
		}
	}
	return bctx
}

// syncReconcilerLocked pushes the current selection into the reconciler.
// Callers must hold f.mu.
func (f *OrderForm) syncReconcilerLocked() {
	bctx := balance.Context{
		SelectedAccounts: append([]string(nil), f.selection.SelectedAccounts...),
		SelectedPair:     f.selection.SelectedPair,
		Accounts:         f.directory,
	}
	f.reconciler.SetSelection(bctx, f.primaryExchangeLocked())
}

// primaryExchangeLocked returns the exchange of the first selected account,
// used for price lookups. Callers must hold f.mu.
func (f *OrderForm) primaryExchangeLocked() domain.ExchangeName {
	if len(f.selection.SelectedAccounts) == 0 {
		return ""
	}
	for _, acc := range f.directory {
		if acc.Name == f.selection.SelectedAccounts[0] {
			return acc.ExchangeName
		}
	}
	return ""
}
