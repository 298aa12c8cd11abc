package quantity

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
	"github.com/tradeterm/orderform/internal/services/balance"
)

type pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair, exchange domain.ExchangeName) (decimal.Decimal, error)
}

type converter interface {
	ConvertQuantity(ctx context.Context, accounts []string, pairID string, value decimal.Decimal,
		isBaseUnit bool, price decimal.Decimal, toContracts bool) (domain.QuantityConversion, error)
}

type balances interface {
	AssetBalance(symbol string, bctx balance.Context) decimal.Decimal
}

// Reconciler tracks which quantity field the user last edited and derives the
// other one through a price conversion, keeping both percentage sliders in
// step. At most one conversion is in flight at a time; edits arriving while
// one runs are coalesced into a single follow-up pass.
type Reconciler struct {
	logger    *zap.Logger
	pricer    pricer
	converter converter
	balances  balances

	mu             sync.Mutex
	bctx           balance.Context
	exchange       domain.ExchangeName
	phase          phase
	lastEdited     Field
	baseQty        string
	quoteQty       string
	basePlacehold  string
	quotePlacehold string
	basePercent    decimal.Decimal
	quotePercent   decimal.Decimal
	sliderDragging bool
	errMsg         string
	generation     uint64
}

// NewReconciler creates an idle reconciler.
func NewReconciler(pricer pricer, converter converter, balances balances, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		logger:    logger,
		pricer:    pricer,
		converter: converter,
		balances:  balances,
	}
}

// SetSelection replaces the aggregation context. In-flight conversions are
// invalidated; their results will be dropped on arrival.
func (r *Reconciler) SetSelection(bctx balance.Context, exchange domain.ExchangeName) {
	r.mu.Lock()
	r.bctx = bctx
	r.exchange = exchange
	r.generation++
	r.mu.Unlock()
}

// Reset clears all quantity state, e.g. when the form unmounts or the pair changes.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.phase = phaseIdle
	r.lastEdited = FieldNone
	r.baseQty, r.quoteQty = "", ""
	r.basePlacehold, r.quotePlacehold = "", ""
	r.basePercent, r.quotePercent = decimal.Zero, decimal.Zero
	r.errMsg = ""
	r.generation++
	r.mu.Unlock()
}

// SetBaseQty records a user edit of the base quantity field.
func (r *Reconciler) SetBaseQty(ctx context.Context, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(ctx, event{kind: evEditBase, value: value})
}

// SetQuoteQty records a user edit of the quote quantity field.
func (r *Reconciler) SetQuoteQty(ctx context.Context, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(ctx, event{kind: evEditQuote, value: value})
}

// CommitBasePercent handles a base percentage-slider commit: the quantity is
// computed from the aggregate balance, not from the other field.
func (r *Reconciler) CommitBasePercent(ctx context.Context, percent decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(ctx, event{kind: evCommitBasePercent, percent: percent})
}

// CommitQuotePercent handles a quote percentage-slider commit.
func (r *Reconciler) CommitQuotePercent(ctx context.Context, percent decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transition(ctx, event{kind: evCommitQuotePercent, percent: percent})
}

// SetSliderDragging marks a percentage-slider drag in progress. While set,
// reconciliation does not recompute the sliders under the user's cursor.
func (r *Reconciler) SetSliderDragging(dragging bool) {
	r.mu.Lock()
	r.sliderDragging = dragging
	r.mu.Unlock()
}

// State returns a copy of the current quantity state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		BaseQty:          r.baseQty,
		QuoteQty:         r.quoteQty,
		BasePlaceholder:  r.basePlacehold,
		QuotePlaceholder: r.quotePlacehold,
		BasePercent:      r.basePercent,
		QuotePercent:     r.quotePercent,
		LastEdited:       r.lastEdited,
		Converting:       r.phase == phaseReconciling,
		ErrMsg:           r.errMsg,
	}
}
