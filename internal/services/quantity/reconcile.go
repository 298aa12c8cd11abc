// Transition logic for the quantity reconciler. All state changes funnel
// through a single transition switch so the "never overwrite the field the
// user is typing into" invariant has exactly one home.
package quantity

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
)

type eventKind int

const (
	evEditBase eventKind = iota
	evEditQuote
	evCommitBasePercent
	evCommitQuotePercent
	evConversionDone
	evConversionFailed
)

type event struct {
	kind    eventKind
	value   string
	percent decimal.Decimal
	result  domain.QuantityConversion
	gen     uint64
	err     error
}

var hundred = decimal.NewFromInt(100)

// transition applies one event. Callers must hold r.mu.
func (r *Reconciler) transition(ctx context.Context, ev event) {
	switch ev.kind {
	case evEditBase:
		r.baseQty = ev.value
		r.lastEdited = FieldBase
		r.errMsg = ""
		// only a stale derived figure may be cleared, never user input
		if r.quoteQty == "" {
			r.quotePlacehold = ""
		}
		r.generation++
		if r.phase != phaseReconciling {
			r.phase = phaseEditingBase
		}
		r.maybeReconcile(ctx)

	case evEditQuote:
		r.quoteQty = ev.value
		r.lastEdited = FieldQuote
		r.errMsg = ""
		if r.baseQty == "" {
			r.basePlacehold = ""
		}
		r.generation++
		if r.phase != phaseReconciling {
			r.phase = phaseEditingQuote
		}
		r.maybeReconcile(ctx)

	case evCommitBasePercent:
		// slider commits size off the aggregate balance directly and may
		// overwrite the opposite field: they are explicit, discrete commits
		total := r.balances.AssetBalance(r.bctx.SelectedPair.SizingSymbol(), r.bctx)
		qty := total.Abs().Mul(ev.percent).Div(hundred)
		r.baseQty = qty.String()
		r.basePercent = ev.percent.Round(2)
		r.quoteQty = ""
		r.quotePlacehold = ""
		r.lastEdited = FieldBase
		r.errMsg = ""
		r.generation++
		if r.phase != phaseReconciling {
			r.phase = phaseEditingBase
		}
		r.maybeReconcile(ctx)

	case evCommitQuotePercent:
		total := r.balances.AssetBalance(r.bctx.SelectedPair.Quote, r.bctx)
		qty := total.Abs().Mul(ev.percent).Div(hundred)
		r.quoteQty = qty.String()
		r.quotePercent = ev.percent.Round(2)
		r.baseQty = ""
		r.basePlacehold = ""
		r.lastEdited = FieldQuote
		r.errMsg = ""
		r.generation++
		if r.phase != phaseReconciling {
			r.phase = phaseEditingQuote
		}
		r.maybeReconcile(ctx)

	case evConversionDone:
		r.phase = phaseIdle
		if ev.gen != r.generation {
			// superseded by a newer edit; drop the result and let the next
			// pass convert the latest value
			r.maybeReconcile(ctx)
			return
		}
		switch r.lastEdited {
		case FieldBase:
			r.quotePlacehold = ev.result.QuoteAssetQty.String()
		case FieldQuote:
			r.basePlacehold = ev.result.BaseAssetQty.String()
		}
		if !r.sliderDragging {
			r.recomputePercentages()
		}
		r.lastEdited = FieldNone
		r.errMsg = ""

	case evConversionFailed:
		r.phase = phaseIdle
		if ev.gen != r.generation {
			r.maybeReconcile(ctx)
			return
		}
		r.logger.Warn("quantity conversion failed",
			zap.String("pair", r.bctx.SelectedPair.ID),
			zap.Error(ev.err))
		// the authoritative field keeps the raw input; the dependent
		// placeholder is left stale rather than cleared
		r.errMsg = ConversionErrMsg
		r.lastEdited = FieldNone
	}
}

// maybeReconcile starts a conversion round trip if one is warranted and none
// is in flight. Callers must hold r.mu.
func (r *Reconciler) maybeReconcile(ctx context.Context) {
	if r.phase == phaseReconciling || r.lastEdited == FieldNone {
		return
	}

	raw := r.baseQty
	if r.lastEdited == FieldQuote {
		raw = r.quoteQty
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsZero() {
		// mid-typing or cleared field; nothing to convert yet
		return
	}

	r.phase = phaseReconciling
	gen := r.generation
	field := r.lastEdited
	pair := r.bctx.SelectedPair
	exchange := r.exchange
	accounts := append([]string(nil), r.bctx.SelectedAccounts...)

	go r.convert(ctx, gen, field, value, pair, exchange, accounts)
}

// convert performs the price fetch and quantity conversion off the caller's
// goroutine, then feeds the outcome back through the transition switch.
func (r *Reconciler) convert(ctx context.Context, gen uint64, field Field, value decimal.Decimal,
	pair domain.Pair, exchange domain.ExchangeName, accounts []string) {

	price, err := r.pricer.GetPrice(ctx, pair, exchange)
	if err != nil {
		r.mu.Lock()
		r.transition(ctx, event{kind: evConversionFailed, gen: gen, err: err})
		r.mu.Unlock()
		return
	}

	result, err := r.converter.ConvertQuantity(ctx, accounts, pair.ID, value, field == FieldBase, price, pair.IsContract)
	if err != nil {
		r.mu.Lock()
		r.transition(ctx, event{kind: evConversionFailed, gen: gen, err: err})
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.transition(ctx, event{kind: evConversionDone, gen: gen, result: result})
	r.mu.Unlock()
}

// recomputePercentages refreshes both sliders from the aggregate balances.
// Callers must hold r.mu.
func (r *Reconciler) recomputePercentages() {
	baseTotal := r.balances.AssetBalance(r.bctx.SelectedPair.SizingSymbol(), r.bctx)
	quoteTotal := r.balances.AssetBalance(r.bctx.SelectedPair.Quote, r.bctx)
	r.basePercent = percentOf(firstNonEmpty(r.baseQty, r.basePlacehold), baseTotal)
	r.quotePercent = percentOf(firstNonEmpty(r.quoteQty, r.quotePlacehold), quoteTotal)
}

// percentOf computes 100×qty/total rounded to 2 decimals. A zero or unknown
// total yields 0 rather than a division error; negative totals (net short)
// are measured by absolute value.
func percentOf(raw string, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() || raw == "" {
		return decimal.Zero
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return qty.Mul(hundred).Div(total.Abs()).Round(2)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
