// Package quantity keeps the base and quote quantity fields of an order form
// mutually consistent through an asynchronous price-conversion round trip.
package quantity

import (
	"github.com/shopspring/decimal"
)

// Field names one of the two dependent quantity inputs.
type Field string

const (
	FieldNone  Field = ""
	FieldBase  Field = "base"
	FieldQuote Field = "quote"
)

// phase is the reconciler's explicit state. The guard "never overwrite the
// field being edited" lives entirely in the transition switch.
type phase int

const (
	phaseIdle phase = iota
	phaseEditingBase
	phaseEditingQuote
	phaseReconciling
)

// ConversionErrMsg is the field-level error shown when a price cannot be
// obtained for the dependent-quantity conversion.
const ConversionErrMsg = "No price to convert quote to base quantity"

// State is a read-only copy of the reconciler's fields for UI consumers.
// Qty holds raw user input; Placeholder holds the derived figure computed by
// reconciliation. The derived side's Qty stays empty until the user commits.
type State struct {
	BaseQty          string
	QuoteQty         string
	BasePlaceholder  string
	QuotePlaceholder string
	BasePercent      decimal.Decimal
	QuotePercent     decimal.Decimal
	LastEdited       Field
	Converting       bool
	ErrMsg           string
}
