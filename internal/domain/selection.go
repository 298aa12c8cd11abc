package domain

// Side order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// IsValid checks if the Side value is valid.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// ActiveTab the terminal tab currently shown; it decides which accounts the
// balance poller refreshes.
type ActiveTab string

const (
	TabOrders    ActiveTab = "orders"
	TabPositions ActiveTab = "positions"
	TabBalances  ActiveTab = "balances"
)

// SelectionState what the trader has picked on the order-entry surface.
// Mutated only by the UI layer; read-only to the engine.
type SelectionState struct {
	SelectedAccounts []string
	SelectedPair     Pair
	SelectedSide     Side
}
