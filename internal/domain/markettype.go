package domain

// MarketType type of market a pair trades on.
type MarketType string

const (
	// MarketTypeSpot spot trading.
	MarketTypeSpot MarketType = "spot"
	// MarketTypePerp perpetual futures.
	MarketTypePerp MarketType = "perp"
	// MarketTypeFuture dated futures.
	MarketTypeFuture MarketType = "future"
	// MarketTypeDex on-chain venues.
	MarketTypeDex MarketType = "dex"
)

// String returns the string representation.
func (m MarketType) String() string {
	return string(m)
}

// IsValid checks if the MarketType value is valid.
func (m MarketType) IsValid() bool {
	return m == MarketTypeSpot || m == MarketTypePerp || m == MarketTypeFuture || m == MarketTypeDex
}
