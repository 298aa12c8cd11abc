package domain

// ExchangeName identifies the venue an account lives on.
type ExchangeName string

const (
	ExchangeHyperliquid ExchangeName = "Hyperliquid"
	ExchangePacifica    ExchangeName = "Pacifica"
	ExchangeParadex     ExchangeName = "Paradex"
)

// StableQuoteAsset is Hyperliquid's USD-stable quote asset that lives in a
// combined spot+perp wallet and needs special aggregation treatment.
const StableQuoteAsset = "USDH"

// String returns the string representation.
func (e ExchangeName) String() string {
	return string(e)
}
