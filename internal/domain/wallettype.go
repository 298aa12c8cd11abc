package domain

import "strings"

// WalletType tags which sub-wallet of an exchange account a balance entry
// belongs to. Beyond the common values below, exchanges emit venue-specific
// tags such as "perpdex-<dex>" for Hyperliquid perp-dex sub-accounts.
type WalletType string

const (
	// WalletUnified cross-margin bucket shared across spot and derivatives.
	WalletUnified WalletType = "unified"
	// WalletSpot spot wallet.
	WalletSpot WalletType = "spot"
	// WalletPerp perpetual futures wallet.
	WalletPerp WalletType = "perp"
)

// perpDexPrefix tags Hyperliquid perp-dex sub-account wallets.
const perpDexPrefix = "perpdex-"

// String returns the string representation.
func (w WalletType) String() string {
	return string(w)
}

// IsUnified reports whether the entry lives in the cross-margin unified bucket.
func (w WalletType) IsUnified() bool {
	return w == WalletUnified
}

// IsPerpTagged reports whether the wallet tag refers to any perp wallet,
// including venue-specific variants like "PERP-cross".
func (w WalletType) IsPerpTagged() bool {
	return strings.Contains(strings.ToLower(string(w)), "perp")
}

// IsPerpDex reports whether the wallet is a Hyperliquid perp-dex sub-account.
func (w WalletType) IsPerpDex() bool {
	return strings.HasPrefix(string(w), perpDexPrefix)
}

// MatchesMarket reports whether the wallet tag equals the pair's market type.
func (w WalletType) MatchesMarket(m MarketType) bool {
	return string(w) == string(m)
}
