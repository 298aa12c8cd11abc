package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradeterm/orderform/internal/domain"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testContext(pair domain.Pair, accounts ...domain.Account) Context {
	names := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		names = append(names, acc.Name)
	}
	return Context{
		SelectedAccounts: names,
		SelectedPair:     pair,
		Accounts:         accounts,
	}
}

func TestAssetBalance_WalletTypeFilter(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDT", Amount: d(100), Borrowed: d(10), WalletType: domain.WalletUnified},
		{Symbol: "USDT", Amount: d(50), Borrowed: d(5), WalletType: domain.WalletSpot},
		{Symbol: "USDT", Amount: d(30), Borrowed: d(3), WalletType: domain.WalletPerp},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypePerp}

	// unified and perp count, spot does not: (100-10) + (30-3)
	got := agg.AssetBalance("USDT", testContext(pair, acc))
	require.True(t, d(117).Equal(got), "expected 117, got %s", got)
}

func TestAssetBalance_MissingSnapshotContributesZero(t *testing.T) {
	store := NewStore(1)
	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypeSpot}
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}

	got := agg.AssetBalance("USDT", testContext(pair, acc))
	require.True(t, got.IsZero())
}

func TestAssetBalance_Idempotent(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDT", Amount: d(1000), WalletType: domain.WalletUnified},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypeSpot}
	bctx := testContext(pair, acc)

	first := agg.AssetBalance("USDT", bctx)
	second := agg.AssetBalance("USDT", bctx)
	require.True(t, first.Equal(second))
}

func TestAssetBalance_NegativeWhenBorrowedExceedsHeld(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "BTC", Amount: d(1), Borrowed: d(3), WalletType: domain.WalletUnified},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypeSpot}

	got := agg.AssetBalance("BTC", testContext(pair, acc))
	require.True(t, d(-2).Equal(got), "net short must stay signed, got %s", got)
}

func TestAssetBalance_HyperliquidStableCarveOut(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDH", Amount: d(40), WalletType: domain.WalletSpot},
		{Symbol: "USDH", Amount: d(60), WalletType: "PERP-cross"},
		{Symbol: "USDH", Amount: d(7), WalletType: "staking"},
	})

	agg := NewAggregator(store)
	// pair market is dex, so neither spot nor the perp tag matches directly
	pair := domain.Pair{ID: "HYPE_USDH", Base: "HYPE", Quote: "USDH", MarketType: domain.MarketTypeDex}

	got := agg.AssetBalance("USDH", testContext(pair, acc))
	require.True(t, d(100).Equal(got), "spot and perp-tagged wallets count for USDH on Hyperliquid, got %s", got)
}

func TestAssetBalance_ContractSizingSymbol(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "BTCUSD_PERP", Size: d(12), WalletType: domain.WalletUnified},
		{Symbol: "BTC", Amount: d(2), WalletType: domain.WalletUnified},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTCUSD_PERP", Base: "BTC", Quote: "USD", MarketType: domain.MarketTypePerp, IsContract: true}
	bctx := testContext(pair, acc)

	got := agg.AssetBalance(pair.SizingSymbol(), bctx)
	require.True(t, d(12).Equal(got), "contract pairs are sized in the pair id, got %s", got)
}

func TestMarginBalance_HyperliquidStableCombined(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDH", Amount: d(100), WalletType: domain.WalletSpot},
		{Symbol: "USDH", MarginBalance: d(50), WalletType: domain.WalletPerp},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "HYPE_USDH", Base: "HYPE", Quote: "USDH", MarketType: domain.MarketTypePerp}

	got := agg.MarginBalance("USDH", testContext(pair, acc))
	require.True(t, d(150).Equal(got), "expected 150, got %s", got)
}

func TestMarginBalance_HyperliquidCombinedAddsIsolatedMargin(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDH", Amount: d(100), WalletType: domain.WalletUnified},
		{Symbol: "HYPE", Size: d(3), WalletType: domain.WalletPerp, AssetType: domain.AssetTypePosition, InitialMargin: d(25)},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "HYPE_USDH", Base: "HYPE", Quote: "USDH", MarketType: domain.MarketTypePerp}

	got := agg.MarginBalance("USDH", testContext(pair, acc))
	require.True(t, d(125).Equal(got), "open perp positions add initial margin, got %s", got)
}

func TestMarginBalance_HyperliquidSpotStableLeg(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDH", Amount: d(200), Borrowed: d(20), WalletType: domain.WalletSpot},
		{Symbol: "HYPE", Amount: d(10), WalletType: domain.WalletSpot, Notional: d(-90)},
		// perp-wallet stable must not leak into the spot leg
		{Symbol: "USDH", MarginBalance: d(999), WalletType: domain.WalletPerp},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "HYPE_USDH", Base: "HYPE", Quote: "USDH", MarketType: domain.MarketTypeSpot}

	// (200-20) + |−90|
	got := agg.MarginBalance("USDH", testContext(pair, acc))
	require.True(t, d(270).Equal(got), "expected 270, got %s", got)
}

func TestMarginBalance_PacificaBypassesWalletFilter(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "p1", Name: "pacifica", ExchangeName: domain.ExchangePacifica}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDC", Amount: d(500), WalletType: "margin", MarginBalance: d(480)},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "SOL_USDC", Base: "SOL", Quote: "USDC", MarketType: domain.MarketTypePerp}

	got := agg.MarginBalance("USDC", testContext(pair, acc))
	require.True(t, d(480).Equal(got), "margin_balance preferred and wallet filter bypassed, got %s", got)
}

func TestMarginBalance_PerpDexWalletAllowListed(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDC", Amount: d(75), WalletType: "perpdex-unit"},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "SOL_USDC", Base: "SOL", Quote: "USDC", MarketType: domain.MarketTypeDex}

	got := agg.MarginBalance("USDC", testContext(pair, acc))
	require.True(t, d(75).Equal(got), "perpdex- wallets always count, got %s", got)
}

func TestMarginBalance_NonPositiveMarginBalanceFallsBack(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "p1", Name: "paradex", ExchangeName: domain.ExchangeParadex}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDC", Amount: d(300), Borrowed: d(30), WalletType: "margin", MarginBalance: d(-5)},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "ETH_USDC", Base: "ETH", Quote: "USDC", MarketType: domain.MarketTypePerp}

	// non-positive margin_balance is treated as absent: 300-30
	got := agg.MarginBalance("USDC", testContext(pair, acc))
	require.True(t, d(270).Equal(got), "expected fallback to amount-borrowed, got %s", got)
}

func TestMarginBalance_SumsAcrossAccounts(t *testing.T) {
	store := NewStore(1)
	hl := domain.Account{ID: "hl1", Name: "hl", ExchangeName: domain.ExchangeHyperliquid}
	pacifica := domain.Account{ID: "p1", Name: "pacifica", ExchangeName: domain.ExchangePacifica}
	store.Set(hl.ID, []domain.AssetEntry{
		{Symbol: "USDC", Amount: d(100), WalletType: domain.WalletUnified},
	})
	store.Set(pacifica.ID, []domain.AssetEntry{
		{Symbol: "USDC", Amount: d(50), WalletType: "margin"},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "SOL_USDC", Base: "SOL", Quote: "USDC", MarketType: domain.MarketTypePerp}

	got := agg.MarginBalance("USDC", testContext(pair, hl, pacifica))
	require.True(t, d(150).Equal(got))
}

func TestUSDTBalance_EndToEnd(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "A", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDT", Amount: d(1000), WalletType: domain.WalletUnified},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypeSpot}

	got := agg.USDTBalance(testContext(pair, acc))
	require.True(t, d(1000).Equal(got))
}

func TestCurrentBalance_SideSelectsSymbol(t *testing.T) {
	store := NewStore(1)
	acc := domain.Account{ID: "a1", Name: "main", ExchangeName: "Binance"}
	store.Set(acc.ID, []domain.AssetEntry{
		{Symbol: "USDT", Amount: d(1000), WalletType: domain.WalletUnified},
		{Symbol: "BTC", Amount: d(2), WalletType: domain.WalletUnified},
	})

	agg := NewAggregator(store)
	pair := domain.Pair{ID: "BTC_USDT", Base: "BTC", Quote: "USDT", MarketType: domain.MarketTypeSpot}
	bctx := testContext(pair, acc)

	require.True(t, d(1000).Equal(agg.CurrentBalance(bctx, domain.SideBuy)))
	require.True(t, d(2).Equal(agg.CurrentBalance(bctx, domain.SideSell)))
}
