package balance

import (
	"github.com/shopspring/decimal"

	"github.com/tradeterm/orderform/internal/domain"
)

// Context is everything an aggregation call needs besides the store:
// the selected account names, the pair being traded and the account
// directory used to resolve names to ids and exchanges.
type Context struct {
	SelectedAccounts []string
	SelectedPair     domain.Pair
	Accounts         []domain.Account
}

func (c *Context) accountsByName() map[string]domain.Account {
	byName := make(map[string]domain.Account, len(c.Accounts))
	for _, acc := range c.Accounts {
		byName[acc.Name] = acc
	}
	return byName
}

// Aggregator computes cross-account asset and margin balances from the store.
// All methods are pure reads: same cache and context, same answer. Missing
// snapshots contribute zero; nothing here ever returns an error.
type Aggregator struct {
	store *Store
}

// NewAggregator creates an aggregator reading from the given store.
func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store}
}

// AssetBalance sums the net holdings of symbol across the selected accounts,
// counting only wallet buckets relevant to the selected pair's market. The
// result is signed: borrowing more than you hold yields a negative balance.
func (a *Aggregator) AssetBalance(symbol string, bctx Context) decimal.Decimal {
	total := decimal.Zero
	byName := bctx.accountsByName()

	for _, name := range bctx.SelectedAccounts {
		acc, ok := byName[name]
		if !ok {
			continue
		}
		assets, ok := a.store.Get(acc.ID)
		if !ok {
			continue
		}

		rctx := ruleContext{exchange: acc.ExchangeName, pair: bctx.SelectedPair, symbol: symbol}
		for i := range assets {
			e := &assets[i]
			if e.Symbol != symbol || !assetEntryIncluded(e, rctx) {
				continue
			}
			total = total.Add(e.NetQuantity())
		}
	}
	return total
}

// MarginBalance sums the margin available for symbol across the selected
// accounts. Exchanges model margin differently (cross vs isolated, unified
// wallet vs per-market sub-wallets), so each account's contribution comes
// from the first matching rule in the margin rule table.
func (a *Aggregator) MarginBalance(symbol string, bctx Context) decimal.Decimal {
	total := decimal.Zero
	byName := bctx.accountsByName()

	for _, name := range bctx.SelectedAccounts {
		acc, ok := byName[name]
		if !ok {
			continue
		}
		assets, ok := a.store.Get(acc.ID)
		if !ok {
			continue
		}

		rctx := ruleContext{exchange: acc.ExchangeName, pair: bctx.SelectedPair, symbol: symbol}
		for _, rule := range marginRules {
			if !rule.matches(rctx) {
				continue
			}
			total = total.Add(rule.contribution(assets, rctx))
			break
		}
	}
	return total
}

// CurrentBalance returns the balance backing the side being traded: the quote
// asset when buying, the sizing symbol (base asset or contract) when selling.
func (a *Aggregator) CurrentBalance(bctx Context, side domain.Side) decimal.Decimal {
	if side == domain.SideBuy {
		return a.AssetBalance(bctx.SelectedPair.Quote, bctx)
	}
	return a.AssetBalance(bctx.SelectedPair.SizingSymbol(), bctx)
}

// USDTBalance returns the aggregate USDT asset balance.
func (a *Aggregator) USDTBalance(bctx Context) decimal.Decimal {
	return a.AssetBalance("USDT", bctx)
}

type ruleContext struct {
	exchange domain.ExchangeName
	pair     domain.Pair
	symbol   string
}

// assetEntryIncluded is the base wallet-type filter shared by asset and
// margin aggregation: unified buckets always count, otherwise the wallet tag
// must match the pair's market, with a Hyperliquid carve-out for the stable
// quote asset which lives across spot and perp wallets at once.
func assetEntryIncluded(e *domain.AssetEntry, rctx ruleContext) bool {
	if e.WalletType.IsUnified() {
		return true
	}
	if e.WalletType.MatchesMarket(rctx.pair.MarketType) {
		return true
	}
	if rctx.exchange == domain.ExchangeHyperliquid && rctx.symbol == domain.StableQuoteAsset {
		if e.WalletType == domain.WalletSpot || e.WalletType.IsPerpTagged() {
			return true
		}
	}
	return false
}

// marginRule is one row of the per-exchange margin accounting table. Rules
// are evaluated in order per account; the first match short-circuits.
type marginRule struct {
	name         string
	matches      func(rctx ruleContext) bool
	contribution func(assets []domain.AssetEntry, rctx ruleContext) decimal.Decimal
}

var marginRules = []marginRule{
	{
		// Hyperliquid spot trading of the stable quote asset: the spendable
		// figure is the stable balance itself plus the notional of whatever
		// base-asset holdings sit in the spot wallet.
		name: "hyperliquid-spot-stable",
		matches: func(rctx ruleContext) bool {
			return rctx.exchange == domain.ExchangeHyperliquid &&
				rctx.pair.MarketType == domain.MarketTypeSpot &&
				rctx.symbol == domain.StableQuoteAsset
		},
		contribution: func(assets []domain.AssetEntry, rctx ruleContext) decimal.Decimal {
			sum := decimal.Zero
			for i := range assets {
				e := &assets[i]
				if e.Symbol == rctx.symbol && (e.WalletType.IsUnified() || e.WalletType == domain.WalletSpot) {
					sum = sum.Add(e.NetQuantity())
				}
				if e.Symbol == rctx.pair.Base && e.WalletType == domain.WalletSpot {
					sum = sum.Add(e.Notional.Abs())
				}
			}
			return sum
		},
	},
	{
		// Hyperliquid stable quote asset outside spot markets: one combined
		// figure across unified, spot and every perp-tagged wallet, plus the
		// isolated margin locked by open perp positions.
		name: "hyperliquid-stable-combined",
		matches: func(rctx ruleContext) bool {
			return rctx.exchange == domain.ExchangeHyperliquid &&
				rctx.symbol == domain.StableQuoteAsset
		},
		contribution: func(assets []domain.AssetEntry, rctx ruleContext) decimal.Decimal {
			sum := decimal.Zero
			for i := range assets {
				e := &assets[i]
				if e.Symbol == rctx.symbol &&
					(e.WalletType.IsUnified() || e.WalletType == domain.WalletSpot || e.WalletType.IsPerpTagged()) {
					sum = sum.Add(e.EffectiveMargin())
				}
				if e.IsPosition() && e.WalletType.IsPerpTagged() {
					sum = sum.Add(e.InitialMargin)
				}
			}
			return sum
		},
	},
	{
		// General case: base wallet filter plus allow-listed exceptions.
		// Hyperliquid perp-dex sub-accounts always count, and Pacifica and
		// Paradex do not tag wallets by market type at all.
		name:    "general",
		matches: func(ruleContext) bool { return true },
		contribution: func(assets []domain.AssetEntry, rctx ruleContext) decimal.Decimal {
			sum := decimal.Zero
			alwaysInclude := rctx.exchange == domain.ExchangePacifica || rctx.exchange == domain.ExchangeParadex
			for i := range assets {
				e := &assets[i]
				if e.Symbol == rctx.symbol &&
					(alwaysInclude || e.WalletType.IsPerpDex() || assetEntryIncluded(e, rctx)) {
					sum = sum.Add(e.EffectiveMargin())
				}
				if rctx.exchange == domain.ExchangeHyperliquid &&
					rctx.pair.MarketType == domain.MarketTypePerp &&
					e.IsPosition() && e.WalletType.IsPerpTagged() {
					sum = sum.Add(e.InitialMargin)
				}
			}
			return sum
		},
	},
}
