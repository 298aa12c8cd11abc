package pricer

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tradeterm/orderform/internal/domain"
)

const (
	// defaultStaleness is how long a fetched price stays good for conversions.
	defaultStaleness = 5 * time.Second
	// defaultFailureCap consecutive failures after which fetching stops until
	// the pair changes.
	defaultFailureCap = 3
)

// ErrPriceUnavailable is returned once the consecutive-failure cap for a
// pair is exhausted. Reset clears it.
var ErrPriceUnavailable = errors.New("price unavailable")

type memoEntry struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// MemoPricer memoizes an underlying pricer per pair+exchange with a short
// staleness window, and caps consecutive fetch failures so a dead price feed
// does not get hammered on every keystroke.
type MemoPricer struct {
	inner      Pricer
	staleness  time.Duration
	failureCap int
	now        func() time.Time

	mu       sync.Mutex
	cache    map[string]memoEntry
	failures map[string]int
}

// NewMemoPricer wraps a pricer with the default staleness window and failure cap.
func NewMemoPricer(inner Pricer) *MemoPricer {
	return &MemoPricer{
		inner:      inner,
		staleness:  defaultStaleness,
		failureCap: defaultFailureCap,
		now:        time.Now,
		cache:      make(map[string]memoEntry),
		failures:   make(map[string]int),
	}
}

func memoKey(pair domain.Pair, exchange domain.ExchangeName) string {
	return pair.ID + "|" + exchange.String()
}

// GetPrice returns the memoized price when fresh, otherwise fetches. After
// the failure cap is hit the wrapper fails fast without touching the inner
// pricer until Reset is called for the pair.
func (m *MemoPricer) GetPrice(ctx context.Context, pair domain.Pair, exchange domain.ExchangeName) (decimal.Decimal, error) {
	key := memoKey(pair, exchange)

	m.mu.Lock()
	if entry, ok := m.cache[key]; ok && m.now().Sub(entry.fetchedAt) < m.staleness {
		m.mu.Unlock()
		return entry.price, nil
	}
	if m.failures[key] >= m.failureCap {
		m.mu.Unlock()
		return decimal.Zero, ErrPriceUnavailable
	}
	m.mu.Unlock()

	price, err := m.inner.GetPrice(ctx, pair, exchange)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failures[key]++
		return decimal.Zero, err
	}
	m.failures[key] = 0
	m.cache[key] = memoEntry{price: price, fetchedAt: m.now()}
	return price, nil
}

// Reset drops the memoized price and failure count for a pair. Called when
// the user switches pairs.
func (m *MemoPricer) Reset(pair domain.Pair, exchange domain.ExchangeName) {
	key := memoKey(pair, exchange)
	m.mu.Lock()
	delete(m.cache, key)
	delete(m.failures, key)
	m.mu.Unlock()
}
