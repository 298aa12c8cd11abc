package balance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
)

type fakeSource struct {
	mu        sync.Mutex
	calls     int32
	lastIDs   []string
	snapshots []domain.BalanceSnapshot
	err       error
}

func (f *fakeSource) FetchBalances(_ context.Context, accountIDs []string) ([]domain.BalanceSnapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.lastIDs = append([]string(nil), accountIDs...)
	snapshots, err := f.snapshots, f.err
	f.mu.Unlock()
	return snapshots, err
}

func (f *fakeSource) callCount() int32 { return atomic.LoadInt32(&f.calls) }

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestResolveScope(t *testing.T) {
	directory := []domain.Account{
		{ID: "a1", Name: "main", ExchangeName: "Binance"},
		{ID: "a2", Name: "hl", ExchangeName: domain.ExchangeHyperliquid},
	}

	tests := []struct {
		name     string
		sel      domain.SelectionState
		tab      domain.ActiveTab
		authed   bool
		wantOK   bool
		wantIDs  []string
	}{
		{
			name:   "unauthenticated never polls",
			sel:    domain.SelectionState{SelectedAccounts: []string{"main"}},
			tab:    domain.TabOrders,
			authed: false,
			wantOK: false,
		},
		{
			name:    "positions tab polls all accounts",
			sel:     domain.SelectionState{SelectedAccounts: []string{"main"}},
			tab:     domain.TabPositions,
			authed:  true,
			wantOK:  true,
			wantIDs: nil,
		},
		{
			name:    "balances tab polls all accounts",
			tab:     domain.TabBalances,
			authed:  true,
			wantOK:  true,
			wantIDs: nil,
		},
		{
			name:    "orders tab polls selected accounts only",
			sel:     domain.SelectionState{SelectedAccounts: []string{"hl", "main"}},
			tab:     domain.TabOrders,
			authed:  true,
			wantOK:  true,
			wantIDs: []string{"a2", "a1"},
		},
		{
			name:   "orders tab with empty selection skips polling",
			tab:    domain.TabOrders,
			authed: true,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, ok := ResolveScope(tt.sel, tt.tab, tt.authed, directory)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.wantIDs, scope.AccountIDs)
			}
		})
	}
}

func TestPoller_PollsImmediatelyAndOnCadence(t *testing.T) {
	source := &fakeSource{snapshots: []domain.BalanceSnapshot{
		domain.NewBalanceSnapshot("a1", []domain.AssetEntry{{Symbol: "USDT", Amount: d(10), WalletType: domain.WalletUnified}}),
	}}
	store := NewStore(1)
	poller := NewPoller(source, store, nil, zap.NewNop())
	poller.SetInterval(10 * time.Millisecond)

	poller.Restart(context.Background(), Scope{AccountIDs: []string{"a1"}})
	defer poller.Stop()

	require.Eventually(t, func() bool {
		_, ok := store.Get("a1")
		return ok && source.callCount() >= 2
	}, time.Second, time.Millisecond, "expected an immediate poll plus at least one tick")
}

func TestPoller_RestartReplacesLoop(t *testing.T) {
	source := &fakeSource{}
	store := NewStore(1)
	poller := NewPoller(source, store, nil, zap.NewNop())
	poller.SetInterval(10 * time.Millisecond)

	poller.Restart(context.Background(), Scope{AccountIDs: []string{"a1"}})
	poller.Restart(context.Background(), Scope{AccountIDs: []string{"a2"}})
	defer poller.Stop()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return len(source.lastIDs) == 1 && source.lastIDs[0] == "a2"
	}, time.Second, time.Millisecond)
}

func TestPoller_FailureNotifiesAndRetriesNextTick(t *testing.T) {
	source := &fakeSource{}
	source.setErr(errors.New("backend down"))
	store := NewStore(1)

	var notifications int32
	notify := func(string) { atomic.AddInt32(&notifications, 1) }

	poller := NewPoller(source, store, notify, zap.NewNop())
	poller.SetInterval(10 * time.Millisecond)
	poller.Restart(context.Background(), Scope{})
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return source.callCount() >= 3 && atomic.LoadInt32(&notifications) >= 3
	}, time.Second, time.Millisecond, "failures must not stop the loop")

	// recovery on a later tick without any restart
	source.mu.Lock()
	source.err = nil
	source.snapshots = []domain.BalanceSnapshot{
		domain.NewBalanceSnapshot("a1", []domain.AssetEntry{{Symbol: "USDT", Amount: d(1), WalletType: domain.WalletUnified}}),
	}
	source.mu.Unlock()

	require.Eventually(t, func() bool {
		_, ok := store.Get("a1")
		return ok
	}, time.Second, time.Millisecond)
	require.False(t, store.IsLoading())
}

func TestPoller_DropsSnapshotsWithConflictingQuantityFields(t *testing.T) {
	source := &fakeSource{snapshots: []domain.BalanceSnapshot{
		domain.NewBalanceSnapshot("bad", []domain.AssetEntry{
			{Symbol: "BTC", Amount: d(1), Size: d(2), WalletType: domain.WalletUnified},
		}),
		domain.NewBalanceSnapshot("good", []domain.AssetEntry{
			{Symbol: "USDT", Amount: d(5), WalletType: domain.WalletUnified},
		}),
	}}
	store := NewStore(1)
	poller := NewPoller(source, store, nil, zap.NewNop())

	poller.PollOnce(context.Background(), Scope{})

	_, ok := store.Get("bad")
	require.False(t, ok, "entries carrying both amount and size are a backend bug")
	_, ok = store.Get("good")
	require.True(t, ok)
}
