package balance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeterm/orderform/internal/domain"
)

// DefaultPollInterval is the balance refresh cadence. There is no backoff:
// a failed cycle is retried on the next tick.
const DefaultPollInterval = 13 * time.Second

type balanceSource interface {
	FetchBalances(ctx context.Context, accountIDs []string) ([]domain.BalanceSnapshot, error)
}

// NotifyFunc surfaces a user-facing, non-fatal notification.
type NotifyFunc func(message string)

// Scope is the polling target. An empty AccountIDs slice means "all accounts".
type Scope struct {
	AccountIDs []string
}

// ResolveScope decides which accounts need polling for the current UI state.
// The second return value is false when no polling condition holds.
func ResolveScope(sel domain.SelectionState, tab domain.ActiveTab, authenticated bool, directory []domain.Account) (Scope, bool) {
	if !authenticated {
		return Scope{}, false
	}

	switch tab {
	case domain.TabPositions, domain.TabBalances:
		// empty filter means all accounts
		return Scope{}, true
	case domain.TabOrders:
		if len(sel.SelectedAccounts) == 0 {
			return Scope{}, false
		}
		byName := make(map[string]domain.Account, len(directory))
		for _, acc := range directory {
			byName[acc.Name] = acc
		}
		ids := make([]string, 0, len(sel.SelectedAccounts))
		for _, name := range sel.SelectedAccounts {
			if acc, ok := byName[name]; ok {
				ids = append(ids, acc.ID)
			}
		}
		if len(ids) == 0 {
			return Scope{}, false
		}
		return Scope{AccountIDs: ids}, true
	default:
		return Scope{}, false
	}
}

// Poller refreshes the balance store on a fixed cadence. Restart replaces the
// previous polling loop wholesale; there is never more than one loop running.
type Poller struct {
	source   balanceSource
	store    *Store
	notify   NotifyFunc
	logger   *zap.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller writing into the given store.
func NewPoller(source balanceSource, store *Store, notify NotifyFunc, logger *zap.Logger) *Poller {
	if notify == nil {
		notify = func(string) {}
	}
	return &Poller{
		source:   source,
		store:    store,
		notify:   notify,
		logger:   logger,
		interval: DefaultPollInterval,
	}
}

// SetInterval overrides the polling cadence. Takes effect on the next Restart.
func (p *Poller) SetInterval(d time.Duration) {
	p.mu.Lock()
	if d > 0 {
		p.interval = d
	}
	p.mu.Unlock()
}

// Restart cancels any running polling loop and starts a fresh one for the
// given scope. The first poll fires immediately.
func (p *Poller) Restart(ctx context.Context, scope Scope) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		done := p.done
		p.mu.Unlock()
		<-done
		p.mu.Lock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	interval := p.interval
	p.mu.Unlock()

	go p.run(runCtx, scope, interval, done)
}

// Stop cancels the polling loop, if any, and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Poller) run(ctx context.Context, scope Scope, interval time.Duration, done chan struct{}) {
	defer close(done)

	p.logger.Info("starting balance polling loop",
		zap.Strings("account_ids", scope.AccountIDs),
		zap.Duration("interval", interval))

	p.PollOnce(ctx, scope)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("balance polling loop stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx, scope)
		}
	}
}

// PollOnce runs a single poll cycle. A failure notifies the user and aborts
// the cycle; it never kills the loop.
func (p *Poller) PollOnce(ctx context.Context, scope Scope) {
	cycleID := uuid.NewString()

	p.store.SetLoading(true)
	snapshots, err := p.source.FetchBalances(ctx, scope.AccountIDs)
	p.store.SetLoading(false)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("balance poll failed",
			zap.String("cycle_id", cycleID),
			zap.Error(err))
		p.notify("Failed to refresh account balances")
		return
	}

	kept := snapshots[:0]
	for _, snap := range snapshots {
		if bad := firstInvalidEntry(snap.Assets); bad != nil {
			p.logger.Error("dropping balance snapshot with invalid entry",
				zap.String("cycle_id", cycleID),
				zap.String("account_id", snap.AccountID),
				zap.Error(bad))
			continue
		}
		kept = append(kept, snap)
	}

	// superseded cycles still write: consumers key off current selection,
	// so a stale write is wasted, not corrupting
	p.store.SetBatch(kept)

	p.logger.Debug("balance poll completed",
		zap.String("cycle_id", cycleID),
		zap.Int("accounts", len(kept)))
}

func firstInvalidEntry(assets []domain.AssetEntry) error {
	for i := range assets {
		if err := assets[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
