package domain

import "time"

// BalanceSnapshot the full set of asset entries for one account, replaced
// wholesale on every poll. Never merged partially.
type BalanceSnapshot struct {
	AccountID string       `json:"account_id"`
	Assets    []AssetEntry `json:"assets"`
	FetchedAt time.Time    `json:"fetched_at,omitempty"`
}

// NewBalanceSnapshot creates a new BalanceSnapshot stamped with the current time.
func NewBalanceSnapshot(accountID string, assets []AssetEntry) BalanceSnapshot {
	return BalanceSnapshot{
		AccountID: accountID,
		Assets:    assets,
		FetchedAt: time.Now(),
	}
}
