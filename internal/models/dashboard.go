package models

import "time"

// FetchStatus is the lifecycle state of one accessor's live snapshot.
// Ready and Failed both return to Loading on the next refresh.
type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchLoading FetchStatus = "loading"
	FetchReady   FetchStatus = "ready"
	FetchFailed  FetchStatus = "failed"
)

// TradeSnapshot is the live state of one trade accessor for the currently
// selected asset.
type TradeSnapshot struct {
	Asset     string      `json:"asset"`
	Status    FetchStatus `json:"status"`
	Trades    []Trade     `json:"trades"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// LedgerSnapshots bundles the dashboard's live accessor states.
type LedgerSnapshots struct {
	Selected  string        `json:"selected"`
	Open      TradeSnapshot `json:"open"`
	Completed TradeSnapshot `json:"completed"`
}
