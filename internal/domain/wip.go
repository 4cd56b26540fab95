package domain

import "time"

// WipBalance tracks the good units produced at one station for one job
// item and not yet consumed by the next station. Invariant: GoodAvailable
// never goes negative; it grows only when a session at this station
// reports new good units and shrinks only when the immediately downstream
// station produces.
type WipBalance struct {
	JobItemID     string
	StationID     string
	GoodAvailable int
	// IsTerminal mirrors the station's terminal flag for this item's
	// routing: terminal output leaves the pipeline.
	IsTerminal bool
}

// WipConsumption is an append-only ledger row recording units moved from
// one station's balance into downstream production. Corrections append
// negative-quantity rows; rows are never updated or deleted.
type WipConsumption struct {
	ID            int64
	JobItemID     string
	FromStationID string
	ToStationID   string
	Quantity      int
	ConsumedAt    time.Time
}
