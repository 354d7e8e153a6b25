// Package journal durably records recognized fills and stats snapshots
// so a run's trading activity survives the process.
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FillRecord is one recognized fill against a tracked order.
type FillRecord struct {
	RunID    string
	ClOrdID  string
	Symbol   string
	Side     string
	Quantity int64
	Price    decimal.Decimal
	Time     time.Time
}

// StatsSnapshot is a point-in-time read of the aggregate totals.
type StatsSnapshot struct {
	RunID         string
	Time          time.Time
	TotalNotional decimal.Decimal
	RealizedPnL   decimal.Decimal
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordStats(StatsSnapshot) error
	Close() error
}

// NewRunID tags all records written by one process run.
func NewRunID() string {
	return uuid.NewString()
}
