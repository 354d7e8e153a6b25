// Package ledger tracks working orders and turns their fill stream into
// aggregate trading statistics.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Side of an order from our point of view.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// OrdType is the order pricing instruction.
type OrdType int

const (
	Limit OrdType = iota + 1
	Market
)

func (t OrdType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	}
	return "unknown"
}

// Execution is one fill against an order. Immutable once appended.
type Execution struct {
	Quantity int64
	Price    decimal.Decimal
}

// Order is a working order keyed by its ClOrdID. Price is zero for
// market orders. Executions is append-only.
type Order struct {
	ClOrdID    string
	Symbol     string
	Side       Side
	Quantity   int64
	Price      decimal.Decimal
	Executions []Execution
}

// VWAP returns sum(qty*px)/sum(qty) over the order's executions, or zero
// when nothing has filled yet.
func (o *Order) VWAP() decimal.Decimal {
	var qty int64
	sum := decimal.Zero
	for _, ex := range o.Executions {
		qty += ex.Quantity
		sum = sum.Add(ex.Price.Mul(decimal.NewFromInt(ex.Quantity)))
	}
	if qty == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(qty))
}

// snapshot returns a copy safe to hand out after the ledger lock is
// released. The executions slice is cloned; callers must not rely on it
// aliasing the tracked order.
func (o *Order) snapshot() Order {
	cp := *o
	cp.Executions = make([]Execution, len(o.Executions))
	copy(cp.Executions, o.Executions)
	return cp
}
