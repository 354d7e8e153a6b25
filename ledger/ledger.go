package ledger

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateOrderID means Register was called with a ClOrdID that
	// is already tracked. ClOrdIDs are never reused while tracked.
	ErrDuplicateOrderID = errors.New("duplicate client order id")

	// ErrUnknownOrder means an execution referenced a ClOrdID this
	// process does not track, e.g. an order from a prior run. Non-fatal.
	ErrUnknownOrder = errors.New("unknown client order id")
)

// Ledger is the in-memory registry of working orders. One session owns
// one Ledger; the mutex covers the send path registering orders while
// the event path records executions.
type Ledger struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func New() *Ledger {
	return &Ledger{orders: make(map[string]*Order)}
}

// Register starts tracking a new order.
func (l *Ledger) Register(o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.orders[o.ClOrdID]; ok {
		return ErrDuplicateOrderID
	}
	cp := o
	l.orders[o.ClOrdID] = &cp
	return nil
}

// RecordExecution appends a fill to the tracked order and returns a
// snapshot of the updated order for the aggregator to consume. Returns
// ErrUnknownOrder if the id is not tracked.
func (l *Ledger) RecordExecution(clOrdID string, qty int64, price decimal.Decimal) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[clOrdID]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	o.Executions = append(o.Executions, Execution{Quantity: qty, Price: price})
	return o.snapshot(), nil
}

// Remove drops tracking for an order. Removing an id that is absent is a
// no-op; removal is idempotent.
func (l *Ledger) Remove(clOrdID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.orders, clOrdID)
}

// Get returns a snapshot of a tracked order.
func (l *Ledger) Get(clOrdID string) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[clOrdID]
	if !ok {
		return Order{}, false
	}
	return o.snapshot(), true
}

// VWAP returns the volume-weighted average price of a tracked order's
// fills, zero when the order is unknown or has no fills.
func (l *Ledger) VWAP(clOrdID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[clOrdID]
	if !ok {
		return decimal.Zero
	}
	return o.VWAP()
}

// Len reports how many orders are tracked.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}
