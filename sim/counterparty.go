// Package sim is an in-process stand-in for the FIX engine and the
// counterparty behind it. It enforces sequence continuity the way a real
// session layer does, fills accepted orders, and lets tests and offline
// runs drive the whole order flow without a network.
package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ryanlerler/fixflow/ledger"
	"github.com/ryanlerler/fixflow/session"
)

// EventSink receives the counterparty's replies. In practice this is the
// Session.
type EventSink interface {
	HandleEvent(session.Event)
}

// Counterparty implements session.Transport. It accepts a request only
// when its MsgSeqNum is at least the expected next number; lower numbers
// draw the session-level reject a real engine would send.
type Counterparty struct {
	mu       sync.Mutex
	expected int
	sink     EventSink
	rng      *rand.Rand
	open     map[string]session.NewOrderSingle

	sent    int
	rejects int
}

// New returns a counterparty expecting startSeq as the first inbound
// sequence number.
func New(startSeq int, seed int64) *Counterparty {
	return &Counterparty{
		expected: startSeq,
		rng:      rand.New(rand.NewSource(seed)),
		open:     make(map[string]session.NewOrderSingle),
	}
}

// Bind attaches the reply sink. Must be called before any send; the
// session and the counterparty reference each other, so construction
// happens in two steps.
func (c *Counterparty) Bind(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Sent reports how many requests were accepted.
func (c *Counterparty) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Rejects reports how many requests drew a sequence reject.
func (c *Counterparty) Rejects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejects
}

// Expected returns the next sequence number the counterparty will
// accept.
func (c *Counterparty) Expected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expected
}

// BumpExpected advances the expectation without consuming a message,
// manufacturing a sequence gap for tests and chaos runs.
func (c *Counterparty) BumpExpected(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expected += n
}

func (c *Counterparty) SendNewOrder(m session.NewOrderSingle) error {
	var replies []session.Event

	c.mu.Lock()
	if m.SeqNum < c.expected {
		replies = append(replies, c.rejectLocked(m.SeqNum))
	} else {
		c.expected = m.SeqNum + 1
		c.sent++
		c.open[m.ClOrdID] = m

		px := m.Price
		if m.OrdType == ledger.Market || px.IsZero() {
			// Fill market orders somewhere in the band limit orders are
			// priced from.
			px = decimal.NewFromFloat(100 + c.rng.Float64()*50).Round(2)
		}

		// Acknowledge, then fill. Large orders fill in two parts so
		// partial-fill accumulation sees real traffic.
		replies = append(replies, session.ExecutionReport{
			ClOrdID: m.ClOrdID,
			Symbol:  m.Symbol,
			Side:    m.Side,
			Fill:    false,
		})
		if m.Quantity > 1 && c.rng.Intn(2) == 0 {
			half := m.Quantity / 2
			replies = append(replies,
				session.ExecutionReport{
					ClOrdID: m.ClOrdID, Symbol: m.Symbol, Side: m.Side,
					Fill: true, LastQty: half, LastPx: px,
				},
				session.ExecutionReport{
					ClOrdID: m.ClOrdID, Symbol: m.Symbol, Side: m.Side,
					Fill: true, LastQty: m.Quantity - half, LastPx: px,
				})
		} else {
			replies = append(replies, session.ExecutionReport{
				ClOrdID: m.ClOrdID, Symbol: m.Symbol, Side: m.Side,
				Fill: true, LastQty: m.Quantity, LastPx: px,
			})
		}
	}
	sink := c.sink
	c.mu.Unlock()

	// Replies are delivered outside the lock: gap recovery calls back
	// into SetNextSenderSeqNum.
	for _, ev := range replies {
		sink.HandleEvent(ev)
	}
	return nil
}

func (c *Counterparty) SendCancel(m session.OrderCancelRequest) error {
	var replies []session.Event

	c.mu.Lock()
	if m.SeqNum < c.expected {
		replies = append(replies, c.rejectLocked(m.SeqNum))
	} else {
		c.expected = m.SeqNum + 1
		c.sent++
		if _, ok := c.open[m.OrigClOrdID]; !ok {
			replies = append(replies, session.OrderCancelReject{
				ClOrdID: m.ClOrdID,
				Text:    fmt.Sprintf("unknown order %s", m.OrigClOrdID),
			})
		} else {
			delete(c.open, m.OrigClOrdID)
			replies = append(replies, session.ExecutionReport{
				ClOrdID: m.ClOrdID,
				Symbol:  m.Symbol,
				Side:    m.Side,
				Fill:    false,
			})
		}
	}
	sink := c.sink
	c.mu.Unlock()

	for _, ev := range replies {
		sink.HandleEvent(ev)
	}
	return nil
}

func (c *Counterparty) SetNextSenderSeqNum(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expected = n
	return nil
}

// rejectLocked builds the admin reject a session layer sends for a
// too-low sequence number. Callers hold c.mu.
func (c *Counterparty) rejectLocked(got int) session.Event {
	c.rejects++
	return session.AdminReject{
		RefSeqNum: got,
		Text:      fmt.Sprintf("MsgSeqNum too low, expecting %d but received %d", c.expected, got),
	}
}
