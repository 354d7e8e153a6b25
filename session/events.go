// Package session routes inbound FIX session events to the order ledger
// and stats aggregator, recovers from sequence-gap rejects, and stamps
// outbound requests with durable sequence numbers.
package session

import (
	"github.com/shopspring/decimal"

	"github.com/ryanlerler/fixflow/ledger"
)

// Event is an inbound protocol event, already deserialized by the
// transport layer.
type Event interface {
	event()
}

// ExecutionReport describes the state of an order at the counterparty.
// Fill is true only for execution types that represent a trade; plain
// acknowledgements carry Fill=false and do not move the ledger.
type ExecutionReport struct {
	ClOrdID  string
	Symbol   string
	Side     ledger.Side
	Fill     bool
	LastQty  int64
	LastPx   decimal.Decimal
}

// OrderCancelReject reports a refused cancel request. Surfaced to the
// log only; no state changes.
type OrderCancelReject struct {
	ClOrdID string
	Text    string
}

// AdminReject is a session-level reject (FIX MsgType 3) referencing the
// sequence number of the offending message.
type AdminReject struct {
	RefSeqNum int
	Text      string
}

// BusinessReject is any other application-level reject. Surfaced to the
// log only.
type BusinessReject struct {
	RefSeqNum int
	Text      string
}

func (ExecutionReport) event()   {}
func (OrderCancelReject) event() {}
func (AdminReject) event()       {}
func (BusinessReject) event()    {}

// NewOrderSingle is an outbound order request, stamped with the sequence
// number it must carry on the wire.
type NewOrderSingle struct {
	SeqNum   int
	ClOrdID  string
	Symbol   string
	Side     ledger.Side
	OrdType  ledger.OrdType
	Quantity int64
	Price    decimal.Decimal // limit orders only
}

// OrderCancelRequest is an outbound cancel, stamped like NewOrderSingle.
type OrderCancelRequest struct {
	SeqNum      int
	ClOrdID     string
	OrigClOrdID string
	Symbol      string
	Side        ledger.Side
	Quantity    int64
}

// Transport is the external FIX engine boundary. Implementations encode
// the stamped request and hand it to the wire without waiting for a
// reply.
type Transport interface {
	SendNewOrder(NewOrderSingle) error
	SendCancel(OrderCancelRequest) error

	// SetNextSenderSeqNum realigns the engine's next outbound sequence
	// number after gap recovery.
	SetNextSenderSeqNum(n int) error
}
