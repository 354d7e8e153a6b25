package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ryanlerler/fixflow/id"
	"github.com/ryanlerler/fixflow/journal"
	"github.com/ryanlerler/fixflow/ledger"
	"github.com/ryanlerler/fixflow/seqnum"
)

// Session owns the order-flow state for one logical FIX session: one
// sequence store, one ledger, one aggregator. Inbound events must be
// delivered one at a time in arrival order; the transport layer gives us
// that for a single session. The mutex covers the outbound critical
// section so one sequence number maps to exactly one sent message.
type Session struct {
	sendMu sync.Mutex

	store     *seqnum.Store
	ledger    *ledger.Ledger
	agg       *ledger.Aggregator
	transport Transport
	rejects   RejectPolicy
	journal   journal.Journal // may be nil
	runID     string
	log       zerolog.Logger
}

// Option tweaks Session construction.
type Option func(*Session)

// WithJournal records every recognized fill durably, tagged with the
// run id.
func WithJournal(j journal.Journal, runID string) Option {
	return func(s *Session) {
		s.journal = j
		s.runID = runID
	}
}

// WithRejectPolicy replaces the default text-parsing gap recovery.
func WithRejectPolicy(p RejectPolicy) Option {
	return func(s *Session) { s.rejects = p }
}

func New(store *seqnum.Store, transport Transport, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		store:     store,
		ledger:    ledger.New(),
		agg:       ledger.NewAggregator(),
		transport: transport,
		log:       log,
	}
	s.rejects = NewSeqTooLowPolicy(store, transport, log)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the session's order registry, mainly for inspection.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Report reads the current aggregate trading statistics.
func (s *Session) Report() ledger.Report { return s.agg.Report() }

// HandleEvent routes one inbound event. Non-fatal conditions are logged
// and absorbed; processing of later events is never affected.
func (s *Session) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case ExecutionReport:
		s.onExecutionReport(e)
	case OrderCancelReject:
		s.log.Warn().
			Str("cl_ord_id", e.ClOrdID).
			Str("text", e.Text).
			Msg("order cancel rejected")
	case AdminReject:
		s.rejects.OnAdminReject(e.RefSeqNum, e.Text)
	case BusinessReject:
		s.log.Warn().
			Int("ref_seq_num", e.RefSeqNum).
			Str("text", e.Text).
			Msg("business reject")
	default:
		s.log.Warn().Msgf("unrecognized event %T", ev)
	}
}

func (s *Session) onExecutionReport(e ExecutionReport) {
	if !e.Fill || e.LastQty <= 0 {
		// Acknowledgements and other non-trade states do not move the
		// ledger.
		s.log.Debug().Str("cl_ord_id", e.ClOrdID).Msg("execution report without fill")
		return
	}

	ord, err := s.ledger.RecordExecution(e.ClOrdID, e.LastQty, e.LastPx)
	if err != nil {
		// The counterparty may reference an order from a prior run, or
		// one we dropped on cancel-send. No fill is recorded against
		// the totals since no order owns it.
		s.log.Warn().
			Err(err).
			Str("cl_ord_id", e.ClOrdID).
			Str("symbol", e.Symbol).
			Msg("fill for untracked order dropped")
		return
	}

	s.agg.OnFill(e.Symbol, ord.Side, e.LastQty, e.LastPx)

	if s.journal != nil {
		rec := journal.FillRecord{
			RunID:    s.runID,
			ClOrdID:  e.ClOrdID,
			Symbol:   e.Symbol,
			Side:     ord.Side.String(),
			Quantity: e.LastQty,
			Price:    e.LastPx,
			Time:     time.Now().UTC(),
		}
		if err := s.journal.RecordFill(rec); err != nil {
			s.log.Error().Err(err).Str("cl_ord_id", e.ClOrdID).Msg("journal fill failed")
		}
	}

	s.log.Info().
		Str("cl_ord_id", e.ClOrdID).
		Str("symbol", e.Symbol).
		Str("side", ord.Side.String()).
		Int64("qty", e.LastQty).
		Str("px", e.LastPx.String()).
		Str("vwap", ord.VWAP().String()).
		Msg("fill recorded")
}

// SendNewOrder stamps a fresh sequence number on a new order request,
// registers it in the ledger, and hands it to the transport. Returns the
// assigned ClOrdID.
func (s *Session) SendNewOrder(symbol string, side ledger.Side, ordType ledger.OrdType, qty int64, price decimal.Decimal) (string, error) {
	clOrdID := id.New()

	ord := ledger.Order{
		ClOrdID:  clOrdID,
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    price,
	}
	// Register before sending so a fill racing the send ack still finds
	// its order.
	if err := s.ledger.Register(ord); err != nil {
		return "", fmt.Errorf("register order: %w", err)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	seq, err := s.store.Next()
	if err != nil {
		s.ledger.Remove(clOrdID)
		return "", fmt.Errorf("sequence for new order: %w", err)
	}

	msg := NewOrderSingle{
		SeqNum:   seq,
		ClOrdID:  clOrdID,
		Symbol:   symbol,
		Side:     side,
		OrdType:  ordType,
		Quantity: qty,
		Price:    price,
	}
	if err := s.transport.SendNewOrder(msg); err != nil {
		s.ledger.Remove(clOrdID)
		return "", fmt.Errorf("send new order: %w", err)
	}

	s.log.Info().
		Int("seq", seq).
		Str("cl_ord_id", clOrdID).
		Str("symbol", symbol).
		Str("side", side.String()).
		Str("type", ordType.String()).
		Int64("qty", qty).
		Msg("new order sent")
	return clOrdID, nil
}

// SendCancel stamps and sends a cancel for a tracked order, and drops
// the order from tracking as soon as the request is on its way. A fill
// that arrives after that is treated as an unknown order.
func (s *Session) SendCancel(origClOrdID string) (string, error) {
	orig, ok := s.ledger.Get(origClOrdID)
	if !ok {
		return "", fmt.Errorf("cancel %s: %w", origClOrdID, ledger.ErrUnknownOrder)
	}

	clOrdID := id.New()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	seq, err := s.store.Next()
	if err != nil {
		return "", fmt.Errorf("sequence for cancel: %w", err)
	}

	msg := OrderCancelRequest{
		SeqNum:      seq,
		ClOrdID:     clOrdID,
		OrigClOrdID: origClOrdID,
		Symbol:      orig.Symbol,
		Side:        orig.Side,
		Quantity:    orig.Quantity,
	}
	if err := s.transport.SendCancel(msg); err != nil {
		return "", fmt.Errorf("send cancel: %w", err)
	}

	s.ledger.Remove(origClOrdID)

	s.log.Info().
		Int("seq", seq).
		Str("cl_ord_id", clOrdID).
		Str("orig_cl_ord_id", origClOrdID).
		Msg("cancel sent, order untracked")
	return clOrdID, nil
}
