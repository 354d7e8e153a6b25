// Package fixapp bridges the quickfix engine to the session core. It
// decodes inbound engine callbacks into session events and encodes the
// session's stamped requests into FIX messages.
package fixapp

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ryanlerler/fixflow/ledger"
	"github.com/ryanlerler/fixflow/seqnum"
	"github.com/ryanlerler/fixflow/session"
)

// EventSink receives decoded inbound events. In practice this is the
// Session; it is bound after construction because the session needs the
// app as its transport.
type EventSink interface {
	HandleEvent(session.Event)
}

// App implements quickfix.Application on the inbound side and
// session.Transport on the outbound side.
type App struct {
	store    *seqnum.Store
	resetLoc *time.Location
	begin    string
	sender   string
	target   string
	factory  *StoreFactory
	log      zerolog.Logger

	sink      EventSink
	sessionID quickfix.SessionID
}

func NewApp(store *seqnum.Store, resetLoc *time.Location, begin, sender, target string, log zerolog.Logger) *App {
	return &App{
		store:    store,
		resetLoc: resetLoc,
		begin:    begin,
		sender:   sender,
		target:   target,
		factory:  NewStoreFactory(store),
		log:      log,
	}
}

// Bind attaches the event sink.
func (a *App) Bind(sink EventSink) { a.sink = sink }

// StoreFactory returns the message store factory to hand to the engine,
// so the engine's sequence numbering resumes from the durable record.
func (a *App) StoreFactory() quickfix.MessageStoreFactory { return a.factory }

// OnCreate runs the daily reset policy before the session exchanges its
// first message.
func (a *App) OnCreate(sessionID quickfix.SessionID) {
	a.sessionID = sessionID
	reset, err := a.store.ResetIfDue(time.Now(), a.resetLoc)
	if err != nil {
		a.log.Error().Err(err).Msg("daily sequence reset failed")
		return
	}
	if reset {
		a.log.Info().Str("session", sessionID.String()).Msg("sequence reset for new trading day")
	}
	a.log.Info().Str("session", sessionID.String()).Msg("session created")
}

func (a *App) OnLogon(sessionID quickfix.SessionID) {
	a.log.Info().Str("session", sessionID.String()).Msg("logon")
}

func (a *App) OnLogout(sessionID quickfix.SessionID) {
	a.log.Info().Str("session", sessionID.String()).Msg("logout")
}

func (a *App) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *App) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromAdmin watches for session-level rejects; everything else belongs
// to the engine.
func (a *App) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, err := msg.Header.GetString(tag.MsgType)
	if err != nil {
		return err
	}
	if enum.MsgType(msgType) != enum.MsgType_REJECT {
		return nil
	}

	refSeqNum, _ := msg.Body.GetInt(tag.RefSeqNum)
	text, _ := msg.Body.GetString(tag.Text)
	a.sink.HandleEvent(session.AdminReject{RefSeqNum: refSeqNum, Text: text})
	return nil
}

func (a *App) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, err := msg.Header.GetString(tag.MsgType)
	if err != nil {
		return err
	}

	switch enum.MsgType(msgType) {
	case enum.MsgType_EXECUTION_REPORT:
		a.sink.HandleEvent(decodeExecutionReport(msg))
	case enum.MsgType_ORDER_CANCEL_REJECT:
		clOrdID, _ := msg.Body.GetString(tag.ClOrdID)
		text, _ := msg.Body.GetString(tag.Text)
		a.sink.HandleEvent(session.OrderCancelReject{ClOrdID: clOrdID, Text: text})
	default:
		refSeqNum, _ := msg.Body.GetInt(tag.RefSeqNum)
		text, _ := msg.Body.GetString(tag.Text)
		a.sink.HandleEvent(session.BusinessReject{RefSeqNum: refSeqNum, Text: text})
	}
	return nil
}

func decodeExecutionReport(msg *quickfix.Message) session.ExecutionReport {
	clOrdID, _ := msg.Body.GetString(tag.ClOrdID)
	symbol, _ := msg.Body.GetString(tag.Symbol)
	sideStr, _ := msg.Body.GetString(tag.Side)
	execType, _ := msg.Body.GetString(tag.ExecType)
	lastQty, _ := msg.Body.GetInt(tag.LastQty)

	px := decimal.Zero
	if pxStr, err := msg.Body.GetString(tag.LastPx); err == nil {
		if parsed, perr := decimal.NewFromString(pxStr); perr == nil {
			px = parsed
		}
	}

	side := ledger.Buy
	if sideStr == string(enum.Side_SELL) {
		side = ledger.Sell
	}

	et := enum.ExecType(execType)
	fill := et == enum.ExecType_FILL || et == enum.ExecType_PARTIAL_FILL || et == enum.ExecType_TRADE

	return session.ExecutionReport{
		ClOrdID: clOrdID,
		Symbol:  symbol,
		Side:    side,
		Fill:    fill,
		LastQty: int64(lastQty),
		LastPx:  px,
	}
}

// SendNewOrder encodes and sends a NewOrderSingle carrying the stamped
// sequence number.
func (a *App) SendNewOrder(m session.NewOrderSingle) error {
	msg := quickfix.NewMessage()
	a.fillHeader(msg, enum.MsgType_ORDER_SINGLE, m.SeqNum)

	msg.Body.Set(field.NewClOrdID(m.ClOrdID))
	msg.Body.Set(field.NewHandlInst(enum.HandlInst_AUTOMATED_EXECUTION_ORDER_PRIVATE_NO_BROKER_INTERVENTION))
	msg.Body.Set(field.NewSymbol(m.Symbol))
	msg.Body.Set(field.NewSide(sideEnum(m.Side)))
	msg.Body.Set(field.NewOrdType(ordTypeEnum(m.OrdType)))
	msg.Body.Set(field.NewOrderQty(decimal.NewFromInt(m.Quantity), 0))
	if m.OrdType == ledger.Limit {
		msg.Body.Set(field.NewPrice(m.Price, 2))
	}
	msg.Body.Set(field.NewTransactTime(time.Now().UTC()))

	return quickfix.SendToTarget(msg, a.sessionID)
}

// SendCancel encodes and sends an OrderCancelRequest.
func (a *App) SendCancel(m session.OrderCancelRequest) error {
	msg := quickfix.NewMessage()
	a.fillHeader(msg, enum.MsgType_ORDER_CANCEL_REQUEST, m.SeqNum)

	msg.Body.Set(field.NewClOrdID(m.ClOrdID))
	msg.Body.Set(field.NewOrigClOrdID(m.OrigClOrdID))
	msg.Body.Set(field.NewSymbol(m.Symbol))
	msg.Body.Set(field.NewSide(sideEnum(m.Side)))
	msg.Body.Set(field.NewOrderQty(decimal.NewFromInt(m.Quantity), 0))
	msg.Body.Set(field.NewTransactTime(time.Now().UTC()))

	return quickfix.SendToTarget(msg, a.sessionID)
}

// SetNextSenderSeqNum realigns the engine's sender sequence after gap
// recovery.
func (a *App) SetNextSenderSeqNum(n int) error {
	return a.factory.SetNextSenderSeqNum(a.sessionID, n)
}

func (a *App) fillHeader(msg *quickfix.Message, msgType enum.MsgType, seqNum int) {
	msg.Header.Set(field.NewBeginString(a.begin))
	msg.Header.Set(field.NewMsgType(msgType))
	msg.Header.Set(field.NewSenderCompID(a.sender))
	msg.Header.Set(field.NewTargetCompID(a.target))
	// The engine renumbers on send from its own store; stamping here
	// keeps the wire number and the durable record in lockstep when the
	// engine store was seeded from that record.
	msg.Header.SetInt(tag.MsgSeqNum, seqNum)
}

func sideEnum(s ledger.Side) enum.Side {
	if s == ledger.Sell {
		return enum.Side_SELL
	}
	return enum.Side_BUY
}

func ordTypeEnum(t ledger.OrdType) enum.OrdType {
	if t == ledger.Market {
		return enum.OrdType_MARKET
	}
	return enum.OrdType_LIMIT
}
