package session

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanlerler/fixflow/ledger"
	"github.com/ryanlerler/fixflow/seqnum"
)

// fakeTransport records everything the session hands to the wire.
type fakeTransport struct {
	orders   []NewOrderSingle
	cancels  []OrderCancelRequest
	nextSeqs []int
}

func (f *fakeTransport) SendNewOrder(m NewOrderSingle) error {
	f.orders = append(f.orders, m)
	return nil
}

func (f *fakeTransport) SendCancel(m OrderCancelRequest) error {
	f.cancels = append(f.cancels, m)
	return nil
}

func (f *fakeTransport) SetNextSenderSeqNum(n int) error {
	f.nextSeqs = append(f.nextSeqs, n)
	return nil
}

func newTestSession(t *testing.T) (*Session, *fakeTransport, *seqnum.Store) {
	t.Helper()

	store, err := seqnum.Open(filepath.Join(t.TempDir(), "sequence.txt"))
	require.NoError(t, err)

	tr := &fakeTransport{}
	sess := New(store, tr, zerolog.Nop())
	return sess, tr, store
}

func TestSendNewOrderStampsSequentialNumbers(t *testing.T) {
	t.Parallel()

	sess, tr, store := newTestSession(t)

	_, err := sess.SendNewOrder("MSFT", ledger.Buy, ledger.Limit, 10, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = sess.SendNewOrder("AAPL", ledger.Sell, ledger.Market, 20, decimal.Zero)
	require.NoError(t, err)

	require.Len(t, tr.orders, 2)
	assert.Equal(t, 2, tr.orders[0].SeqNum)
	assert.Equal(t, 3, tr.orders[1].SeqNum)
	assert.Equal(t, 3, store.Current())
	assert.Equal(t, 2, sess.Ledger().Len())
}

func TestFillMovesLedgerAndAggregates(t *testing.T) {
	t.Parallel()

	sess, tr, _ := newTestSession(t)

	clOrdID, err := sess.SendNewOrder("MSFT", ledger.Buy, ledger.Limit, 30, decimal.NewFromInt(101))
	require.NoError(t, err)
	require.Len(t, tr.orders, 1)

	sess.HandleEvent(ExecutionReport{
		ClOrdID: clOrdID, Symbol: "MSFT", Side: ledger.Buy,
		Fill: true, LastQty: 10, LastPx: decimal.RequireFromString("100.0"),
	})
	sess.HandleEvent(ExecutionReport{
		ClOrdID: clOrdID, Symbol: "MSFT", Side: ledger.Buy,
		Fill: true, LastQty: 20, LastPx: decimal.RequireFromString("103.0"),
	})

	assert.True(t, sess.Ledger().VWAP(clOrdID).Equal(decimal.NewFromInt(102)))

	r := sess.Report()
	assert.True(t, r.TotalNotional.Equal(decimal.NewFromInt(3060)))
	assert.True(t, r.RealizedPnL.Equal(decimal.NewFromInt(-3060)))
	assert.True(t, r.VWAPBySymbol["MSFT"].Equal(decimal.NewFromInt(102)))
}

func TestExecutionReportWithoutFillIsIgnored(t *testing.T) {
	t.Parallel()

	sess, _, _ := newTestSession(t)

	clOrdID, err := sess.SendNewOrder("MSFT", ledger.Buy, ledger.Limit, 30, decimal.NewFromInt(101))
	require.NoError(t, err)

	sess.HandleEvent(ExecutionReport{ClOrdID: clOrdID, Symbol: "MSFT", Side: ledger.Buy, Fill: false})

	assert.True(t, sess.Report().TotalNotional.IsZero())
	ord, ok := sess.Ledger().Get(clOrdID)
	require.True(t, ok)
	assert.Empty(t, ord.Executions)
}

func TestUnknownOrderFillIsNoOpOnAggregates(t *testing.T) {
	t.Parallel()

	sess, _, _ := newTestSession(t)

	sess.HandleEvent(ExecutionReport{
		ClOrdID: "from-a-prior-run", Symbol: "MSFT", Side: ledger.Buy,
		Fill: true, LastQty: 10, LastPx: decimal.NewFromInt(100),
	})

	r := sess.Report()
	assert.True(t, r.TotalNotional.IsZero())
	assert.True(t, r.RealizedPnL.IsZero())
	assert.Empty(t, r.VWAPBySymbol)
}

func TestCancelRemovesOptimistically(t *testing.T) {
	t.Parallel()

	sess, tr, _ := newTestSession(t)

	clOrdID, err := sess.SendNewOrder("BAC", ledger.Sell, ledger.Market, 15, decimal.Zero)
	require.NoError(t, err)

	cancelID, err := sess.SendCancel(clOrdID)
	require.NoError(t, err)
	assert.NotEqual(t, clOrdID, cancelID)

	require.Len(t, tr.cancels, 1)
	assert.Equal(t, clOrdID, tr.cancels[0].OrigClOrdID)
	assert.Equal(t, "BAC", tr.cancels[0].Symbol)
	assert.Equal(t, int64(15), tr.cancels[0].Quantity)

	// Untracked immediately on send; a late fill becomes unknown.
	assert.Equal(t, 0, sess.Ledger().Len())
	sess.HandleEvent(ExecutionReport{
		ClOrdID: clOrdID, Symbol: "BAC", Side: ledger.Sell,
		Fill: true, LastQty: 15, LastPx: decimal.NewFromInt(40),
	})
	assert.True(t, sess.Report().TotalNotional.IsZero())
}

func TestCancelUnknownOrderFails(t *testing.T) {
	t.Parallel()

	sess, tr, _ := newTestSession(t)

	_, err := sess.SendCancel("never-sent")
	assert.ErrorIs(t, err, ledger.ErrUnknownOrder)
	assert.Empty(t, tr.cancels)
}

func TestCancelRejectAndBusinessRejectAreAbsorbed(t *testing.T) {
	t.Parallel()

	sess, _, store := newTestSession(t)

	sess.HandleEvent(OrderCancelReject{ClOrdID: "X", Text: "too late"})
	sess.HandleEvent(BusinessReject{RefSeqNum: 7, Text: "unsupported"})

	// No state moved.
	assert.Equal(t, 1, store.Current())
	assert.True(t, sess.Report().TotalNotional.IsZero())
}
