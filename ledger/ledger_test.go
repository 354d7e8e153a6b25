package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	l := New()
	require.NoError(t, l.Register(Order{ClOrdID: "A", Symbol: "MSFT", Side: Buy, Quantity: 10}))
	assert.ErrorIs(t, l.Register(Order{ClOrdID: "A", Symbol: "AAPL", Side: Sell, Quantity: 5}), ErrDuplicateOrderID)
	assert.Equal(t, 1, l.Len())
}

func TestRecordExecutionUnknownOrder(t *testing.T) {
	t.Parallel()

	l := New()
	_, err := l.RecordExecution("missing", 10, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestRecordExecutionAppends(t *testing.T) {
	t.Parallel()

	l := New()
	require.NoError(t, l.Register(Order{ClOrdID: "A", Symbol: "MSFT", Side: Buy, Quantity: 30}))

	ord, err := l.RecordExecution("A", 10, decimal.RequireFromString("100.0"))
	require.NoError(t, err)
	assert.Len(t, ord.Executions, 1)

	ord, err = l.RecordExecution("A", 20, decimal.RequireFromString("103.0"))
	require.NoError(t, err)
	assert.Len(t, ord.Executions, 2)
	assert.Equal(t, Buy, ord.Side)
}

func TestVWAP(t *testing.T) {
	t.Parallel()

	l := New()
	require.NoError(t, l.Register(Order{ClOrdID: "A", Symbol: "MSFT", Side: Buy, Quantity: 30}))

	// No fills yet: defined as zero, not a division by zero.
	assert.True(t, l.VWAP("A").IsZero())

	_, err := l.RecordExecution("A", 10, decimal.RequireFromString("100.0"))
	require.NoError(t, err)
	_, err = l.RecordExecution("A", 20, decimal.RequireFromString("103.0"))
	require.NoError(t, err)

	// (10*100 + 20*103) / 30 = 102
	assert.True(t, l.VWAP("A").Equal(decimal.NewFromInt(102)), "got %s", l.VWAP("A"))
}

func TestVWAPUnknownOrderIsZero(t *testing.T) {
	t.Parallel()

	l := New()
	assert.True(t, l.VWAP("missing").IsZero())
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New()
	require.NoError(t, l.Register(Order{ClOrdID: "A", Symbol: "MSFT", Side: Buy, Quantity: 10}))
	require.NoError(t, l.Register(Order{ClOrdID: "B", Symbol: "BAC", Side: Sell, Quantity: 20}))

	l.Remove("A")
	l.Remove("A")
	l.Remove("never-registered")

	assert.Equal(t, 1, l.Len())
	_, ok := l.Get("B")
	assert.True(t, ok)
}

func TestSnapshotDoesNotAliasLedgerState(t *testing.T) {
	t.Parallel()

	l := New()
	require.NoError(t, l.Register(Order{ClOrdID: "A", Symbol: "MSFT", Side: Buy, Quantity: 10}))
	_, err := l.RecordExecution("A", 5, decimal.NewFromInt(100))
	require.NoError(t, err)

	snap, ok := l.Get("A")
	require.True(t, ok)
	snap.Executions[0].Quantity = 999

	fresh, _ := l.Get("A")
	assert.Equal(t, int64(5), fresh.Executions[0].Quantity)
}
