package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteJournal(t *testing.T) *SQLite {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "fills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteFillRoundTrip(t *testing.T) {
	t.Parallel()

	j := newSQLiteJournal(t)

	want := FillRecord{
		RunID:    "run-1",
		ClOrdID:  "ORD-1",
		Symbol:   "AAPL",
		Side:     "sell",
		Quantity: 40,
		Price:    decimal.RequireFromString("249.99"),
		Time:     time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	require.NoError(t, j.RecordFill(want))

	got, err := j.ListFills("run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.ClOrdID, got[0].ClOrdID)
	assert.Equal(t, want.Quantity, got[0].Quantity)
	assert.True(t, want.Price.Equal(got[0].Price), "price survives as an exact decimal")
}

func TestSQLiteListFillsFiltersByRun(t *testing.T) {
	t.Parallel()

	j := newSQLiteJournal(t)

	now := time.Now().UTC()
	require.NoError(t, j.RecordFill(FillRecord{RunID: "a", ClOrdID: "1", Symbol: "MSFT", Side: "buy", Quantity: 1, Price: decimal.NewFromInt(100), Time: now}))
	require.NoError(t, j.RecordFill(FillRecord{RunID: "b", ClOrdID: "2", Symbol: "MSFT", Side: "buy", Quantity: 2, Price: decimal.NewFromInt(100), Time: now.Add(time.Second)}))

	onlyA, err := j.ListFills("a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 1)

	all, err := j.ListFills("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, runs, "newest run first")
}

func TestSQLiteLastStats(t *testing.T) {
	t.Parallel()

	j := newSQLiteJournal(t)

	base := time.Date(2026, 2, 3, 4, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordStats(StatsSnapshot{RunID: "a", Time: base, TotalNotional: decimal.NewFromInt(10), RealizedPnL: decimal.NewFromInt(-10)}))
	require.NoError(t, j.RecordStats(StatsSnapshot{RunID: "a", Time: base.Add(time.Minute), TotalNotional: decimal.NewFromInt(30), RealizedPnL: decimal.NewFromInt(5)}))

	last, err := j.LastStats("a")
	require.NoError(t, err)
	assert.True(t, last.TotalNotional.Equal(decimal.NewFromInt(30)))
	assert.True(t, last.RealizedPnL.Equal(decimal.NewFromInt(5)))
}
