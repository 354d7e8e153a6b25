package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPnLSign(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()

	agg.OnFill("MSFT", Buy, 5, decimal.NewFromInt(10))
	r := agg.Report()
	assert.True(t, r.RealizedPnL.Equal(decimal.NewFromInt(-50)), "buy decreases PnL, got %s", r.RealizedPnL)

	agg.OnFill("MSFT", Sell, 5, decimal.NewFromInt(10))
	r = agg.Report()
	assert.True(t, r.RealizedPnL.IsZero(), "matching sell restores PnL, got %s", r.RealizedPnL)
	assert.True(t, r.TotalNotional.Equal(decimal.NewFromInt(100)))
}

func TestReportVWAPPerSymbol(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.OnFill("MSFT", Buy, 10, decimal.RequireFromString("100.0"))
	agg.OnFill("MSFT", Sell, 20, decimal.RequireFromString("103.0"))
	agg.OnFill("AAPL", Buy, 4, decimal.RequireFromString("250.0"))

	r := agg.Report()
	assert.True(t, r.VWAPBySymbol["MSFT"].Equal(decimal.NewFromInt(102)), "got %s", r.VWAPBySymbol["MSFT"])
	assert.True(t, r.VWAPBySymbol["AAPL"].Equal(decimal.NewFromInt(250)))
	_, ok := r.VWAPBySymbol["BAC"]
	assert.False(t, ok, "untraded symbols are omitted")
}

func TestReportIsPureRead(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.OnFill("BAC", Sell, 3, decimal.NewFromInt(40))

	first := agg.Report()
	second := agg.Report()
	assert.True(t, first.TotalNotional.Equal(second.TotalNotional))
	assert.True(t, first.RealizedPnL.Equal(second.RealizedPnL))
	assert.Equal(t, len(first.VWAPBySymbol), len(second.VWAPBySymbol))
}

func TestReportString(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.OnFill("MSFT", Sell, 2, decimal.RequireFromString("101.50"))

	out := agg.Report().String()
	assert.Contains(t, out, "Total Trading Volume: $203.00")
	assert.Contains(t, out, "PNL: $203.00")
	assert.Contains(t, out, "VWAP for MSFT: $101.50")
}
