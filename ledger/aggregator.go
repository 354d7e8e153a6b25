package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type vwapAccum struct {
	sumPriceQty decimal.Decimal
	sumQty      decimal.Decimal
}

// Aggregator keeps running trading totals over every recognized fill:
// total traded notional, a simplified realized PnL (signed notional
// against the counterparty, buys negative, sells positive), and a
// per-symbol VWAP accumulator.
type Aggregator struct {
	mu       sync.Mutex
	notional decimal.Decimal
	pnl      decimal.Decimal
	bySymbol map[string]*vwapAccum
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		notional: decimal.Zero,
		pnl:      decimal.Zero,
		bySymbol: make(map[string]*vwapAccum),
	}
}

// OnFill folds one fill into the totals.
func (a *Aggregator) OnFill(symbol string, side Side, qty int64, price decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q := decimal.NewFromInt(qty)
	notional := price.Mul(q)

	a.notional = a.notional.Add(notional)
	if side == Buy {
		a.pnl = a.pnl.Sub(notional)
	} else {
		a.pnl = a.pnl.Add(notional)
	}

	acc, ok := a.bySymbol[symbol]
	if !ok {
		acc = &vwapAccum{sumPriceQty: decimal.Zero, sumQty: decimal.Zero}
		a.bySymbol[symbol] = acc
	}
	acc.sumPriceQty = acc.sumPriceQty.Add(notional)
	acc.sumQty = acc.sumQty.Add(q)
}

// Report is a point-in-time read of the aggregate totals.
type Report struct {
	TotalNotional decimal.Decimal
	RealizedPnL   decimal.Decimal
	VWAPBySymbol  map[string]decimal.Decimal
}

// Report computes the current totals. Symbols with zero traded quantity
// are omitted so the per-symbol VWAP never divides by zero. Pure read,
// safe to call mid-session.
func (a *Aggregator) Report() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Report{
		TotalNotional: a.notional,
		RealizedPnL:   a.pnl,
		VWAPBySymbol:  make(map[string]decimal.Decimal, len(a.bySymbol)),
	}
	for sym, acc := range a.bySymbol {
		if acc.sumQty.IsZero() {
			continue
		}
		r.VWAPBySymbol[sym] = acc.sumPriceQty.Div(acc.sumQty)
	}
	return r
}

// String renders the report for the operator log, symbols in stable
// order.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Trading Volume: $%s\n", r.TotalNotional.StringFixed(2))
	fmt.Fprintf(&b, "PNL: $%s\n", r.RealizedPnL.StringFixed(2))

	symbols := make([]string, 0, len(r.VWAPBySymbol))
	for sym := range r.VWAPBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		fmt.Fprintf(&b, "VWAP for %s: $%s\n", sym, r.VWAPBySymbol[sym].StringFixed(2))
	}
	return b.String()
}
