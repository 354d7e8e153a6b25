package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ListFills returns every fill recorded for a run, in time order. An
// empty runID lists all runs.
func (j *SQLite) ListFills(runID string) ([]FillRecord, error) {
	query := `
		SELECT run_id, cl_ord_id, symbol, side, quantity, price, time
		FROM fills`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY time ASC`

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var (
			rec   FillRecord
			price string
			ts    time.Time
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.ClOrdID,
			&rec.Symbol,
			&rec.Side,
			&rec.Quantity,
			&price,
			&ts,
		); err != nil {
			return nil, err
		}
		rec.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("fill %s has bad price %q: %w", rec.ClOrdID, price, err)
		}
		rec.Time = ts
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastStats returns the most recent stats snapshot for a run.
func (j *SQLite) LastStats(runID string) (StatsSnapshot, error) {
	var (
		snap     StatsSnapshot
		notional string
		pnl      string
	)
	row := j.db.QueryRow(`
		SELECT run_id, time, total_notional, realized_pnl
		FROM stats
		WHERE run_id = ?
		ORDER BY time DESC
		LIMIT 1`, runID)

	if err := row.Scan(&snap.RunID, &snap.Time, &notional, &pnl); err != nil {
		return StatsSnapshot{}, err
	}

	var err error
	if snap.TotalNotional, err = decimal.NewFromString(notional); err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats row has bad notional %q: %w", notional, err)
	}
	if snap.RealizedPnL, err = decimal.NewFromString(pnl); err != nil {
		return StatsSnapshot{}, fmt.Errorf("stats row has bad pnl %q: %w", pnl, err)
	}
	return snap, nil
}

// ListRuns returns the distinct run ids present in the fills table,
// newest first.
func (j *SQLite) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`
		SELECT run_id FROM fills
		GROUP BY run_id
		ORDER BY MAX(time) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
