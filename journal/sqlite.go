package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores fills and stats in one database file. Prices are kept as
// decimal strings, never floats, so nothing is lost on the round trip.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(r FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(run_id, cl_ord_id, symbol, side, quantity, price, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ClOrdID, r.Symbol, r.Side, r.Quantity,
		r.Price.String(), r.Time,
	)
	return err
}

func (j *SQLite) RecordStats(s StatsSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO stats
		(run_id, time, total_notional, realized_pnl)
		VALUES (?, ?, ?, ?)`,
		s.RunID, s.Time, s.TotalNotional.String(), s.RealizedPnL.String(),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
