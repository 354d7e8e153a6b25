package journal

const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	run_id TEXT NOT NULL,
	cl_ord_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	total_notional TEXT NOT NULL,
	realized_pnl TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id, time);
CREATE INDEX IF NOT EXISTS idx_stats_run ON stats(run_id, time);
`
