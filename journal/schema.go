package journal

// Money columns are TEXT so decimals survive the round trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	kind TEXT NOT NULL,
	instrument TEXT NOT NULL,
	point_value TEXT NOT NULL,
	candles_file TEXT NOT NULL,
	trades_file TEXT NOT NULL,
	range_from DATETIME NOT NULL,
	range_to DATETIME NOT NULL,
	days INTEGER NOT NULL,
	candles INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	prepared INTEGER NOT NULL,
	skipped_empty INTEGER NOT NULL,
	skipped_range INTEGER NOT NULL,
	skipped_zero INTEGER NOT NULL,
	skipped_other INTEGER NOT NULL,
	policies INTEGER NOT NULL,
	rejected INTEGER NOT NULL,
	tie_break TEXT NOT NULL,
	window_mode TEXT NOT NULL,
	rank_by TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	config BLOB
);

CREATE TABLE IF NOT EXISTS policy_stats (
	run_id TEXT NOT NULL,
	policy TEXT NOT NULL,
	stop_loss INTEGER NOT NULL,
	target1 INTEGER NOT NULL,
	target2 INTEGER NOT NULL,
	target3 INTEGER NOT NULL,
	trailing_pct REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	stops INTEGER NOT NULL,
	partial_targets INTEGER NOT NULL,
	full_targets INTEGER NOT NULL,
	t1_hits INTEGER NOT NULL,
	t2_hits INTEGER NOT NULL,
	t3_hits INTEGER NOT NULL,
	session_closes INTEGER NOT NULL,
	corrected INTEGER NOT NULL,
	skipped_empty INTEGER NOT NULL,
	skipped_range INTEGER NOT NULL,
	skipped_zero INTEGER NOT NULL,
	skipped_other INTEGER NOT NULL,
	total_pnl TEXT NOT NULL,
	avg_pnl TEXT NOT NULL,
	gross_profit TEXT NOT NULL,
	gross_loss TEXT NOT NULL,
	total_points REAL NOT NULL,
	avg_points REAL NOT NULL,
	PRIMARY KEY (run_id, policy)
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id TEXT NOT NULL,
	policy TEXT NOT NULL,
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side INTEGER NOT NULL,
	opened DATETIME NOT NULL,
	quantity INTEGER NOT NULL,
	entry INTEGER NOT NULL,
	corrected INTEGER NOT NULL,
	closed_at DATETIME NOT NULL,
	reason TEXT NOT NULL,
	targets_hit INTEGER NOT NULL,
	points REAL NOT NULL,
	pnl TEXT NOT NULL,
	PRIMARY KEY (run_id, policy, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
