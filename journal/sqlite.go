package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
)

// batchSize is the number of writes grouped into one transaction. A full
// sweep records thousands of rows and per-row commits dominate otherwise.
const batchSize = 500

type SQLite struct {
	db      *sql.DB
	tx      *sql.Tx
	pending int
	seq     map[string]int
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db, seq: map[string]int{}}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	return j.exec(`
		INSERT INTO runs
		(run_id, created, kind, instrument, point_value, candles_file, trades_file,
		 range_from, range_to, days, candles, trades, prepared,
		 skipped_empty, skipped_range, skipped_zero, skipped_other,
		 policies, rejected, tie_break, window_mode, rank_by, elapsed_ms, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Kind, r.Instrument, r.PointValue, r.CandlesFile, r.TradesFile,
		r.From.UTC(), r.To.UTC(), r.Days, r.Candles, r.Trades, r.Prepared,
		r.Skipped.EmptyHistory, r.Skipped.EntryOutOfRange, r.Skipped.ZeroQuantity, r.Skipped.Other,
		r.Policies, r.Rejected, r.TieBreak, r.Window, r.RankBy, r.Elapsed.Milliseconds(), r.Config,
	)
}

func (j *SQLite) RecordStatistics(runID string, s results.PolicyStatistics) error {
	p := s.Policy
	return j.exec(`
		INSERT INTO policy_stats
		(run_id, policy, stop_loss, target1, target2, target3, trailing_pct,
		 trades, wins, losses, stops, partial_targets, full_targets, t1_hits, t2_hits, t3_hits,
		 session_closes, corrected,
		 skipped_empty, skipped_range, skipped_zero, skipped_other,
		 total_pnl, avg_pnl, gross_profit, gross_loss, total_points, avg_points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Key(), p.StopLoss, p.Target1, p.Target2, p.Target3, p.TrailingPercent,
		s.TotalTrades, s.Wins, s.Losses, s.Stops, s.PartialTargets, s.FullTargets,
		s.Target1Hits, s.Target2Hits, s.Target3Hits, s.SessionCloses, s.Corrected,
		s.Skipped.EmptyHistory, s.Skipped.EntryOutOfRange, s.Skipped.ZeroQuantity, s.Skipped.Other,
		s.TotalPnL, s.AvgPnL, s.GrossProfit, s.GrossLoss, s.TotalPoints, s.AvgPoints,
	)
}

// RecordOutcome appends an outcome. Outcomes of one policy keep the order
// in which they were recorded.
func (j *SQLite) RecordOutcome(runID string, o sim.TradeOutcome) error {
	rec := NewOutcomeRecord(runID, o)
	k := runID + "/" + rec.Policy
	seq := j.seq[k]
	j.seq[k] = seq + 1

	return j.exec(`
		INSERT INTO outcomes
		(run_id, policy, seq, symbol, side, opened, quantity, entry, corrected,
		 closed_at, reason, targets_hit, points, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Policy, seq, rec.Symbol, int64(rec.Side), rec.Opened.UTC(), rec.Quantity,
		rec.Entry, rec.Corrected, rec.ClosedAt.UTC(), string(rec.Reason), rec.TargetsHit,
		rec.Points, rec.PnL,
	)
}

func (j *SQLite) exec(query string, args ...any) error {
	if j.tx == nil {
		tx, err := j.db.Begin()
		if err != nil {
			return fmt.Errorf("begin journal batch: %w", err)
		}
		j.tx = tx
	}

	if _, err := j.tx.Exec(query, args...); err != nil {
		return err
	}

	j.pending++
	if j.pending >= batchSize {
		return j.Flush()
	}
	return nil
}

// Flush commits buffered writes. Queries flush first so they always see
// everything recorded through this journal.
func (j *SQLite) Flush() error {
	if j.tx == nil {
		return nil
	}
	tx := j.tx
	j.tx, j.pending = nil, 0
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal batch: %w", err)
	}
	return nil
}

func (j *SQLite) Close() error {
	ferr := j.Flush()
	if err := j.db.Close(); err != nil {
		return err
	}
	return ferr
}
