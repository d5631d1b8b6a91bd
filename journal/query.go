package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
)

var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, created, kind, instrument, point_value, candles_file, trades_file,
	range_from, range_to, days, candles, trades, prepared,
	skipped_empty, skipped_range, skipped_zero, skipped_other,
	policies, rejected, tie_break, window_mode, rank_by, elapsed_ms, config`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r  Run
		ms int64
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Kind, &r.Instrument, &r.PointValue, &r.CandlesFile, &r.TradesFile,
		&r.From, &r.To, &r.Days, &r.Candles, &r.Trades, &r.Prepared,
		&r.Skipped.EmptyHistory, &r.Skipped.EntryOutOfRange, &r.Skipped.ZeroQuantity, &r.Skipped.Other,
		&r.Policies, &r.Rejected, &r.TieBreak, &r.Window, &r.RankBy, &ms, &r.Config,
	)
	r.Elapsed = time.Duration(ms) * time.Millisecond
	return r, err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	if err := j.Flush(); err != nil {
		return Run{}, err
	}

	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (j *SQLite) ListRuns() ([]Run, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const hitRateExpr = `CASE WHEN trades = 0 THEN 0.0 ELSE CAST(wins AS REAL) * 100 / trades END`

// TopStatistics returns the best limit policies of a run in the same order
// results.Rank produces. limit <= 0 returns all of them.
func (j *SQLite) TopStatistics(runID string, by results.RankBy, limit int) ([]results.PolicyStatistics, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}

	order := hitRateExpr + ` DESC, CAST(total_pnl AS REAL) DESC, policy ASC`
	if by == results.ByTotalPnL {
		order = `CAST(total_pnl AS REAL) DESC, ` + hitRateExpr + ` DESC, policy ASC`
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(`
		SELECT stop_loss, target1, target2, target3, trailing_pct,
		       trades, wins, losses, stops, partial_targets, full_targets, t1_hits, t2_hits, t3_hits,
		       session_closes, corrected,
		       skipped_empty, skipped_range, skipped_zero, skipped_other,
		       total_pnl, avg_pnl, gross_profit, gross_loss, total_points, avg_points
		FROM policy_stats
		WHERE run_id = ?
		ORDER BY `+order+`
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []results.PolicyStatistics
	for rows.Next() {
		var (
			s results.PolicyStatistics
			p policy.ExitPolicy
		)
		if err := rows.Scan(
			&p.StopLoss, &p.Target1, &p.Target2, &p.Target3, &p.TrailingPercent,
			&s.TotalTrades, &s.Wins, &s.Losses, &s.Stops, &s.PartialTargets, &s.FullTargets,
			&s.Target1Hits, &s.Target2Hits, &s.Target3Hits, &s.SessionCloses, &s.Corrected,
			&s.Skipped.EmptyHistory, &s.Skipped.EntryOutOfRange, &s.Skipped.ZeroQuantity, &s.Skipped.Other,
			&s.TotalPnL, &s.AvgPnL, &s.GrossProfit, &s.GrossLoss, &s.TotalPoints, &s.AvgPoints,
		); err != nil {
			return nil, err
		}
		s.Policy = p
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOutcomes returns the recorded outcomes of one policy in a run.
func (j *SQLite) ListOutcomes(runID, policyKey string) ([]OutcomeRecord, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(`
		SELECT run_id, policy, symbol, side, opened, quantity, entry, corrected,
		       closed_at, reason, targets_hit, points, pnl
		FROM outcomes
		WHERE run_id = ? AND policy = ?
		ORDER BY seq ASC`, runID, policyKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			rec    OutcomeRecord
			side   int64
			reason string
		)
		if err := rows.Scan(
			&rec.RunID, &rec.Policy, &rec.Symbol, &side, &rec.Opened, &rec.Quantity, &rec.Entry,
			&rec.Corrected, &rec.ClosedAt, &reason, &rec.TargetsHit, &rec.Points, &rec.PnL,
		); err != nil {
			return nil, err
		}
		rec.Side = market.Side(side)
		rec.Reason = sim.Reason(reason)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
