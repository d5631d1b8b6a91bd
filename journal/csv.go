package journal

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
	"github.com/shopspring/decimal"
)

// CSV writes policy statistics, and optionally per-trade operations, as
// flat reports. Runs themselves are not written; every row carries its
// run id instead.
type CSV struct {
	stats *csv.Writer
	ops   *csv.Writer
	sf    *os.File
	of    *os.File

	cumulative map[string]decimal.Decimal
}

// NewCSV creates the statistics report at statsPath. An empty opsPath
// disables the operations report.
func NewCSV(statsPath, opsPath string) (*CSV, error) {
	sf, err := os.Create(statsPath)
	if err != nil {
		return nil, err
	}
	j := &CSV{sf: sf, stats: csv.NewWriter(sf), cumulative: map[string]decimal.Decimal{}}

	if err := j.header(j.stats, results.Header()); err != nil {
		_ = sf.Close()
		return nil, err
	}

	if opsPath != "" {
		of, err := os.Create(opsPath)
		if err != nil {
			_ = sf.Close()
			return nil, err
		}
		j.of, j.ops = of, csv.NewWriter(of)
		if err := j.header(j.ops, results.OperationHeader()); err != nil {
			_ = j.Close()
			return nil, err
		}
	}

	return j, nil
}

func (j *CSV) header(w *csv.Writer, cols []string) error {
	if err := w.Write(append([]string{"run_id"}, cols...)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) RecordRun(Run) error { return nil }

func (j *CSV) RecordStatistics(runID string, s results.PolicyStatistics) error {
	if err := j.stats.Write(append([]string{runID}, s.Row().Strings()...)); err != nil {
		return fmt.Errorf("write statistics row: %w", err)
	}
	return nil
}

// RecordOutcome appends an operation line. The cumulative column runs per
// run and policy.
func (j *CSV) RecordOutcome(runID string, o sim.TradeOutcome) error {
	if j.ops == nil {
		return nil
	}

	op := results.Operations([]sim.TradeOutcome{o})[0]
	k := runID + "/" + o.Policy.Key()
	cum := j.cumulative[k].Add(o.RealizedCurrency)
	j.cumulative[k] = cum
	op.Cumulative = cum

	if err := j.ops.Write(append([]string{runID}, op.Strings()...)); err != nil {
		return fmt.Errorf("write operation row: %w", err)
	}
	return nil
}

func (j *CSV) Close() error {
	var first error
	keep := func(err error) {
		if first == nil && err != nil {
			first = err
		}
	}

	j.stats.Flush()
	keep(j.stats.Error())
	keep(j.sf.Close())
	if j.ops != nil {
		j.ops.Flush()
		keep(j.ops.Error())
		keep(j.of.Close())
	}
	return first
}
