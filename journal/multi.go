package journal

import (
	"errors"

	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
)

type multi []Journal

// Multi writes every record to each journal in turn. Writes stop at the
// first failing journal; Close closes all of them.
func Multi(js ...Journal) Journal {
	return multi(js)
}

func (m multi) RecordRun(r Run) error {
	for _, j := range m {
		if err := j.RecordRun(r); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) RecordStatistics(runID string, s results.PolicyStatistics) error {
	for _, j := range m {
		if err := j.RecordStatistics(runID, s); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) RecordOutcome(runID string, o sim.TradeOutcome) error {
	for _, j := range m {
		if err := j.RecordOutcome(runID, o); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
