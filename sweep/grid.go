// Package sweep enumerates exit policy grids and runs them over a set of
// trades on a worker pool.
package sweep

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rustyeddy/exitsweep/policy"
)

var ErrInvalidGrid = errors.New("invalid grid")

// Range is an inclusive integer range walked in Step increments.
type Range struct {
	From int32 `json:"from" yaml:"from"`
	To   int32 `json:"to" yaml:"to"`
	Step int32 `json:"step" yaml:"step"`
}

func (r Range) validate(name string) error {
	if r.Step <= 0 {
		return fmt.Errorf("%w: %s.step must be positive", ErrInvalidGrid, name)
	}
	if r.To < r.From {
		return fmt.Errorf("%w: %s.to (%d) is below %s.from (%d)", ErrInvalidGrid, name, r.To, name, r.From)
	}
	return nil
}

func (r Range) values() []int32 {
	var out []int32
	for v := r.From; v <= r.To; v += r.Step {
		out = append(out, v)
	}
	return out
}

// PercentRange is an inclusive float range for the trailing activation.
type PercentRange struct {
	From float64 `json:"from" yaml:"from"`
	To   float64 `json:"to" yaml:"to"`
	Step float64 `json:"step" yaml:"step"`
}

func (r PercentRange) validate() error {
	for _, v := range []float64{r.From, r.To, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: trailing bounds must be finite", ErrInvalidGrid)
		}
	}
	if r.Step <= 0 {
		return fmt.Errorf("%w: trailing.step must be positive", ErrInvalidGrid)
	}
	if r.To < r.From {
		return fmt.Errorf("%w: trailing.to (%g) is below trailing.from (%g)", ErrInvalidGrid, r.To, r.From)
	}
	return nil
}

// values computes each element from its ordinal so long ranges do not
// accumulate float error.
func (r PercentRange) values() []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := r.From + float64(i)*r.Step
		if v > r.To+1e-9 {
			break
		}
		out = append(out, v)
	}
	return out
}

// Grid describes the cartesian product of policy parameters. Combinations
// that break an ExitPolicy rule are skipped rather than clamped.
type Grid struct {
	StopLoss Range         `json:"stop_loss" yaml:"stop_loss"`
	Target1  Range         `json:"target1" yaml:"target1"`
	Target2  Range         `json:"target2" yaml:"target2"`
	Target3  *Range        `json:"target3,omitempty" yaml:"target3,omitempty"`
	Trailing *PercentRange `json:"trailing,omitempty" yaml:"trailing,omitempty"`

	// IncludeBase also emits each combination without Target3 and without a
	// trailing stop when those axes are set.
	IncludeBase bool `json:"include_base" yaml:"include_base"`
}

func (g Grid) Validate() error {
	if err := g.StopLoss.validate("stop_loss"); err != nil {
		return err
	}
	if err := g.Target1.validate("target1"); err != nil {
		return err
	}
	if err := g.Target2.validate("target2"); err != nil {
		return err
	}
	if g.Target3 != nil {
		if err := g.Target3.validate("target3"); err != nil {
			return err
		}
	}
	if g.Trailing != nil {
		if err := g.Trailing.validate(); err != nil {
			return err
		}
	}
	return nil
}

type axes struct {
	sl, t1, t2, t3 []int32
	tr             []float64
}

func (g Grid) axes() axes {
	a := axes{
		sl: g.StopLoss.values(),
		t1: g.Target1.values(),
		t2: g.Target2.values(),
		t3: []int32{0},
		tr: []float64{0},
	}
	if g.Target3 != nil {
		if g.IncludeBase {
			a.t3 = append([]int32{0}, g.Target3.values()...)
		} else {
			a.t3 = g.Target3.values()
		}
	}
	if g.Trailing != nil {
		if g.IncludeBase {
			a.tr = append([]float64{0}, g.Trailing.values()...)
		} else {
			a.tr = g.Trailing.values()
		}
	}
	return a
}

// Iterator returns a lazy, restartable walk over the valid policies.
func (g Grid) Iterator() *Iterator {
	it := &Iterator{ax: g.axes()}
	it.Reset()
	return it
}

// Count walks the grid once and returns the number of valid policies.
func (g Grid) Count() int {
	n := 0
	it := g.Iterator()
	for it.Next() {
		n++
	}
	return n
}

// Page returns up to limit policies starting at the offset-th valid one.
func (g Grid) Page(offset, limit int) []policy.ExitPolicy {
	var out []policy.ExitPolicy
	it := g.Iterator()
	for it.Next() {
		if it.Index() < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, it.Policy())
	}
	return out
}

// Shard returns a source yielding every n-th policy starting at i, so n
// processes can split one grid without coordination.
func (g Grid) Shard(i, n int) (*ShardSource, error) {
	if n <= 0 || i < 0 || i >= n {
		return nil, fmt.Errorf("%w: shard %d of %d", ErrInvalidGrid, i, n)
	}
	return &ShardSource{it: g.Iterator(), shard: i, of: n}, nil
}

// Sample picks n policies uniformly with a seeded reservoir. The same seed
// always yields the same sample, returned in grid order.
func (g Grid) Sample(seed uint64, n int) []policy.ExitPolicy {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	type pick struct {
		idx int
		p   policy.ExitPolicy
	}
	res := make([]pick, 0, n)

	it := g.Iterator()
	for it.Next() {
		k := it.Index()
		if k < n {
			res = append(res, pick{k, it.Policy()})
			continue
		}
		if j := rng.IntN(k + 1); j < n {
			res[j] = pick{k, it.Policy()}
		}
	}

	sort.Slice(res, func(a, b int) bool { return res[a].idx < res[b].idx })
	out := make([]policy.ExitPolicy, len(res))
	for i, r := range res {
		out[i] = r.p
	}
	return out
}
