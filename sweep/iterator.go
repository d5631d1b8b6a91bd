package sweep

import "github.com/rustyeddy/exitsweep/policy"

// Source yields policies in a fixed order. Index is the zero based ordinal
// of the current policy within the source.
type Source interface {
	Next() bool
	Policy() policy.ExitPolicy
	Index() int
}

// Iterator walks the grid like an odometer, innermost axis first, and only
// stops on combinations that validate.
type Iterator struct {
	ax  axes
	pos [5]int
	cur policy.ExitPolicy
	idx int

	started bool
	done    bool
}

func (it *Iterator) Reset() {
	it.pos = [5]int{}
	it.idx = -1
	it.started = false
	it.done = it.empty()
	it.cur = policy.ExitPolicy{}
}

func (it *Iterator) empty() bool {
	return len(it.ax.sl) == 0 || len(it.ax.t1) == 0 || len(it.ax.t2) == 0 ||
		len(it.ax.t3) == 0 || len(it.ax.tr) == 0
}

func (it *Iterator) Next() bool {
	for !it.done {
		if it.started {
			it.advance()
			if it.done {
				return false
			}
		}
		it.started = true

		p := policy.ExitPolicy{
			StopLoss:        it.ax.sl[it.pos[0]],
			Target1:         it.ax.t1[it.pos[1]],
			Target2:         it.ax.t2[it.pos[2]],
			Target3:         it.ax.t3[it.pos[3]],
			TrailingPercent: it.ax.tr[it.pos[4]],
		}
		if p.Validate() == nil {
			it.cur = p
			it.idx++
			return true
		}
	}
	return false
}

func (it *Iterator) advance() {
	sizes := [5]int{len(it.ax.sl), len(it.ax.t1), len(it.ax.t2), len(it.ax.t3), len(it.ax.tr)}
	for d := 4; d >= 0; d-- {
		it.pos[d]++
		if it.pos[d] < sizes[d] {
			return
		}
		it.pos[d] = 0
	}
	it.done = true
}

func (it *Iterator) Policy() policy.ExitPolicy { return it.cur }

func (it *Iterator) Index() int { return it.idx }

// ShardSource filters a grid iterator down to one shard. Index reports the
// ordinal within the full grid so results from shards can be merged.
type ShardSource struct {
	it    *Iterator
	shard int
	of    int
}

func (s *ShardSource) Next() bool {
	for s.it.Next() {
		if s.it.Index()%s.of == s.shard {
			return true
		}
	}
	return false
}

func (s *ShardSource) Policy() policy.ExitPolicy { return s.it.Policy() }

func (s *ShardSource) Index() int { return s.it.Index() }

// SliceSource serves an explicit policy list. Entries are not validated
// here; the runner rejects invalid ones.
type SliceSource struct {
	policies []policy.ExitPolicy
	idx      int
}

func NewSliceSource(ps []policy.ExitPolicy) *SliceSource {
	return &SliceSource{policies: ps, idx: -1}
}

func (s *SliceSource) Next() bool {
	if s.idx+1 >= len(s.policies) {
		return false
	}
	s.idx++
	return true
}

func (s *SliceSource) Policy() policy.ExitPolicy { return s.policies[s.idx] }

func (s *SliceSource) Index() int { return s.idx }
