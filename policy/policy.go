// Package policy defines exit policies: a stop distance, two or three staged
// targets and an optional trailing stop activation threshold.
package policy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rustyeddy/exitsweep/market"
)

var ErrInvalidPolicy = errors.New("invalid policy")

// ExitPolicy distances are in points from the entry price. Target3 == 0 means
// a two tranche policy and TrailingPercent == 0 disables the trailing stop.
type ExitPolicy struct {
	StopLoss        int32   `json:"stop_loss" yaml:"stop_loss"`
	Target1         int32   `json:"target1" yaml:"target1"`
	Target2         int32   `json:"target2" yaml:"target2"`
	Target3         int32   `json:"target3,omitempty" yaml:"target3,omitempty"`
	TrailingPercent float64 `json:"trailing_percent,omitempty" yaml:"trailing_percent,omitempty"`
}

// Validate rejects a policy that breaks an ordering rule. Values are never
// clamped.
func (p ExitPolicy) Validate() error {
	switch {
	case p.StopLoss <= 0:
		return fmt.Errorf("%w: stop_loss must be positive, got %d", ErrInvalidPolicy, p.StopLoss)
	case p.Target1 <= 0:
		return fmt.Errorf("%w: target1 must be positive, got %d", ErrInvalidPolicy, p.Target1)
	case p.Target2 <= p.Target1:
		return fmt.Errorf("%w: target2 (%d) must be greater than target1 (%d)", ErrInvalidPolicy, p.Target2, p.Target1)
	case p.Target3 < 0:
		return fmt.Errorf("%w: target3 must not be negative, got %d", ErrInvalidPolicy, p.Target3)
	case p.Target3 != 0 && p.Target3 <= p.Target2:
		return fmt.Errorf("%w: target3 (%d) must be greater than target2 (%d)", ErrInvalidPolicy, p.Target3, p.Target2)
	case math.IsNaN(p.TrailingPercent) || p.TrailingPercent < 0 || p.TrailingPercent > 100:
		return fmt.Errorf("%w: trailing_percent must be in (0,100], got %g", ErrInvalidPolicy, p.TrailingPercent)
	}
	return nil
}

// Tranches is 3 when Target3 is set, otherwise 2.
func (p ExitPolicy) Tranches() int {
	if p.Target3 > 0 {
		return 3
	}
	return 2
}

// Targets returns the target distances in firing order.
func (p ExitPolicy) Targets() []int32 {
	if p.Target3 > 0 {
		return []int32{p.Target1, p.Target2, p.Target3}
	}
	return []int32{p.Target1, p.Target2}
}

// LastTarget is the farthest target distance.
func (p ExitPolicy) LastTarget() int32 {
	if p.Target3 > 0 {
		return p.Target3
	}
	return p.Target2
}

// Trailing reports whether the trailing stop is enabled.
func (p ExitPolicy) Trailing() bool { return p.TrailingPercent > 0 }

// Split divides quantity across the tranches. The last tranche takes the
// remainder so the parts always sum to quantity.
func (p ExitPolicy) Split(quantity int) []int {
	if p.Tranches() == 3 {
		third := quantity / 3
		return []int{third, third, quantity - 2*third}
	}
	half := quantity / 2
	return []int{half, quantity - half}
}

// Levels returns the stop price and the target prices for an entry.
func (p ExitPolicy) Levels(side market.Side, entry market.Price) (stop market.Price, targets []market.Price) {
	sign := int32(side)
	stop = entry - sign*p.StopLoss
	for _, d := range p.Targets() {
		targets = append(targets, entry+sign*d)
	}
	return stop, targets
}

// Key is a compact stable label, e.g. "SL300-T200-T500-T800-TR25".
func (p ExitPolicy) Key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SL%d-T%d-T%d", p.StopLoss, p.Target1, p.Target2)
	if p.Target3 > 0 {
		fmt.Fprintf(&sb, "-T%d", p.Target3)
	}
	if p.Trailing() {
		sb.WriteString("-TR")
		sb.WriteString(strconv.FormatFloat(p.TrailingPercent, 'f', -1, 64))
	}
	return sb.String()
}

func (p ExitPolicy) String() string { return p.Key() }

// ParseKey is the inverse of Key.
func ParseKey(s string) (ExitPolicy, error) {
	var p ExitPolicy
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 3 {
		return p, fmt.Errorf("%w: malformed key %q", ErrInvalidPolicy, s)
	}

	targets := 0
	for i, part := range parts {
		var err error
		switch {
		case i == 0 && strings.HasPrefix(part, "SL"):
			p.StopLoss, err = parseInt32(part[2:])
		case strings.HasPrefix(part, "TR"):
			p.TrailingPercent, err = strconv.ParseFloat(part[2:], 64)
		case strings.HasPrefix(part, "T"):
			var v int32
			v, err = parseInt32(part[1:])
			switch targets {
			case 0:
				p.Target1 = v
			case 1:
				p.Target2 = v
			case 2:
				p.Target3 = v
			default:
				err = errors.New("too many targets")
			}
			targets++
		default:
			err = fmt.Errorf("unexpected segment %q", part)
		}
		if err != nil {
			return ExitPolicy{}, fmt.Errorf("%w: key %q: %v", ErrInvalidPolicy, s, err)
		}
	}

	if err := p.Validate(); err != nil {
		return ExitPolicy{}, err
	}
	return p, nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}
