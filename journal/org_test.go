package journal

import (
	"strings"
	"testing"

	"github.com/rustyeddy/exitsweep/policy"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRunOrg(t *testing.T) {
	t.Parallel()

	run := testRun("01JP5YB7Q3M9T0000000000000", day)
	top := []results.PolicyStatistics{
		stats(policy.ExitPolicy{StopLoss: 300, Target1: 200, Target2: 500}, "40", "-60", "20"),
		stats(policy.ExitPolicy{StopLoss: 100, Target1: 50, Target2: 100, TrailingPercent: 25}, "1"),
	}

	out, err := FormatRunOrg(run, top)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* SWEEP: WIN (01JP5YB7)\n"))
	assert.Contains(t, out, ":RUN_ID:      01JP5YB7Q3M9T0000000000000")
	assert.Contains(t, out, ":POINT_VALUE: 0.2")
	assert.Contains(t, out, ":START_DATE:  2025-03-10")
	assert.Contains(t, out, ":END_DATE:    2025-03-14")
	assert.Contains(t, out, ":SKIPPED:     3")
	assert.Contains(t, out, ":ELAPSED:     1.5s")
	assert.Contains(t, out, "| Empty history      | 2 |")
	assert.Contains(t, out, "| 1 | SL300-T200-T500 | 3 | 66.67% |")
	assert.Contains(t, out, "| 2 | SL100-T50-T100-TR25 | 1 | 100.00% |")

	lines := strings.Split(out, "\n")
	props, end := -1, -1
	for i, l := range lines {
		if l == ":PROPERTIES:" && props < 0 {
			props = i
		}
		if l == ":END:" && end < 0 {
			end = i
		}
	}
	assert.Equal(t, 1, props)
	assert.Greater(t, end, props)
}

func TestFormatRunOrgWithoutPolicies(t *testing.T) {
	t.Parallel()

	out, err := FormatRunOrg(Run{RunID: "short", Instrument: "IND"}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "* SWEEP: IND (short)")
	assert.Contains(t, out, ":KIND:        sweep")
	assert.Contains(t, out, "# no policies recorded")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"01JP5YB7Q3M9T0000000000000", "01JP5YB7"},
		{"12345678", "12345678"},
		{"short", "short"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, shortID(tt.input))
	}
}
