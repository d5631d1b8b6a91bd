package journal

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/rustyeddy/exitsweep/results"
)

type orgView struct {
	Run
	Short string
	Top   []results.Row
}

var orgFuncs = template.FuncMap{
	"pct": func(x float64) string { return fmt.Sprintf("%.2f%%", x) },
	"f2":  func(x float64) string { return fmt.Sprintf("%.2f", x) },
	"inc": func(i int) int { return i + 1 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run and its best policies as an Org-mode entry.
// Structured facts go into a PROPERTIES drawer so they stay searchable.
func FormatRunOrg(r Run, top []results.PolicyStatistics) (string, error) {
	v := orgView{Run: r, Short: shortID(r.RunID), Top: results.Rows(top)}

	var buf bytes.Buffer
	if err := orgTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	return buf.String(), nil
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

const RunOrgTemplate = `* SWEEP: {{.Instrument}} ({{.Short}})
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:KIND:        {{if .Kind}}{{.Kind}}{{else}}sweep{{end}}
:INSTRUMENT:  {{.Instrument}}
:POINT_VALUE: {{.PointValue.String}}
:CANDLES:     {{if .CandlesFile}}{{.CandlesFile}}{{else}}(candles?){{end}}
:TRADES_FILE: {{if .TradesFile}}{{.TradesFile}}{{else}}(trades?){{end}}
:START_DATE:  {{.From.Format "2006-01-02"}}
:END_DATE:    {{.To.Format "2006-01-02"}}
:DAYS:        {{.Days}}
:TRADES:      {{.Trades}}
:PREPARED:    {{.Prepared}}
:SKIPPED:     {{.Skipped.Total}}
:POLICIES:    {{.Policies}}
:REJECTED:    {{.Rejected}}
:TIE_BREAK:   {{.TieBreak}}
:WINDOW:      {{.Window}}
:RANK_BY:     {{.RankBy}}
:ELAPSED:     {{.Elapsed}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Skipped Trades
| Reason             | Count |
|--------------------+-------|
| Empty history      | {{.Skipped.EmptyHistory}} |
| Entry out of range | {{.Skipped.EntryOutOfRange}} |
| Zero quantity      | {{.Skipped.ZeroQuantity}} |
| Other              | {{.Skipped.Other}} |

** Top Policies
{{- if .Top }}
| # | Policy | Trades | Hit % | Stop % | Full % | PF | Avg pts | Total P&L |
|---+--------+--------+-------+--------+--------+----+---------+-----------|
{{- range $i, $r := .Top }}
| {{inc $i}} | {{$r.Key}} | {{$r.Trades}} | {{pct $r.HitRate}} | {{pct $r.StopRate}} | {{pct $r.FullRate}} | {{f2 $r.ProfitFactor}} | {{f2 $r.AvgPoints}} | {{$r.TotalPnL.StringFixed 2}} |
{{- end }}
{{- else }}
# no policies recorded
{{- end }}

** Notes
- 
`
