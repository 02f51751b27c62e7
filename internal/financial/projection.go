package financial

import (
	"time"

	"github.com/shopspring/decimal"
)

// scaleFactors shape the illustrative trend. They are not derived from any
// history: the chart only shows how today's figures compare to a made-up
// ramp. Non-decreasing, last one is 1.
var scaleFactors = []decimal.Decimal{
	decimal.RequireFromString("0.63"),
	decimal.RequireFromString("0.74"),
	decimal.RequireFromString("0.84"),
	decimal.RequireFromString("0.84"),
	decimal.RequireFromString("0.89"),
	decimal.NewFromInt(1),
}

// ProjectionPeriods is the number of points Project returns.
var ProjectionPeriods = len(scaleFactors)

type ProjectionPoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// Project returns one point per month ending with now's month, each the
// current value times its scale factor.
func Project(revenue, profit decimal.Decimal, now time.Time) []ProjectionPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	n := len(scaleFactors)

	out := make([]ProjectionPoint, 0, n)
	for i, f := range scaleFactors {
		month := first.AddDate(0, i-(n-1), 0)
		out = append(out, ProjectionPoint{
			Label:   month.Format("Jan 2006"),
			Revenue: revenue.Mul(f),
			Profit:  profit.Mul(f),
		})
	}
	return out
}
