// Package stats writes the two profiling/metric JSON artifacts of
// spec.md §6: `timings.json` (the named profile timer array) and
// `stats.json` (the tet_metric summary).
package stats

import (
	"fmt"
	"os"

	"github.com/deadsy/adgrid/refine"
	"github.com/goccy/go-json"
)

// TimerLabels names the profile timer slots of spec.md §9's design
// notes, in the order a Timings value's Values must be supplied.
var TimerLabels = []string{
	"multi_index_lookup",
	"total",
	"single_function_eval",
	"pair_function_eval",
	"triple_function_eval",
	"pair_zero_crossing_test",
	"triple_zero_crossing_test",
	"subdivision",
	"function_evaluation",
	"edge_split",
}

// Timings is the labeled profile timer record written to
// `timings.json`.
type Timings struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// SaveTimings writes values (one float64 per TimerLabels entry, in
// seconds) to path.
func SaveTimings(path string, values []float64) error {
	t := Timings{Labels: TimerLabels, Values: values}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: SaveTimings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("stats: SaveTimings: %w", err)
	}
	return nil
}

// TetMetric is the `stats.json` summary of spec.md §4.3's Result,
// renamed to the field names a `tet_metric` JSON consumer expects.
type TetMetric struct {
	TotalTet          int     `json:"total_tet"`
	ActiveTet         int     `json:"active_tet"`
	MinRadiusRatio    float64 `json:"min_radius_ratio"`
	ActiveRadiusRatio float64 `json:"active_radius_ratio"`
	TwoFuncCheck      int     `json:"two_func_check"`
	ThreeFuncCheck    int     `json:"three_func_check"`
}

// FromResult adapts a refine.Result to the on-disk TetMetric shape.
func FromResult(r *refine.Result) TetMetric {
	return TetMetric{
		TotalTet:          r.TotalTet,
		ActiveTet:         r.ActiveTet,
		MinRadiusRatio:    r.MinRadiusRatio,
		ActiveRadiusRatio: r.ActiveRadiusRatio,
		TwoFuncCheck:      r.TwoFuncCheck,
		ThreeFuncCheck:    r.ThreeFuncCheck,
	}
}

// SaveMetrics writes r to path as `stats.json`.
func SaveMetrics(path string, r *refine.Result) error {
	m := FromResult(r)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: SaveMetrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("stats: SaveMetrics: %w", err)
	}
	return nil
}
