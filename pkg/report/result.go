// Package report answers read-side queries over a finished store.
//
// Every report is a pure function from the store to a tabular Result
// with ordered columns and rows. Reports never mutate the store, so
// they may run concurrently with each other once the correlate and plan
// phases have completed. A report whose required entity family is empty
// returns an explicit no-data result rather than failing.
package report

// Result is an ordered tabular query result.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the result carries no rows.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// NoData is the explicit empty result for an absent entity family.
// Columns are still populated so consumers can render headers.
func NoData(columns ...string) Result {
	return Result{Columns: columns}
}

// maxDisplayReason bounds free-text reason fields in report output.
// The full string remains available on the internal record.
const maxDisplayReason = 100

func truncateReason(s string) string {
	if len(s) <= maxDisplayReason {
		return s
	}
	return s[:maxDisplayReason]
}
