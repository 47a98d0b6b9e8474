// Package agg computes grouped aggregates over task-level metrics.
//
// A fixed registry names each numeric task metric and its aggregation
// mode. Grouping is index-based: stage→job and job→sql indices are
// resolved once per fold, then metrics accumulate per group key. Sums
// and maxes are associative and commutative, so results are independent
// of ingestion order.
package agg

import (
	"strconv"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// Mode selects how a metric folds across a group.
type Mode int

const (
	// ModeSum emits a single summed column.
	ModeSum Mode = iota

	// ModeMax emits a single max column.
	ModeMax

	// ModeAll expands to sum, max, min, and avg columns, each value
	// rounded to one decimal place.
	ModeAll
)

// Metric is one registered task metric.
type Metric struct {
	Name  string
	Mode  Mode
	Value func(*store.Task) int64
}

// Registry returns the fixed metric registry in output column order.
func Registry() []Metric {
	return []Metric{
		{"duration", ModeAll, func(t *store.Task) int64 { return t.Duration }},
		{"gettingResultTime", ModeSum, func(t *store.Task) int64 { return t.GettingResultTime }},
		{"executorDeserializeTime", ModeSum, func(t *store.Task) int64 { return t.ExecutorDeserializeTime }},
		{"executorDeserializeCPUTime", ModeSum, func(t *store.Task) int64 { return t.ExecutorDeserializeCPUTime }},
		{"executorRunTime", ModeSum, func(t *store.Task) int64 { return t.ExecutorRunTime }},
		{"executorCPUTime", ModeSum, func(t *store.Task) int64 { return t.ExecutorCPUTime }},
		{"peakExecutionMemory", ModeMax, func(t *store.Task) int64 { return t.PeakExecutionMemory }},
		{"resultSize", ModeMax, func(t *store.Task) int64 { return t.ResultSize }},
		{"jvmGCTime", ModeSum, func(t *store.Task) int64 { return t.JVMGCTime }},
		{"resultSerializationTime", ModeSum, func(t *store.Task) int64 { return t.ResultSerializationTime }},
		{"memoryBytesSpilled", ModeSum, func(t *store.Task) int64 { return t.MemoryBytesSpilled }},
		{"diskBytesSpilled", ModeSum, func(t *store.Task) int64 { return t.DiskBytesSpilled }},
		{"inputBytesRead", ModeSum, func(t *store.Task) int64 { return t.InputBytesRead }},
		{"inputRecordsRead", ModeSum, func(t *store.Task) int64 { return t.InputRecordsRead }},
		{"outputBytesWritten", ModeSum, func(t *store.Task) int64 { return t.OutputBytesWritten }},
		{"outputRecordsWritten", ModeSum, func(t *store.Task) int64 { return t.OutputRecordsWritten }},
		{"sr_fetchWaitTime", ModeSum, func(t *store.Task) int64 { return t.SRFetchWaitTime }},
		{"sr_localBlocksFetched", ModeSum, func(t *store.Task) int64 { return t.SRLocalBlocksFetched }},
		{"sr_remoteBlocksFetched", ModeSum, func(t *store.Task) int64 { return t.SRRemoteBlocksFetched }},
		{"sr_localBytesRead", ModeSum, func(t *store.Task) int64 { return t.SRLocalBytesRead }},
		{"sr_remoteBytesRead", ModeSum, func(t *store.Task) int64 { return t.SRRemoteBytesRead }},
		{"sr_remoteBytesReadToDisk", ModeSum, func(t *store.Task) int64 { return t.SRRemoteBytesReadToDisk }},
		{"sr_totalBytesRead", ModeSum, func(t *store.Task) int64 { return t.SRTotalBytesRead }},
		{"sr_totalRecordsRead", ModeSum, func(t *store.Task) int64 { return t.SRTotalRecordsRead }},
		{"sw_bytesWritten", ModeSum, func(t *store.Task) int64 { return t.SWBytesWritten }},
		{"sw_writeTime", ModeSum, func(t *store.Task) int64 { return t.SWWriteTime }},
		{"sw_recordsWritten", ModeSum, func(t *store.Task) int64 { return t.SWRecordsWritten }},
	}
}

// Columns expands the registry into ordered output column names.
func Columns(metrics []Metric) []string {
	var out []string
	for _, m := range metrics {
		switch m.Mode {
		case ModeAll:
			out = append(out,
				m.Name+"_sum",
				m.Name+"_max",
				m.Name+"_min",
				m.Name+"_avg")
		case ModeMax:
			out = append(out, m.Name+"_max")
		default:
			out = append(out, m.Name+"_sum")
		}
	}
	return out
}

// FormatValue renders an aggregate cell the way reports print it.
// Values carry at most one decimal place.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
