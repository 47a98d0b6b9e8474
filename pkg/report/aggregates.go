package report

import (
	"strconv"

	"github.com/sparkqual/sparkqual/pkg/agg"
	"github.com/sparkqual/sparkqual/pkg/store"
)

// JobAggregates reports grouped task metrics at job granularity.
func JobAggregates(st *store.Store) Result {
	return aggregateResult(st, "jobId", agg.ByJob)
}

// StageAggregates reports grouped task metrics at stage granularity.
func StageAggregates(st *store.Store) Result {
	return aggregateResult(st, "stageId", agg.ByStage)
}

// SQLAggregates reports grouped task metrics at SQL-execution granularity.
func SQLAggregates(st *store.Store) Result {
	return aggregateResult(st, "sqlId", agg.BySQL)
}

func aggregateResult(st *store.Store, keyColumn string, group func(*store.Store, []agg.Metric) []agg.Row) Result {
	metrics := agg.Registry()
	cols := append([]string{"appIndex", keyColumn, "numTasks", "Duration"}, agg.Columns(metrics)...)

	rows := group(st, metrics)
	if len(rows) == 0 {
		return NoData(cols...)
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, 0, len(cols))
		cells = append(cells,
			strconv.Itoa(st.AppIndex),
			strconv.FormatInt(r.ID, 10),
			strconv.Itoa(r.TaskCount),
			strconv.FormatInt(r.DurationMax, 10))
		for _, v := range r.Values {
			cells = append(cells, agg.FormatValue(v))
		}
		out = append(out, cells)
	}
	return Result{Columns: cols, Rows: out}
}
