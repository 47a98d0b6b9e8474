package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// ApplicationInfo returns the single-row application summary.
func ApplicationInfo(st *store.Store) Result {
	cols := []string{
		"appIndex", "appName", "appId", "user", "sparkVersion",
		"startTime", "endTime", "duration", "durationStr", "durationEstimated",
	}
	if st.App == nil {
		return NoData(cols...)
	}
	app := st.App

	endTime := ""
	duration := ""
	durationStr := ""
	if app.EndTime > 0 {
		endTime = strconv.FormatInt(app.EndTime, 10)
	}
	if app.HasDuration {
		duration = strconv.FormatInt(app.Duration, 10)
		durationStr = formatMillis(app.Duration)
	}

	return Result{
		Columns: cols,
		Rows: [][]string{{
			strconv.Itoa(st.AppIndex),
			app.AppName,
			app.AppID,
			app.User,
			app.SparkVersion,
			strconv.FormatInt(app.StartTime, 10),
			endTime,
			duration,
			durationStr,
			strconv.FormatBool(app.DurationEstimated),
		}},
	}
}

// ExecutorInfo lists executors in arrival order with their resource
// profile and block-manager memory, when observed.
func ExecutorInfo(st *store.Store) Result {
	cols := []string{
		"appIndex", "executorId", "host", "totalCores",
		"resourceProfileId", "addedTime", "maxMem", "maxOnHeapMem", "maxOffHeapMem",
	}
	if len(st.Executors) == 0 {
		return NoData(cols...)
	}

	bmByExec := make(map[string]*store.BlockManager, len(st.BlockManagers))
	for _, bm := range st.BlockManagers {
		bmByExec[bm.ExecutorID] = bm
	}

	rows := make([][]string, 0, len(st.Executors))
	for _, e := range st.Executors {
		maxMem, maxOn, maxOff := "", "", ""
		if bm := bmByExec[e.ExecutorID]; bm != nil {
			maxMem = strconv.FormatInt(bm.MaxMem, 10)
			maxOn = strconv.FormatInt(bm.MaxOnHeapMem, 10)
			maxOff = strconv.FormatInt(bm.MaxOffHeapMem, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			e.ExecutorID,
			e.Host,
			strconv.Itoa(e.TotalCores),
			strconv.Itoa(e.ResourceProfileID),
			strconv.FormatInt(e.AddedTime, 10),
			maxMem, maxOn, maxOff,
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// PropertyFilter narrows the property listing.
type PropertyFilter struct {
	// Source restricts to one property source when non-empty.
	Source string

	// KeyGlob is a doublestar pattern applied to keys when non-empty.
	KeyGlob string
}

// Properties lists properties, optionally filtered by source and key glob.
func Properties(st *store.Store, filter PropertyFilter) (Result, error) {
	cols := []string{"appIndex", "source", "key", "value"}
	if len(st.Properties) == 0 {
		return NoData(cols...), nil
	}

	var rows [][]string
	for _, p := range st.Properties {
		if filter.Source != "" && p.Source != filter.Source {
			continue
		}
		if filter.KeyGlob != "" {
			ok, err := doublestar.Match(filter.KeyGlob, p.Key)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex), p.Source, p.Key, p.Value,
		})
	}
	if len(rows) == 0 {
		return NoData(cols...), nil
	}
	return Result{Columns: cols, Rows: rows}, nil
}

// JobMapping lists each job with its stage set and owning SQL execution.
func JobMapping(st *store.Store) Result {
	cols := []string{"appIndex", "jobId", "stageIds", "sqlId"}
	if len(st.Jobs) == 0 {
		return NoData(cols...)
	}

	jobs := append([]*store.Job(nil), st.Jobs...)
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].JobID < jobs[j].JobID })

	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		ids := make([]string, 0, len(j.StageIDs))
		sorted := append([]int(nil), j.StageIDs...)
		sort.Ints(sorted)
		for _, sid := range sorted {
			ids = append(ids, strconv.Itoa(sid))
		}
		sqlID := ""
		if j.SQLID != nil {
			sqlID = strconv.FormatInt(*j.SQLID, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.Itoa(j.JobID),
			"[" + strings.Join(ids, ",") + "]",
			sqlID,
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// SQLPlanMetrics links plan nodes to their accumulator values.
// Rows keep store order: sql arrival order, nodes depth-first.
func SQLPlanMetrics(st *store.Store) Result {
	cols := []string{
		"appIndex", "sqlId", "nodeId", "nodeName",
		"accumulatorId", "name", "metricType", "value",
	}
	if len(st.PlanMetrics) == 0 {
		return NoData(cols...)
	}

	values := make(map[int64]int64, len(st.AccumValues))
	for _, v := range st.AccumValues {
		values[v.AccumulatorID] = v.Value
	}

	rows := make([][]string, 0, len(st.PlanMetrics))
	for _, pm := range st.PlanMetrics {
		val := ""
		if v, ok := values[pm.AccumulatorID]; ok {
			val = strconv.FormatInt(v, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.FormatInt(pm.SQLID, 10),
			strconv.Itoa(pm.NodeID),
			pm.NodeName,
			strconv.FormatInt(pm.AccumulatorID, 10),
			pm.MetricName,
			pm.MetricType,
			val,
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// RemovedExecutors lists executor removal records in id order.
func RemovedExecutors(st *store.Store) Result {
	cols := []string{"appIndex", "executorId", "time", "reason"}
	if len(st.ExecutorRemovals) == 0 {
		return NoData(cols...)
	}

	rems := append([]*store.ExecutorRemoval(nil), st.ExecutorRemovals...)
	sort.Slice(rems, func(i, j int) bool {
		if rems[i].ExecutorID != rems[j].ExecutorID {
			return rems[i].ExecutorID < rems[j].ExecutorID
		}
		return rems[i].Time < rems[j].Time
	})

	rows := make([][]string, 0, len(rems))
	for _, r := range rems {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			r.ExecutorID,
			strconv.FormatInt(r.Time, 10),
			truncateReason(r.Reason),
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// RemovedBlockManagers lists block-manager removal records in id order.
func RemovedBlockManagers(st *store.Store) Result {
	cols := []string{"appIndex", "executorId", "time"}
	if len(st.BlockManagerRems) == 0 {
		return NoData(cols...)
	}

	rems := append([]*store.BlockManagerRemoval(nil), st.BlockManagerRems...)
	sort.Slice(rems, func(i, j int) bool {
		if rems[i].ExecutorID != rems[j].ExecutorID {
			return rems[i].ExecutorID < rems[j].ExecutorID
		}
		return rems[i].Time < rems[j].Time
	})

	rows := make([][]string, 0, len(rems))
	for _, r := range rems {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			r.ExecutorID,
			strconv.FormatInt(r.Time, 10),
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// formatMillis renders a millisecond duration as h/m/s text.
func formatMillis(ms int64) string {
	if ms < 0 {
		return ""
	}
	secs := ms / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	switch {
	case h > 0:
		return strconv.FormatInt(h, 10) + "h " + strconv.FormatInt(m, 10) + "m " + strconv.FormatInt(s, 10) + "s"
	case m > 0:
		return strconv.FormatInt(m, 10) + "m " + strconv.FormatInt(s, 10) + "s"
	default:
		return strconv.FormatInt(s, 10) + "s"
	}
}
