package agg

import (
	"math"
	"sort"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// Row is one aggregate output row.
//
// Values align with Columns(metrics). DurationMax is the max of the
// group's own task durations, reported as "Duration".
type Row struct {
	ID          int64
	TaskCount   int
	DurationMax int64
	Values      []float64
}

// ByStage groups tasks directly by stage id.
func ByStage(st *store.Store, metrics []Metric) []Row {
	return fold(st, metrics, func(t *store.Task) (int64, bool) {
		return int64(t.StageID), true
	})
}

// ByJob groups tasks by owning job, resolved via the job's stage-id set.
// Tasks whose stage no job claims are excluded.
func ByJob(st *store.Store, metrics []Metric) []Row {
	idx := stageToJob(st)
	return fold(st, metrics, func(t *store.Task) (int64, bool) {
		j, ok := idx[t.StageID]
		if !ok {
			return 0, false
		}
		return int64(j), true
	})
}

// BySQL groups tasks by SQL execution, resolved transitively through
// stage→job→sql. Tasks on jobs with no SQL id are excluded.
func BySQL(st *store.Store, metrics []Metric) []Row {
	jobIdx := stageToJob(st)
	sqlIdx := jobToSQL(st)
	return fold(st, metrics, func(t *store.Task) (int64, bool) {
		j, ok := jobIdx[t.StageID]
		if !ok {
			return 0, false
		}
		sqlID, ok := sqlIdx[j]
		if !ok {
			return 0, false
		}
		return sqlID, true
	})
}

// stageToJob builds the stage-id → job-id index once per fold.
// With reused stage ids the first claiming job in arrival order wins.
func stageToJob(st *store.Store) map[int]int {
	idx := make(map[int]int)
	for _, j := range st.Jobs {
		for _, sid := range j.StageIDs {
			if _, ok := idx[sid]; !ok {
				idx[sid] = j.JobID
			}
		}
	}
	return idx
}

func jobToSQL(st *store.Store) map[int]int64 {
	idx := make(map[int]int64)
	for _, j := range st.Jobs {
		if j.SQLID != nil {
			idx[j.JobID] = *j.SQLID
		}
	}
	return idx
}

type accumulator struct {
	count  int
	durMax int64
	sums   []int64
	maxs   []int64
	mins   []int64
}

func fold(st *store.Store, metrics []Metric, key func(*store.Task) (int64, bool)) []Row {
	groups := make(map[int64]*accumulator)

	for _, t := range st.Tasks {
		k, ok := key(t)
		if !ok {
			continue
		}
		acc := groups[k]
		if acc == nil {
			acc = &accumulator{
				sums: make([]int64, len(metrics)),
				maxs: make([]int64, len(metrics)),
				mins: make([]int64, len(metrics)),
			}
			for i := range acc.mins {
				acc.mins[i] = math.MaxInt64
			}
			groups[k] = acc
		}
		acc.count++
		if t.Duration > acc.durMax {
			acc.durMax = t.Duration
		}
		for i, m := range metrics {
			v := m.Value(t)
			acc.sums[i] += v
			if v > acc.maxs[i] {
				acc.maxs[i] = v
			}
			if v < acc.mins[i] {
				acc.mins[i] = v
			}
		}
	}

	keys := make([]int64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		row := Row{ID: k, TaskCount: acc.count, DurationMax: acc.durMax}
		for i, m := range metrics {
			switch m.Mode {
			case ModeAll:
				avg := float64(acc.sums[i]) / float64(acc.count)
				row.Values = append(row.Values,
					round1(float64(acc.sums[i])),
					round1(float64(acc.maxs[i])),
					round1(float64(acc.mins[i])),
					round1(avg))
			case ModeMax:
				row.Values = append(row.Values, float64(acc.maxs[i]))
			default:
				row.Values = append(row.Values, float64(acc.sums[i]))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
