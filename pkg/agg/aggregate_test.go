package agg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// durationOnly keeps assertions focused on the expansion semantics.
func durationOnly() []Metric {
	return []Metric{{
		Name: "duration",
		Mode: ModeAll,
		Value: func(t *store.Task) int64 {
			return t.Duration
		},
	}}
}

func TestAllModeExpansion(t *testing.T) {
	st := store.New(0, false)
	for _, d := range []int64{10, 20, 30} {
		st.AddTask(&store.Task{StageID: 1, Duration: d})
	}

	rows := ByStage(st, durationOnly())
	require.Len(t, rows, 1)

	// sum, max, min, avg with one-decimal rounding.
	assert.Equal(t, []float64{60.0, 30.0, 10.0, 20.0}, rows[0].Values)
	assert.Equal(t, 3, rows[0].TaskCount)
	assert.Equal(t, int64(30), rows[0].DurationMax)
}

func TestAvgRounding(t *testing.T) {
	st := store.New(0, false)
	for _, d := range []int64{10, 11, 11} {
		st.AddTask(&store.Task{StageID: 0, Duration: d})
	}

	rows := ByStage(st, durationOnly())
	require.Len(t, rows, 1)
	assert.Equal(t, 10.7, rows[0].Values[3])
}

func TestJobGroupingBySetMembership(t *testing.T) {
	st := store.New(0, false)
	st.AddJob(&store.Job{JobID: 0, StageIDs: []int{1, 2, 3}})
	st.AddTask(&store.Task{StageID: 2, Duration: 40})
	st.AddTask(&store.Task{StageID: 4, Duration: 99})

	rows := ByJob(st, durationOnly())
	require.Len(t, rows, 1)

	// Stage 2 is a member of the job's stage set; stage 4 is not.
	assert.Equal(t, int64(0), rows[0].ID)
	assert.Equal(t, 1, rows[0].TaskCount)
	assert.Equal(t, int64(40), rows[0].DurationMax)
}

func TestSQLGroupingTransitive(t *testing.T) {
	sqlA := int64(7)
	st := store.New(0, false)
	st.AddJob(&store.Job{JobID: 0, StageIDs: []int{0}, SQLID: &sqlA})
	st.AddJob(&store.Job{JobID: 1, StageIDs: []int{1}})
	st.AddTask(&store.Task{StageID: 0, Duration: 10})
	st.AddTask(&store.Task{StageID: 0, Duration: 20})
	st.AddTask(&store.Task{StageID: 1, Duration: 500})

	rows := BySQL(st, durationOnly())
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].ID)
	assert.Equal(t, 2, rows[0].TaskCount)
}

func TestStageRowsSortedAscending(t *testing.T) {
	st := store.New(0, false)
	st.AddTask(&store.Task{StageID: 5, Duration: 1})
	st.AddTask(&store.Task{StageID: 2, Duration: 1})
	st.AddTask(&store.Task{StageID: 9, Duration: 1})

	rows := ByStage(st, durationOnly())
	require.Len(t, rows, 3)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, int64(5), rows[1].ID)
	assert.Equal(t, int64(9), rows[2].ID)
}

func TestDeterministicAcrossIngestOrder(t *testing.T) {
	build := func(durations []int64) []Row {
		st := store.New(0, false)
		st.AddJob(&store.Job{JobID: 0, StageIDs: []int{0, 1}})
		for i, d := range durations {
			st.AddTask(&store.Task{StageID: i % 2, Duration: d})
		}
		return ByJob(st, durationOnly())
	}

	a := build([]int64{10, 20, 30, 40})
	b := build([]int64{40, 30, 20, 10})
	assert.Equal(t, a[0].Values[0], b[0].Values[0])
	assert.Equal(t, a[0].Values[1], b[0].Values[1])
}

func TestRegistryColumns(t *testing.T) {
	metrics := Registry()
	cols := Columns(metrics)

	// duration expands to four columns; every other metric yields one.
	assert.Equal(t, len(metrics)+3, len(cols))
	assert.Equal(t, "duration_sum", cols[0])
	assert.Equal(t, "duration_avg", cols[3])
	assert.Contains(t, cols, "sr_totalBytesRead_sum")
	assert.Contains(t, cols, "peakExecutionMemory_max")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "60.0", FormatValue(60))
	assert.Equal(t, "10.7", FormatValue(10.7))
}
