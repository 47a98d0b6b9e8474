package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

func TestFailedTasks(t *testing.T) {
	longReason := strings.Repeat("x", 150)

	st := store.New(0, false)
	st.AddTask(&store.Task{StageID: 2, TaskID: 5, Successful: false, EndReason: longReason})
	st.AddTask(&store.Task{StageID: 1, TaskID: 9, Successful: false, EndReason: "ExceptionFailure"})
	st.AddTask(&store.Task{StageID: 1, TaskID: 3, Successful: true})

	res := FailedTasks(st)
	require.Len(t, res.Rows, 2)

	// Ascending stage then task order, not insertion order.
	assert.Equal(t, "9", res.Rows[0][3])
	assert.Equal(t, "5", res.Rows[1][3])

	// The rendered reason is cut to 100 characters; the store record
	// keeps the full text.
	assert.Len(t, res.Rows[1][5], 100)
	assert.Equal(t, longReason[:100], res.Rows[1][5])
	assert.Len(t, st.Tasks[0].EndReason, 150)
}

func TestFailedTasksNone(t *testing.T) {
	st := store.New(0, false)
	st.AddTask(&store.Task{TaskID: 1, Successful: true})

	res := FailedTasks(st)
	assert.True(t, res.Empty())
	assert.Equal(t, []string{"appIndex", "stageId", "stageAttemptId", "taskId", "attempt", "endReason"}, res.Columns)
}

func TestFailedStages(t *testing.T) {
	st := store.New(1, false)
	st.AddStage(&store.Stage{StageID: 4, AttemptID: 1, Name: "count at App.scala:10", NumTasks: 8, FailureReason: "fetch failed"})
	st.AddStage(&store.Stage{StageID: 4, AttemptID: 0, Name: "count at App.scala:10", NumTasks: 8, FailureReason: "fetch failed"})
	st.AddStage(&store.Stage{StageID: 2, AttemptID: 0, Name: "collect at App.scala:12", NumTasks: 4})

	res := FailedStages(st)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"1", "4", "0", "count at App.scala:10", "8", "fetch failed"}, res.Rows[0])
	assert.Equal(t, "1", res.Rows[1][2])
}

func TestFailedJobs(t *testing.T) {
	st := store.New(0, false)
	st.AddJob(&store.Job{JobID: 3, Result: "JobFailed", FailureReason: "stage failure"})
	st.AddJob(&store.Job{JobID: 1, Result: store.JobResultSucceeded})
	st.AddJob(&store.Job{JobID: 0, Result: "JobFailed", FailureReason: "cancelled"})

	res := FailedJobs(st)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"0", "0", "JobFailed", "cancelled"}, res.Rows[0])
	assert.Equal(t, "3", res.Rows[1][1])
}

func TestUnsupportedNodes(t *testing.T) {
	st := store.New(0, true)
	st.AddFlag(&store.DiagnosticFlag{Kind: store.FlagUnsupportedNode, SQLID: 1, NodeID: 2, NodeName: "SortMergeJoin", Description: "SortMergeJoin [id#1]"})
	st.AddFlag(&store.DiagnosticFlag{Kind: store.FlagDatasetOp, SQLID: 1, NodeID: 2, NodeName: "SortMergeJoin"})
	st.AddFlag(&store.DiagnosticFlag{Kind: store.FlagUnsupportedNode, SQLID: 0, NodeID: 5, NodeName: "Exchange"})

	res := UnsupportedNodes(st)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Exchange", res.Rows[0][3])
	assert.Equal(t, "SortMergeJoin", res.Rows[1][3])
}

func TestUnsupportedNodesNone(t *testing.T) {
	res := UnsupportedNodes(store.New(0, false))
	assert.True(t, res.Empty())
}
