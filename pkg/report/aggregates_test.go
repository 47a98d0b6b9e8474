package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

func TestStageAggregates(t *testing.T) {
	st := store.New(0, false)
	st.AddStage(&store.Stage{StageID: 1})
	st.AddTask(&store.Task{TaskID: 0, StageID: 1, Duration: 100, SRTotalBytesRead: 50})
	st.AddTask(&store.Task{TaskID: 1, StageID: 1, Duration: 300, SRTotalBytesRead: 70})

	res := StageAggregates(st)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]

	assert.Equal(t, "appIndex", res.Columns[0])
	assert.Equal(t, "stageId", res.Columns[1])
	assert.Equal(t, "1", row[1])
	assert.Equal(t, "2", row[2])
	// The Duration column is the longest task, not a sum.
	assert.Equal(t, "300", row[3])
	assert.Len(t, row, len(res.Columns))
}

func TestJobAggregatesNoTasks(t *testing.T) {
	res := JobAggregates(store.New(0, false))
	assert.True(t, res.Empty())
	assert.Equal(t, "jobId", res.Columns[1])
}

func TestSQLAggregatesKeyColumn(t *testing.T) {
	res := SQLAggregates(store.New(0, false))
	assert.Equal(t, "sqlId", res.Columns[1])
}
