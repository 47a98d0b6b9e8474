package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

func skewTask(stage, attempt int, id int64, bytes int64) *store.Task {
	return &store.Task{
		StageID: stage, StageAttemptID: attempt,
		TaskID: id, SRTotalBytesRead: bytes,
	}
}

func TestShuffleSkewThreshold(t *testing.T) {
	// Three tasks at 100 bytes set the mean for a fourth at exactly 3×
	// (not flagged) versus just over (flagged).
	t.Run("StrictlyOver", func(t *testing.T) {
		st := store.New(0, false)
		st.AddTask(skewTask(1, 0, 0, 100))
		st.AddTask(skewTask(1, 0, 1, 100))
		st.AddTask(skewTask(1, 0, 2, 100))
		st.AddTask(skewTask(1, 0, 3, 301))

		// mean = 602/4 = 150.5, threshold 451.5: nothing over.
		res := ShuffleSkew(st)
		assert.True(t, res.Empty())

		// A second attempt keeps its own mean.
		st.AddTask(skewTask(1, 1, 4, 100))
		st.AddTask(skewTask(1, 1, 5, 100))
		st.AddTask(skewTask(1, 1, 6, 100))
		st.AddTask(skewTask(1, 1, 7, 100))
		st.AddTask(skewTask(1, 1, 8, 2000))

		res = ShuffleSkew(st)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, "8", res.Rows[0][3])
		assert.Equal(t, "2000", res.Rows[0][5])
		assert.Equal(t, "480.0", res.Rows[0][6])
	})

	t.Run("ExactMultipleNotFlagged", func(t *testing.T) {
		st := store.New(0, false)
		// mean = (10+10+10+30)/4 = 15; 3×15 = 45, nothing exceeds.
		st.AddTask(skewTask(2, 0, 0, 10))
		st.AddTask(skewTask(2, 0, 1, 10))
		st.AddTask(skewTask(2, 0, 2, 10))
		st.AddTask(skewTask(2, 0, 3, 30))
		// mean = 20 for attempt 1; 60 is exactly 3× and stays out.
		st.AddTask(skewTask(2, 1, 4, 0))
		st.AddTask(skewTask(2, 1, 5, 0))
		st.AddTask(skewTask(2, 1, 6, 60))

		res := ShuffleSkew(st)
		assert.True(t, res.Empty())
	})
}

func TestShuffleSkewOrdering(t *testing.T) {
	st := store.New(0, false)
	// Two stages, each with one outlier, added out of order.
	st.AddTask(skewTask(5, 0, 10, 9000))
	st.AddTask(skewTask(5, 0, 11, 10))
	st.AddTask(skewTask(5, 0, 12, 10))
	st.AddTask(skewTask(3, 0, 20, 8000))
	st.AddTask(skewTask(3, 0, 21, 10))
	st.AddTask(skewTask(3, 0, 22, 10))

	res := ShuffleSkew(st)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "3", res.Rows[0][1])
	assert.Equal(t, "5", res.Rows[1][1])
}

func TestShuffleSkewNoTasks(t *testing.T) {
	res := ShuffleSkew(store.New(0, false))
	assert.True(t, res.Empty())
	assert.Equal(t, "taskShuffleReadBytes", res.Columns[5])
}
