package report

import (
	"sort"
	"strconv"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// skewThreshold flags a task whose shuffle-read size strictly exceeds
// this multiple of its stage's mean.
const skewThreshold = 3.0

// ShuffleSkew flags tasks whose shuffle-read bytes strictly exceed 3×
// the mean across their stage attempt. A task at exactly the threshold
// is not flagged.
func ShuffleSkew(st *store.Store) Result {
	cols := []string{
		"appIndex", "stageId", "stageAttemptId", "taskId", "attempt",
		"taskShuffleReadBytes", "avgShuffleReadBytes",
	}
	if len(st.Tasks) == 0 {
		return NoData(cols...)
	}

	type stageKey struct {
		id, attempt int
	}
	sums := make(map[stageKey]int64)
	counts := make(map[stageKey]int)
	for _, t := range st.Tasks {
		k := stageKey{t.StageID, t.StageAttemptID}
		sums[k] += t.SRTotalBytesRead
		counts[k]++
	}

	var skewed []*store.Task
	means := make(map[stageKey]float64, len(sums))
	for k, sum := range sums {
		means[k] = float64(sum) / float64(counts[k])
	}
	for _, t := range st.Tasks {
		mean := means[stageKey{t.StageID, t.StageAttemptID}]
		if float64(t.SRTotalBytesRead) > skewThreshold*mean {
			skewed = append(skewed, t)
		}
	}
	if len(skewed) == 0 {
		return NoData(cols...)
	}

	sort.Slice(skewed, func(i, j int) bool {
		a, b := skewed[i], skewed[j]
		if a.StageID != b.StageID {
			return a.StageID < b.StageID
		}
		if a.StageAttemptID != b.StageAttemptID {
			return a.StageAttemptID < b.StageAttemptID
		}
		if a.TaskID != b.TaskID {
			return a.TaskID < b.TaskID
		}
		return a.Attempt < b.Attempt
	})

	rows := make([][]string, 0, len(skewed))
	for _, t := range skewed {
		mean := means[stageKey{t.StageID, t.StageAttemptID}]
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.Itoa(t.StageID),
			strconv.Itoa(t.StageAttemptID),
			strconv.FormatInt(t.TaskID, 10),
			strconv.Itoa(t.Attempt),
			strconv.FormatInt(t.SRTotalBytesRead, 10),
			strconv.FormatFloat(mean, 'f', 1, 64),
		})
	}
	return Result{Columns: cols, Rows: rows}
}
