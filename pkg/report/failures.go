package report

import (
	"sort"
	"strconv"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// FailedTasks lists unsuccessful tasks in ascending id order.
// End reasons are truncated for display; the store keeps the full text.
func FailedTasks(st *store.Store) Result {
	cols := []string{"appIndex", "stageId", "stageAttemptId", "taskId", "attempt", "endReason"}

	var failed []*store.Task
	for _, t := range st.Tasks {
		if !t.Successful {
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 {
		return NoData(cols...)
	}

	sort.Slice(failed, func(i, j int) bool {
		a, b := failed[i], failed[j]
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

	rows := make([][]string, 0, len(failed))
	for _, t := range failed {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.Itoa(t.StageID),
			strconv.Itoa(t.StageAttemptID),
			strconv.FormatInt(t.TaskID, 10),
			strconv.Itoa(t.Attempt),
			truncateReason(t.EndReason),
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// FailedStages lists stage attempts carrying a failure reason.
func FailedStages(st *store.Store) Result {
	cols := []string{"appIndex", "stageId", "attemptId", "name", "numTasks", "failureReason"}

	var failed []*store.Stage
	for _, s := range st.Stages {
		if s.FailureReason != "" {
			failed = append(failed, s)
		}
	}
	if len(failed) == 0 {
		return NoData(cols...)
	}

	sort.Slice(failed, func(i, j int) bool {
		if failed[i].StageID != failed[j].StageID {
			return failed[i].StageID < failed[j].StageID
		}
		return failed[i].AttemptID < failed[j].AttemptID
	})

	rows := make([][]string, 0, len(failed))
	for _, s := range failed {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.Itoa(s.StageID),
			strconv.Itoa(s.AttemptID),
			s.Name,
			strconv.Itoa(s.NumTasks),
			truncateReason(s.FailureReason),
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// FailedJobs lists jobs whose result is not the success sentinel.
func FailedJobs(st *store.Store) Result {
	cols := []string{"appIndex", "jobId", "result", "failureReason"}

	var failed []*store.Job
	for _, j := range st.Jobs {
		if j.Result != store.JobResultSucceeded {
			failed = append(failed, j)
		}
	}
	if len(failed) == 0 {
		return NoData(cols...)
	}

	sort.Slice(failed, func(i, j int) bool { return failed[i].JobID < failed[j].JobID })

	rows := make([][]string, 0, len(failed))
	for _, j := range failed {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.Itoa(j.JobID),
			j.Result,
			truncateReason(j.FailureReason),
		})
	}
	return Result{Columns: cols, Rows: rows}
}

// UnsupportedNodes lists plan nodes the accelerated path cannot lower.
// Populated only when the session ran in accelerated mode.
func UnsupportedNodes(st *store.Store) Result {
	cols := []string{"appIndex", "sqlId", "nodeId", "nodeName", "nodeDescription"}

	var flags []*store.DiagnosticFlag
	for _, f := range st.Flags {
		if f.Kind == store.FlagUnsupportedNode {
			flags = append(flags, f)
		}
	}
	if len(flags) == 0 {
		return NoData(cols...)
	}

	sort.Slice(flags, func(i, j int) bool {
		if flags[i].SQLID != flags[j].SQLID {
			return flags[i].SQLID < flags[j].SQLID
		}
		return flags[i].NodeID < flags[j].NodeID
	})

	rows := make([][]string, 0, len(flags))
	for _, f := range flags {
		rows = append(rows, []string{
			strconv.Itoa(st.AppIndex),
			strconv.FormatInt(f.SQLID, 10),
			strconv.Itoa(f.NodeID),
			f.NodeName,
			f.Description,
		})
	}
	return Result{Columns: cols, Rows: rows}
}
