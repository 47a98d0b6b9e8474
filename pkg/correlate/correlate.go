// Package correlate resolves start/end pairs after ingestion completes.
//
// Durations only exist when both a start and a resolved end are known.
// The application end may be estimated from the latest observed job or
// SQL activity when a truncated log never recorded an orderly shutdown.
package correlate

import (
	"github.com/sparkqual/sparkqual/pkg/store"
)

// Apply runs the derivation pass over a fully ingested store.
//
// It must complete before any read-side query executes. Calling it
// again on the same store recomputes the same values.
func Apply(st *store.Store) {
	applyJobs(st)
	applyStages(st)
	applySQLs(st)
	applyApplication(st)
}

func applyApplication(st *store.Store) {
	app := st.App
	if app == nil {
		return
	}

	if app.EndTime > 0 {
		app.Duration = app.EndTime - app.StartTime
		app.HasDuration = app.Duration >= 0
		app.DurationEstimated = false
		return
	}

	// No end event: fall back to the latest observed activity so an
	// almost-complete run does not report an unknown duration.
	est := int64(0)
	for _, j := range st.Jobs {
		if j.CompletionTime > est {
			est = j.CompletionTime
		}
	}
	for _, sq := range st.SQLs {
		if sq.EndTime > est {
			est = sq.EndTime
		}
	}
	if est == 0 {
		return
	}
	app.EndTime = est
	app.Duration = est - app.StartTime
	app.HasDuration = app.Duration >= 0
	app.DurationEstimated = true
}

func applyJobs(st *store.Store) {
	for _, j := range st.Jobs {
		if j.CompletionTime > 0 && j.CompletionTime >= j.SubmissionTime {
			j.Duration = j.CompletionTime - j.SubmissionTime
			j.HasDuration = true
		}
	}
}

func applyStages(st *store.Store) {
	for _, s := range st.Stages {
		if s.CompletionTime > 0 && s.CompletionTime >= s.SubmissionTime {
			s.Duration = s.CompletionTime - s.SubmissionTime
			s.HasDuration = true
		}
		s.RunTimeSum = 0
		s.CPUTimeSum = 0
	}
	for _, t := range st.Tasks {
		s := st.StageByKey(store.StageKey{StageID: t.StageID, AttemptID: t.StageAttemptID})
		if s == nil {
			continue
		}
		s.RunTimeSum += t.ExecutorRunTime
		s.CPUTimeSum += t.ExecutorCPUTime
	}
}

func applySQLs(st *store.Store) {
	for _, sq := range st.SQLs {
		if sq.EndTime > 0 && sq.EndTime >= sq.StartTime {
			sq.Duration = sq.EndTime - sq.StartTime
			sq.HasDuration = true
		}
	}
}
