package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// Qualification is the per-application score computed by Summarize.
type Qualification struct {
	AppIndex int
	AppID    string
	AppName  string

	// Score is the SQL-dataframe share of total run time, 0–100,
	// rounded to two decimal places. Defined only when Scored is true.
	Score  float64
	Scored bool

	// SQLDataframeDuration is the summed qualifying duration of the
	// included SQL executions.
	SQLDataframeDuration int64

	AppDuration       int64
	DurationEstimated bool

	// PotentialProblems is the deduplicated, comma-joined summary of
	// problem reasons across included SQL executions.
	PotentialProblems string
}

// Summarize computes the qualification score for one application.
//
// A SQL execution is included only when every job referencing it
// succeeded; its qualifying duration is zero when the plan analyzer
// found a dataset-style operation, since that time would not translate
// to the accelerated path. SQL executions no job references count as
// included: there is no failed work to exclude them for.
func Summarize(st *store.Store) Qualification {
	q := Qualification{AppIndex: st.AppIndex}
	if st.App != nil {
		q.AppID = st.App.AppID
		q.AppName = st.App.AppName
		q.DurationEstimated = st.App.DurationEstimated
		if st.App.HasDuration {
			q.AppDuration = st.App.Duration
		}
	}

	excluded := make(map[int64]bool)
	for _, j := range st.Jobs {
		if j.SQLID != nil && j.Result != store.JobResultSucceeded {
			excluded[*j.SQLID] = true
		}
	}

	problems := make(map[string]struct{})
	for _, sq := range st.SQLs {
		if excluded[sq.SQLID] {
			continue
		}
		if !sq.HasDatasetOp && sq.HasDuration {
			q.SQLDataframeDuration += sq.Duration
		}
		for _, p := range sq.PotentialProblems {
			problems[p] = struct{}{}
		}
	}

	if len(problems) > 0 {
		keys := make([]string, 0, len(problems))
		for p := range problems {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		q.PotentialProblems = strings.Join(keys, ",")
	}

	if q.AppDuration > 0 {
		q.Score = round2(float64(q.SQLDataframeDuration) / float64(q.AppDuration) * 100)
		q.Scored = true
	}
	return q
}

// QualificationSummary renders the single qualification row for one
// application. Rows from multiple applications union by appIndex.
func QualificationSummary(st *store.Store) Result {
	cols := []string{
		"appIndex", "appName", "appId", "score",
		"sqlDataframeDuration", "appDuration", "durationEstimated", "potentialProblems",
	}
	if st.App == nil {
		return NoData(cols...)
	}

	q := Summarize(st)
	score := ""
	if q.Scored {
		score = strconv.FormatFloat(q.Score, 'f', 2, 64)
	}
	appDuration := ""
	if st.App.HasDuration {
		appDuration = strconv.FormatInt(q.AppDuration, 10)
	}

	return Result{
		Columns: cols,
		Rows: [][]string{{
			strconv.Itoa(q.AppIndex),
			q.AppName,
			q.AppID,
			score,
			strconv.FormatInt(q.SQLDataframeDuration, 10),
			appDuration,
			strconv.FormatBool(q.DurationEstimated),
			q.PotentialProblems,
		}},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
