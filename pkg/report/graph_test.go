package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

func TestPlanDescriptions(t *testing.T) {
	st := store.New(0, false)
	st.AddSQL(&store.SQLExecution{SQLID: 0, PhysicalPlanDescription: "== Physical Plan ==\nScan"})
	st.AddSQL(&store.SQLExecution{SQLID: 3, PhysicalPlanDescription: "== Physical Plan ==\nProject"})

	descs := PlanDescriptions(st)
	require.Len(t, descs, 2)
	assert.Contains(t, descs[3], "Project")
}

func TestPlanGraphDOT(t *testing.T) {
	st := store.New(0, false)
	st.AddSQL(&store.SQLExecution{
		SQLID: 1,
		Plan: store.PlanNode{
			NodeID:   0,
			NodeName: "Project",
			Children: []store.PlanNode{{
				NodeID:   1,
				NodeName: `Scan parquet "events"`,
				Metrics: []store.PlanNodeMetric{
					{Name: "number of output rows", AccumulatorID: 7},
					{Name: "scan time", AccumulatorID: 8},
				},
			}},
		},
	})
	st.AddAccumValue(&store.AccumValue{SQLID: 1, AccumulatorID: 7, Value: 42})
	// Accumulator 8 never got a driver update and stays off the label.
	st.AddAccumValue(&store.AccumValue{SQLID: 2, AccumulatorID: 9, Value: 99})

	dot := PlanGraphDOT(st, 1)
	assert.True(t, strings.HasPrefix(dot, `digraph "plan_sql_1" {`))
	assert.Contains(t, dot, "n0 -> n1;")
	assert.Contains(t, dot, `number of output rows: 42`)
	assert.NotContains(t, dot, "scan time")
	assert.NotContains(t, dot, "99")
	// Quotes in node names must not break the label syntax.
	assert.Contains(t, dot, `Scan parquet \"events\"`)
}

func TestPlanGraphDOTUnknownSQL(t *testing.T) {
	assert.Equal(t, "", PlanGraphDOT(store.New(0, false), 5))
}
