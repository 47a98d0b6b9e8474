package eventlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkqual/sparkqual/pkg/store"
)

func ingestLines(t *testing.T, lines ...string) (*store.Store, Stats) {
	t.Helper()
	st := store.New(0, false)
	dec := NewDecoder(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	stats, err := Ingest(dec, st, nil)
	require.NoError(t, err)
	return st, stats
}

func TestIngestLifecycle(t *testing.T) {
	st, stats := ingestLines(t,
		`{"Event":"SparkListenerLogStart","Spark Version":"3.1.1"}`,
		`{"Event":"SparkListenerApplicationStart","App Name":"etl","App ID":"app-1","Timestamp":1000,"User":"alice"}`,
		`{"Event":"SparkListenerExecutorAdded","Timestamp":1010,"Executor ID":"1","Executor Info":{"Host":"worker-1","Total Cores":8,"Resource Profile Id":0}}`,
		`{"Event":"SparkListenerBlockManagerAdded","Block Manager ID":{"Executor ID":"1","Host":"worker-1","Port":7337},"Maximum Memory":1024,"Timestamp":1011,"Maximum Onheap Memory":768,"Maximum Offheap Memory":256}`,
		`{"Event":"SparkListenerJobStart","Job ID":0,"Submission Time":1100,"Stage IDs":[0,1],"Properties":{"spark.sql.execution.id":"3"}}`,
		`{"Event":"SparkListenerStageSubmitted","Stage Info":{"Stage ID":0,"Stage Attempt ID":0,"Stage Name":"map","Number of Tasks":2,"Submission Time":1110}}`,
		`{"Event":"SparkListenerTaskEnd","Stage ID":0,"Stage Attempt ID":0,"Task Type":"ResultTask","Task End Reason":{"Reason":"Success"},"Task Info":{"Task ID":7,"Attempt":0,"Launch Time":1120,"Finish Time":1140,"Executor ID":"1","Host":"worker-1"},"Task Metrics":{"Executor Run Time":15,"Executor CPU Time":9,"Shuffle Read Metrics":{"Remote Bytes Read":10,"Local Bytes Read":5}}}`,
		`{"Event":"SparkListenerStageCompleted","Stage Info":{"Stage ID":0,"Stage Attempt ID":0,"Submission Time":1110,"Completion Time":1150}}`,
		`{"Event":"SparkListenerJobEnd","Job ID":0,"Completion Time":1200,"Job Result":{"Result":"JobSucceeded"}}`,
		`{"Event":"SparkListenerApplicationEnd","Timestamp":2000}`,
	)

	assert.Equal(t, 10, stats.Records)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Unknown)

	require.NotNil(t, st.App)
	assert.Equal(t, "app-1", st.App.AppID)
	assert.Equal(t, "3.1.1", st.App.SparkVersion)
	assert.Equal(t, int64(1000), st.App.StartTime)
	assert.Equal(t, int64(2000), st.App.EndTime)

	require.Len(t, st.Executors, 1)
	assert.Equal(t, 8, st.Executors[0].TotalCores)
	require.Len(t, st.BlockManagers, 1)
	assert.Equal(t, int64(1024), st.BlockManagers[0].MaxMem)

	j := st.JobByID(0)
	require.NotNil(t, j)
	assert.Equal(t, []int{0, 1}, j.StageIDs)
	require.NotNil(t, j.SQLID)
	assert.Equal(t, int64(3), *j.SQLID)
	assert.Equal(t, store.JobResultSucceeded, j.Result)

	s := st.StageByKey(store.StageKey{StageID: 0, AttemptID: 0})
	require.NotNil(t, s)
	assert.Equal(t, int64(1150), s.CompletionTime)

	require.Len(t, st.Tasks, 1)
	task := st.Tasks[0]
	assert.Equal(t, int64(7), task.TaskID)
	assert.True(t, task.Successful)
	assert.Equal(t, int64(20), task.Duration)
	assert.Equal(t, int64(15), task.ExecutorRunTime)
	assert.Equal(t, int64(15), task.SRTotalBytesRead)
}

func TestIngestUnknownKind(t *testing.T) {
	// An unrecognized kind lands in the other-events bucket and does
	// not disturb correlation of subsequent known events.
	st, stats := ingestLines(t,
		`{"Event":"SparkListenerApplicationStart","App Name":"etl","App ID":"app-1","Timestamp":1000,"User":"alice"}`,
		`{"Event":"SparkListenerFutureFeature","Payload":{"x":1}}`,
		`{"Event":"SparkListenerApplicationEnd","Timestamp":1500}`,
	)

	assert.Equal(t, 1, stats.Unknown)
	require.Len(t, st.OtherEvents, 1)
	assert.Equal(t, "SparkListenerFutureFeature", st.OtherEvents[0].Kind)
	assert.Equal(t, int64(1500), st.App.EndTime)
}

func TestIngestSkipsMalformedRecord(t *testing.T) {
	st, stats := ingestLines(t,
		`{"Event":"SparkListenerApplicationStart","App Name":"etl","App ID":"app-1","Timestamp":1000,"User":"alice"}`,
		`{"Event":"SparkListenerJobStart","Job ID":"not-a-number"}`,
		`{"Event":"SparkListenerJobStart","Job ID":1,"Submission Time":1100,"Stage IDs":[4]}`,
	)

	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, st.Jobs, 1)
	assert.Equal(t, 1, st.Jobs[0].JobID)
}

func TestIngestTaskFailure(t *testing.T) {
	st, _ := ingestLines(t,
		`{"Event":"SparkListenerTaskEnd","Stage ID":2,"Stage Attempt ID":0,"Task End Reason":{"Reason":"ExceptionFailure","Message":"boom"},"Task Info":{"Task ID":9,"Attempt":1,"Launch Time":10,"Finish Time":30,"Failed":true}}`,
	)

	require.Len(t, st.Tasks, 1)
	task := st.Tasks[0]
	assert.False(t, task.Successful)
	assert.Equal(t, "ExceptionFailure: boom", task.EndReason)
}

func TestIngestSQLExecution(t *testing.T) {
	st, _ := ingestLines(t,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionStart","executionId":3,"description":"select","physicalPlanDescription":"== Physical Plan ==","sparkPlanInfo":{"nodeName":"Project","simpleString":"Project [a]","children":[{"nodeName":"Scan","simpleString":"FileScan parquet","children":[],"metrics":[{"name":"number of output rows","accumulatorId":42,"metricType":"sum"}]}],"metrics":[]},"time":500}`,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerDriverAccumUpdates","executionId":3,"accumUpdates":[[42,12345]]}`,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionEnd","executionId":3,"time":900}`,
	)

	sq := st.SQLByID(3)
	require.NotNil(t, sq)
	assert.Equal(t, int64(500), sq.StartTime)
	assert.Equal(t, int64(900), sq.EndTime)

	// Ids assign depth-first from the root.
	assert.Equal(t, 0, sq.Plan.NodeID)
	require.Len(t, sq.Plan.Children, 1)
	assert.Equal(t, 1, sq.Plan.Children[0].NodeID)

	require.Len(t, st.PlanMetrics, 1)
	pm := st.PlanMetrics[0]
	assert.Equal(t, int64(3), pm.SQLID)
	assert.Equal(t, 1, pm.NodeID)
	assert.Equal(t, "Scan", pm.NodeName)
	assert.Equal(t, int64(42), pm.AccumulatorID)

	require.Len(t, st.AccumValues, 1)
	assert.Equal(t, int64(12345), st.AccumValues[0].Value)
}

func TestIngestAdaptivePlanUpdate(t *testing.T) {
	st, _ := ingestLines(t,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionStart","executionId":1,"description":"q","sparkPlanInfo":{"nodeName":"Old","simpleString":"Old","children":[],"metrics":[{"name":"rows","accumulatorId":1,"metricType":"sum"}]},"time":10}`,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLAdaptiveExecutionUpdate","executionId":1,"physicalPlanDescription":"new plan","sparkPlanInfo":{"nodeName":"New","simpleString":"New","children":[],"metrics":[{"name":"rows","accumulatorId":2,"metricType":"sum"}]}}`,
	)

	sq := st.SQLByID(1)
	require.NotNil(t, sq)
	assert.Equal(t, "New", sq.Plan.NodeName)
	assert.Equal(t, "new plan", sq.PhysicalPlanDescription)

	// The adaptive plan supersedes the original metric links.
	require.Len(t, st.PlanMetrics, 1)
	assert.Equal(t, int64(2), st.PlanMetrics[0].AccumulatorID)
}

func TestIngestAdaptiveMetricUpdates(t *testing.T) {
	st, stats := ingestLines(t,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionStart","executionId":1,"description":"q","sparkPlanInfo":{"nodeName":"AdaptiveSparkPlan","simpleString":"AdaptiveSparkPlan","children":[],"metrics":[{"name":"rows","accumulatorId":1,"metricType":"sum"}]},"time":10}`,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLAdaptiveSQLMetricUpdates","executionId":1,"sqlPlanMetrics":[{"name":"rows","accumulatorId":1,"metricType":"sum"},{"name":"shuffle records written","accumulatorId":7,"metricType":"sum"}]}`,
	)

	assert.Equal(t, 2, stats.Records)
	assert.Zero(t, stats.Unknown)

	// Accumulator 1 was already linked; only 7 is new, attached to the
	// plan root since the update names no node.
	require.Len(t, st.PlanMetrics, 2)
	added := st.PlanMetrics[1]
	assert.Equal(t, int64(7), added.AccumulatorID)
	assert.Equal(t, 0, added.NodeID)
	assert.Equal(t, "AdaptiveSparkPlan", added.NodeName)
	assert.Equal(t, "shuffle records written", added.MetricName)
}

func TestIngestAdaptiveMetricUpdatesUnknownExecution(t *testing.T) {
	_, stats := ingestLines(t,
		`{"Event":"org.apache.spark.sql.execution.ui.SparkListenerSQLAdaptiveSQLMetricUpdates","executionId":9,"sqlPlanMetrics":[{"name":"rows","accumulatorId":1,"metricType":"sum"}]}`,
	)

	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Unknown)
}

func TestIngestEnvironmentProperties(t *testing.T) {
	st, _ := ingestLines(t,
		`{"Event":"SparkListenerEnvironmentUpdate","Spark Properties":{"spark.b":"2","spark.a":"1"},"System Properties":{"os.name":"Linux"},"JVM Information":{"Java Version":"11"},"Classpath Entries":{"/jars/x.jar":"System"}}`,
	)

	require.Len(t, st.Properties, 5)
	// Within a source, keys are recorded in sorted order.
	assert.Equal(t, store.SourceEngineConfig, st.Properties[0].Source)
	assert.Equal(t, "spark.a", st.Properties[0].Key)
	assert.Equal(t, "spark.b", st.Properties[1].Key)
	assert.Equal(t, store.SourceSystem, st.Properties[3].Source)
}

func TestIngestResourceProfile(t *testing.T) {
	st, _ := ingestLines(t,
		`{"Event":"SparkListenerResourceProfileAdded","Resource Profile Id":1,"Executor Resource Requests":{"cores":{"Resource Name":"cores","Amount":16},"memory":{"Resource Name":"memory","Amount":32768},"gpu":{"Resource Name":"gpu","Amount":2}},"Task Resource Requests":{"cpus":{"Resource Name":"cpus","Amount":1},"gpu":{"Resource Name":"gpu","Amount":0.5}}}`,
	)

	rp := st.ResourceProfileByID(1)
	require.NotNil(t, rp)
	assert.Equal(t, float64(16), rp.ExecutorCores)
	assert.Equal(t, float64(2), rp.ExecutorGPUs)
	assert.Equal(t, 0.5, rp.TaskGPUs)
}
