package eventlog

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// Spark property carrying the owning SQL execution id on a job start.
const sqlExecutionIDProperty = "spark.sql.execution.id"

// Stats summarizes one ingestion pass.
type Stats struct {
	// Records is the count of successfully applied records.
	Records int

	// Skipped is the count of records dropped for parse failures.
	Skipped int

	// Unknown is the count of records routed to the other-events bucket.
	Unknown int
}

// Ingest drains the decoder into the store.
//
// Records are applied strictly in order: later correlation assumes a
// start event is seen before its matching end. A record that fails to
// parse is logged as a warning and skipped; ingestion never aborts on a
// single bad record. Unrecognized kinds land in the other-events bucket.
func Ingest(dec *Decoder, st *store.Store, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ing := &ingestor{st: st, logger: logger}

	var stats Stats
	for {
		rec, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var recErr *RecordError
			if errors.As(err, &recErr) {
				logger.Warn("Skipping unparseable event record",
					zap.Int("line", recErr.Line),
					zap.Error(recErr.Err))
				stats.Skipped++
				continue
			}
			return stats, err
		}

		switch applied := ing.apply(rec); applied {
		case applyOK:
			stats.Records++
		case applySkipped:
			stats.Skipped++
		case applyUnknown:
			stats.Unknown++
		}
	}

	// A version marker that arrived before the application start event
	// is carried over once the singleton exists.
	if st.App != nil && st.App.SparkVersion == "" {
		st.App.SparkVersion = ing.sparkVersion
	}

	return stats, nil
}

type applyResult int

const (
	applyOK applyResult = iota
	applySkipped
	applyUnknown
)

type ingestor struct {
	st           *store.Store
	logger       *zap.Logger
	sparkVersion string
}

func (ing *ingestor) apply(rec Record) applyResult {
	var err error
	switch rec.Kind {
	case KindLogStart:
		err = ing.onLogStart(rec.Raw)
	case KindApplicationStart:
		err = ing.onApplicationStart(rec.Raw)
	case KindApplicationEnd:
		err = ing.onApplicationEnd(rec.Raw)
	case KindExecutorAdded:
		err = ing.onExecutorAdded(rec.Raw)
	case KindExecutorRemoved:
		err = ing.onExecutorRemoved(rec.Raw)
	case KindBlockManagerAdded:
		err = ing.onBlockManagerAdded(rec.Raw)
	case KindBlockManagerRemoved:
		err = ing.onBlockManagerRemoved(rec.Raw)
	case KindResourceProfileAdded:
		err = ing.onResourceProfileAdded(rec.Raw)
	case KindEnvironmentUpdate:
		err = ing.onEnvironmentUpdate(rec.Raw)
	case KindJobStart:
		err = ing.onJobStart(rec.Raw)
	case KindJobEnd:
		err = ing.onJobEnd(rec.Raw)
	case KindStageSubmitted:
		err = ing.onStageSubmitted(rec.Raw)
	case KindStageCompleted:
		err = ing.onStageCompleted(rec.Raw)
	case KindTaskStart, KindTaskGettingResult:
		// Task rows are built from the end event, which carries the
		// final info block and the metric vector.
	case KindTaskEnd:
		err = ing.onTaskEnd(rec.Raw)
	case KindSQLExecutionStart:
		err = ing.onSQLExecutionStart(rec.Raw)
	case KindSQLExecutionEnd:
		err = ing.onSQLExecutionEnd(rec.Raw)
	case KindSQLAdaptiveUpdate:
		err = ing.onSQLAdaptiveUpdate(rec.Raw)
	case KindSQLAdaptiveMetricUpdates:
		err = ing.onSQLAdaptiveMetricUpdates(rec.Raw)
	case KindDriverAccumUpdates:
		err = ing.onDriverAccumUpdates(rec.Raw)
	default:
		ing.st.AddOtherEvent(&store.OtherEvent{Kind: rec.Kind, Raw: rec.Raw})
		return applyUnknown
	}

	if err != nil {
		ing.logger.Warn("Skipping malformed event record",
			zap.String("kind", rec.Kind),
			zap.Error(err))
		return applySkipped
	}
	return applyOK
}

func (ing *ingestor) onLogStart(raw json.RawMessage) error {
	var ev LogStart
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.sparkVersion = ev.SparkVersion
	if ing.st.App != nil {
		ing.st.App.SparkVersion = ev.SparkVersion
	}
	return nil
}

func (ing *ingestor) onApplicationStart(raw json.RawMessage) error {
	var ev ApplicationStart
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.App = &store.Application{
		AppName:      ev.AppName,
		AppID:        ev.AppID,
		User:         ev.User,
		SparkVersion: ing.sparkVersion,
		StartTime:    ev.Timestamp,
	}
	return nil
}

func (ing *ingestor) onApplicationEnd(raw json.RawMessage) error {
	var ev ApplicationEnd
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	if ing.st.App == nil {
		return errors.New("application end before application start")
	}
	ing.st.App.EndTime = ev.Timestamp
	return nil
}

func (ing *ingestor) onExecutorAdded(raw json.RawMessage) error {
	var ev ExecutorAdded
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.AddExecutor(&store.Executor{
		ExecutorID:        ev.ExecutorID,
		Host:              ev.Info.Host,
		TotalCores:        ev.Info.TotalCores,
		ResourceProfileID: ev.Info.ResourceProfileID,
		AddedTime:         ev.Timestamp,
	})
	return nil
}

func (ing *ingestor) onExecutorRemoved(raw json.RawMessage) error {
	var ev ExecutorRemoved
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.AddExecutorRemoval(&store.ExecutorRemoval{
		ExecutorID: ev.ExecutorID,
		Time:       ev.Timestamp,
		Reason:     ev.Reason,
	})
	return nil
}

func (ing *ingestor) onBlockManagerAdded(raw json.RawMessage) error {
	var ev BlockManagerAdded
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.AddBlockManager(&store.BlockManager{
		ExecutorID:    ev.ID.ExecutorID,
		Host:          ev.ID.Host,
		Port:          ev.ID.Port,
		MaxMem:        ev.MaxMem,
		MaxOnHeapMem:  ev.MaxOnHeapMem,
		MaxOffHeapMem: ev.MaxOffHeapMem,
		AddedTime:     ev.Timestamp,
	})
	return nil
}

func (ing *ingestor) onBlockManagerRemoved(raw json.RawMessage) error {
	var ev BlockManagerRemoved
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.AddBlockManagerRemoval(&store.BlockManagerRemoval{
		ExecutorID: ev.ID.ExecutorID,
		Time:       ev.Timestamp,
	})
	return nil
}

func (ing *ingestor) onResourceProfileAdded(raw json.RawMessage) error {
	var ev ResourceProfileAdded
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	rp := &store.ResourceProfile{ProfileID: ev.ProfileID}
	if r, ok := ev.ExecutorResources["cores"]; ok {
		rp.ExecutorCores = r.Amount
	}
	if r, ok := ev.ExecutorResources["memory"]; ok {
		rp.ExecutorMemory = r.Amount
	}
	if r, ok := ev.ExecutorResources["gpu"]; ok {
		rp.ExecutorGPUs = r.Amount
	}
	if r, ok := ev.ExecutorResources["offHeap"]; ok {
		rp.ExecutorOffHeap = r.Amount
	}
	if r, ok := ev.TaskResources["cpus"]; ok {
		rp.TaskCPUs = r.Amount
	}
	if r, ok := ev.TaskResources["gpu"]; ok {
		rp.TaskGPUs = r.Amount
	}
	ing.st.AddResourceProfile(rp)
	return nil
}

func (ing *ingestor) onEnvironmentUpdate(raw json.RawMessage) error {
	var ev EnvironmentUpdate
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.addProperties(store.SourceEngineConfig, ev.SparkProperties)
	ing.addProperties(store.SourcePlatformConfig, ev.HadoopProperties)
	ing.addProperties(store.SourceSystem, ev.SystemProperties)
	ing.addProperties(store.SourceRuntime, ev.JVMInformation)
	ing.addProperties(store.SourceClasspath, ev.ClasspathEntries)
	return nil
}

// addProperties records a property map in sorted key order so the store
// stays deterministic regardless of map iteration.
func (ing *ingestor) addProperties(source string, props map[string]string) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ing.st.AddProperty(&store.Property{Source: source, Key: k, Value: props[k]})
	}
}

func (ing *ingestor) onJobStart(raw json.RawMessage) error {
	var ev JobStart
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	j := &store.Job{
		JobID:          ev.JobID,
		SubmissionTime: ev.SubmissionTime,
		StageIDs:       ev.StageIDs,
	}
	if v, ok := ev.Properties[sqlExecutionIDProperty]; ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		j.SQLID = &id
	}
	ing.st.AddJob(j)
	return nil
}

func (ing *ingestor) onJobEnd(raw json.RawMessage) error {
	var ev JobEnd
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	j := ing.st.JobByID(ev.JobID)
	if j == nil {
		return errors.New("job end for unknown job " + strconv.Itoa(ev.JobID))
	}
	j.CompletionTime = ev.CompletionTime
	j.Result = ev.Result.Result
	if j.Result != store.JobResultSucceeded {
		j.FailureReason = j.Result
	}
	return nil
}

func (ing *ingestor) onStageSubmitted(raw json.RawMessage) error {
	var ev StageSubmitted
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	ing.st.AddStage(&store.Stage{
		StageID:        ev.Info.StageID,
		AttemptID:      ev.Info.AttemptID,
		Name:           ev.Info.Name,
		NumTasks:       ev.Info.NumTasks,
		SubmissionTime: ev.Info.SubmissionTime,
	})
	return nil
}

func (ing *ingestor) onStageCompleted(raw json.RawMessage) error {
	var ev StageCompleted
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	key := store.StageKey{StageID: ev.Info.StageID, AttemptID: ev.Info.AttemptID}
	st := ing.st.StageByKey(key)
	if st == nil {
		// A truncated log can open mid-run; keep the completion anyway.
		st = &store.Stage{
			StageID:   ev.Info.StageID,
			AttemptID: ev.Info.AttemptID,
			Name:      ev.Info.Name,
			NumTasks:  ev.Info.NumTasks,
		}
		ing.st.AddStage(st)
	}
	if st.SubmissionTime == 0 {
		st.SubmissionTime = ev.Info.SubmissionTime
	}
	st.CompletionTime = ev.Info.CompletionTime
	st.FailureReason = ev.Info.FailureReason
	return nil
}

func (ing *ingestor) onTaskEnd(raw json.RawMessage) error {
	var ev TaskEnd
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	m := ev.Metrics
	t := &store.Task{
		StageID:        ev.StageID,
		StageAttemptID: ev.StageAttemptID,
		TaskID:         ev.Info.TaskID,
		Attempt:        ev.Info.Attempt,
		LaunchTime:     ev.Info.LaunchTime,
		FinishTime:     ev.Info.FinishTime,
		Duration:       ev.Info.FinishTime - ev.Info.LaunchTime,
		Successful:     !ev.Info.Failed && !ev.Info.Killed,
		EndReason:      endReasonText(ev.EndReason),
		TaskType:       ev.TaskType,
		ExecutorID:     ev.Info.ExecutorID,
		Host:           ev.Info.Host,

		GettingResultTime:          ev.Info.GettingResultTime,
		ExecutorDeserializeTime:    m.ExecutorDeserializeTime,
		ExecutorDeserializeCPUTime: m.ExecutorDeserializeCPUTime,
		ExecutorRunTime:            m.ExecutorRunTime,
		ExecutorCPUTime:            m.ExecutorCPUTime,
		PeakExecutionMemory:        m.PeakExecutionMemory,
		ResultSize:                 m.ResultSize,
		JVMGCTime:                  m.JVMGCTime,
		ResultSerializationTime:    m.ResultSerializationTime,
		MemoryBytesSpilled:         m.MemoryBytesSpilled,
		DiskBytesSpilled:           m.DiskBytesSpilled,

		SRRemoteBlocksFetched:   m.ShuffleRead.RemoteBlocksFetched,
		SRLocalBlocksFetched:    m.ShuffleRead.LocalBlocksFetched,
		SRFetchWaitTime:         m.ShuffleRead.FetchWaitTime,
		SRRemoteBytesRead:       m.ShuffleRead.RemoteBytesRead,
		SRRemoteBytesReadToDisk: m.ShuffleRead.RemoteBytesReadToDisk,
		SRLocalBytesRead:        m.ShuffleRead.LocalBytesRead,
		SRTotalBytesRead:        m.ShuffleRead.RemoteBytesRead + m.ShuffleRead.LocalBytesRead,
		SRTotalRecordsRead:      m.ShuffleRead.TotalRecordsRead,

		SWBytesWritten:   m.ShuffleWrite.BytesWritten,
		SWWriteTime:      m.ShuffleWrite.WriteTime,
		SWRecordsWritten: m.ShuffleWrite.RecordsWritten,

		InputBytesRead:       m.Input.BytesRead,
		InputRecordsRead:     m.Input.RecordsRead,
		OutputBytesWritten:   m.Output.BytesWritten,
		OutputRecordsWritten: m.Output.RecordsWritten,
	}
	ing.st.AddTask(t)
	return nil
}

func endReasonText(r TaskEndReason) string {
	switch {
	case r.Message != "":
		return r.Reason + ": " + r.Message
	case r.Description != "":
		return r.Reason + ": " + r.Description
	default:
		return r.Reason
	}
}

func (ing *ingestor) onSQLExecutionStart(raw json.RawMessage) error {
	var ev SQLExecutionStart
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	sq := &store.SQLExecution{
		SQLID:                   ev.ExecutionID,
		Description:             ev.Description,
		Details:                 ev.Details,
		PhysicalPlanDescription: ev.PhysicalPlanDescription,
		StartTime:               ev.Time,
	}
	sq.Plan = buildPlanTree(ev.SparkPlanInfo)
	ing.st.AddSQL(sq)
	ing.recordPlanMetrics(sq.SQLID, &sq.Plan)
	return nil
}

func (ing *ingestor) onSQLExecutionEnd(raw json.RawMessage) error {
	var ev SQLExecutionEnd
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	sq := ing.st.SQLByID(ev.ExecutionID)
	if sq == nil {
		return errors.New("sql execution end for unknown execution " + strconv.FormatInt(ev.ExecutionID, 10))
	}
	sq.EndTime = ev.Time
	return nil
}

func (ing *ingestor) onSQLAdaptiveUpdate(raw json.RawMessage) error {
	var ev SQLAdaptiveUpdate
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	sq := ing.st.SQLByID(ev.ExecutionID)
	if sq == nil {
		return errors.New("adaptive update for unknown execution " + strconv.FormatInt(ev.ExecutionID, 10))
	}
	sq.PhysicalPlanDescription = ev.PhysicalPlanDescription
	sq.Plan = buildPlanTree(ev.SparkPlanInfo)

	// The adaptive plan supersedes the original; rebuild its metric links.
	kept := ing.st.PlanMetrics[:0]
	for _, pm := range ing.st.PlanMetrics {
		if pm.SQLID != sq.SQLID {
			kept = append(kept, pm)
		}
	}
	ing.st.PlanMetrics = kept
	ing.recordPlanMetrics(sq.SQLID, &sq.Plan)
	return nil
}

func (ing *ingestor) onSQLAdaptiveMetricUpdates(raw json.RawMessage) error {
	var ev SQLAdaptiveMetricUpdates
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	sq := ing.st.SQLByID(ev.ExecutionID)
	if sq == nil {
		return errors.New("adaptive metric update for unknown execution " + strconv.FormatInt(ev.ExecutionID, 10))
	}

	linked := make(map[int64]bool)
	for _, pm := range ing.st.PlanMetrics {
		if pm.SQLID == sq.SQLID {
			linked[pm.AccumulatorID] = true
		}
	}

	// The updates name no plan node, so new metrics describe the
	// adaptive plan as a whole and attach to its root.
	for _, m := range ev.Metrics {
		if linked[m.AccumulatorID] {
			continue
		}
		ing.st.AddPlanMetric(&store.PlanMetric{
			SQLID:         sq.SQLID,
			NodeID:        sq.Plan.NodeID,
			NodeName:      sq.Plan.NodeName,
			AccumulatorID: m.AccumulatorID,
			MetricName:    m.Name,
			MetricType:    m.MetricType,
		})
	}
	return nil
}

func (ing *ingestor) onDriverAccumUpdates(raw json.RawMessage) error {
	var ev DriverAccumUpdates
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	for _, u := range ev.Updates {
		ing.st.AddAccumValue(&store.AccumValue{
			SQLID:         ev.ExecutionID,
			AccumulatorID: u.AccumulatorID,
			Value:         u.Value,
		})
	}
	return nil
}

// buildPlanTree converts the wire plan into store nodes with ids assigned
// depth-first from the root, so repeated analysis is stable.
func buildPlanTree(info PlanInfo) store.PlanNode {
	next := 0
	return buildPlanNode(info, &next)
}

func buildPlanNode(info PlanInfo, next *int) store.PlanNode {
	n := store.PlanNode{
		NodeID:       *next,
		NodeName:     info.NodeName,
		SimpleString: info.SimpleString,
	}
	*next++
	for _, m := range info.Metrics {
		n.Metrics = append(n.Metrics, store.PlanNodeMetric{
			Name:          m.Name,
			AccumulatorID: m.AccumulatorID,
			MetricType:    m.MetricType,
		})
	}
	for _, c := range info.Children {
		n.Children = append(n.Children, buildPlanNode(c, next))
	}
	return n
}

func (ing *ingestor) recordPlanMetrics(sqlID int64, node *store.PlanNode) {
	for _, m := range node.Metrics {
		ing.st.AddPlanMetric(&store.PlanMetric{
			SQLID:         sqlID,
			NodeID:        node.NodeID,
			NodeName:      node.NodeName,
			AccumulatorID: m.AccumulatorID,
			MetricName:    m.Name,
			MetricType:    m.MetricType,
		})
	}
	for i := range node.Children {
		ing.recordPlanMetrics(sqlID, &node.Children[i])
	}
}
