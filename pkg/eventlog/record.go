// Package eventlog decodes Spark event logs into typed records.
//
// An event log is newline-delimited JSON. Each line is a self-contained
// event object carrying an "Event" discriminant that selects the payload
// shape. The decoder surfaces each line as a raw envelope; typed parsing
// happens per kind so that one malformed record never aborts a scan.
package eventlog

import (
	"encoding/json"
)

// Event kind discriminants as written by the Spark listener bus.
const (
	KindLogStart             = "SparkListenerLogStart"
	KindApplicationStart     = "SparkListenerApplicationStart"
	KindApplicationEnd       = "SparkListenerApplicationEnd"
	KindExecutorAdded        = "SparkListenerExecutorAdded"
	KindExecutorRemoved      = "SparkListenerExecutorRemoved"
	KindBlockManagerAdded    = "SparkListenerBlockManagerAdded"
	KindBlockManagerRemoved  = "SparkListenerBlockManagerRemoved"
	KindResourceProfileAdded = "SparkListenerResourceProfileAdded"
	KindEnvironmentUpdate    = "SparkListenerEnvironmentUpdate"
	KindJobStart             = "SparkListenerJobStart"
	KindJobEnd               = "SparkListenerJobEnd"
	KindStageSubmitted       = "SparkListenerStageSubmitted"
	KindStageCompleted       = "SparkListenerStageCompleted"
	KindTaskStart            = "SparkListenerTaskStart"
	KindTaskGettingResult    = "SparkListenerTaskGettingResult"
	KindTaskEnd              = "SparkListenerTaskEnd"

	KindSQLExecutionStart        = "org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionStart"
	KindSQLExecutionEnd          = "org.apache.spark.sql.execution.ui.SparkListenerSQLExecutionEnd"
	KindSQLAdaptiveUpdate        = "org.apache.spark.sql.execution.ui.SparkListenerSQLAdaptiveExecutionUpdate"
	KindDriverAccumUpdates       = "org.apache.spark.sql.execution.ui.SparkListenerDriverAccumUpdates"
	KindSQLAdaptiveMetricUpdates = "org.apache.spark.sql.execution.ui.SparkListenerSQLAdaptiveSQLMetricUpdates"
)

// Record is the envelope for one event-log line.
//
// Kind is the discriminant; Raw is the full line so a handler can decode
// the payload shape it expects.
type Record struct {
	Kind string
	Raw  json.RawMessage
}

// envelope extracts only the discriminant from a line.
type envelope struct {
	Event string `json:"Event"`
}

// LogStart marks the engine version that wrote the log.
type LogStart struct {
	SparkVersion string `json:"Spark Version"`
}

// ApplicationStart opens an application's lifecycle.
type ApplicationStart struct {
	AppName   string `json:"App Name"`
	AppID     string `json:"App ID"`
	Timestamp int64  `json:"Timestamp"`
	User      string `json:"User"`
}

// ApplicationEnd closes an application's lifecycle.
type ApplicationEnd struct {
	Timestamp int64 `json:"Timestamp"`
}

// ExecutorInfo is the nested executor description on ExecutorAdded.
type ExecutorInfo struct {
	Host              string `json:"Host"`
	TotalCores        int    `json:"Total Cores"`
	ResourceProfileID int    `json:"Resource Profile Id"`
}

type ExecutorAdded struct {
	Timestamp  int64        `json:"Timestamp"`
	ExecutorID string       `json:"Executor ID"`
	Info       ExecutorInfo `json:"Executor Info"`
}

type ExecutorRemoved struct {
	Timestamp  int64  `json:"Timestamp"`
	ExecutorID string `json:"Executor ID"`
	Reason     string `json:"Removed Reason"`
}

// BlockManagerID identifies a block manager by its owning executor.
type BlockManagerID struct {
	ExecutorID string `json:"Executor ID"`
	Host       string `json:"Host"`
	Port       int    `json:"Port"`
}

type BlockManagerAdded struct {
	ID            BlockManagerID `json:"Block Manager ID"`
	MaxMem        int64          `json:"Maximum Memory"`
	Timestamp     int64          `json:"Timestamp"`
	MaxOnHeapMem  int64          `json:"Maximum Onheap Memory"`
	MaxOffHeapMem int64          `json:"Maximum Offheap Memory"`
}

type BlockManagerRemoved struct {
	ID        BlockManagerID `json:"Block Manager ID"`
	Timestamp int64          `json:"Timestamp"`
}

// ResourceRequest is one resource demand inside a resource profile.
type ResourceRequest struct {
	ResourceName string  `json:"Resource Name"`
	Amount       float64 `json:"Amount"`
}

type ResourceProfileAdded struct {
	ProfileID         int                        `json:"Resource Profile Id"`
	ExecutorResources map[string]ResourceRequest `json:"Executor Resource Requests"`
	TaskResources     map[string]ResourceRequest `json:"Task Resource Requests"`
}

// EnvironmentUpdate carries the property maps captured at startup.
type EnvironmentUpdate struct {
	JVMInformation   map[string]string `json:"JVM Information"`
	SparkProperties  map[string]string `json:"Spark Properties"`
	HadoopProperties map[string]string `json:"Hadoop Properties"`
	SystemProperties map[string]string `json:"System Properties"`
	ClasspathEntries map[string]string `json:"Classpath Entries"`
}

type JobStart struct {
	JobID          int               `json:"Job ID"`
	SubmissionTime int64             `json:"Submission Time"`
	StageIDs       []int             `json:"Stage IDs"`
	Properties     map[string]string `json:"Properties"`
}

// JobResult wraps the terminal state of a job.
type JobResult struct {
	Result string `json:"Result"`
}

type JobEnd struct {
	JobID          int       `json:"Job ID"`
	CompletionTime int64     `json:"Completion Time"`
	Result         JobResult `json:"Job Result"`
}

// StageInfo is the nested stage description shared by submit/complete events.
type StageInfo struct {
	StageID        int    `json:"Stage ID"`
	AttemptID      int    `json:"Stage Attempt ID"`
	Name           string `json:"Stage Name"`
	NumTasks       int    `json:"Number of Tasks"`
	ParentIDs      []int  `json:"Parent IDs"`
	Details        string `json:"Details"`
	SubmissionTime int64  `json:"Submission Time"`
	CompletionTime int64  `json:"Completion Time"`
	FailureReason  string `json:"Failure Reason"`
}

type StageSubmitted struct {
	Info StageInfo `json:"Stage Info"`
}

type StageCompleted struct {
	Info StageInfo `json:"Stage Info"`
}

// TaskInfo is the nested task description shared by task lifecycle events.
type TaskInfo struct {
	TaskID            int64  `json:"Task ID"`
	Index             int    `json:"Index"`
	Attempt           int    `json:"Attempt"`
	LaunchTime        int64  `json:"Launch Time"`
	ExecutorID        string `json:"Executor ID"`
	Host              string `json:"Host"`
	GettingResultTime int64  `json:"Getting Result Time"`
	FinishTime        int64  `json:"Finish Time"`
	Failed            bool   `json:"Failed"`
	Killed            bool   `json:"Killed"`
}

type TaskStart struct {
	StageID        int      `json:"Stage ID"`
	StageAttemptID int      `json:"Stage Attempt ID"`
	Info           TaskInfo `json:"Task Info"`
}

type TaskGettingResult struct {
	Info TaskInfo `json:"Task Info"`
}

// TaskEndReason describes how a task finished.
type TaskEndReason struct {
	Reason      string `json:"Reason"`
	Message     string `json:"Message"`
	Description string `json:"Description"`
}

// ShuffleReadMetrics mirrors the shuffle-read block of Task Metrics.
type ShuffleReadMetrics struct {
	RemoteBlocksFetched   int64 `json:"Remote Blocks Fetched"`
	LocalBlocksFetched    int64 `json:"Local Blocks Fetched"`
	FetchWaitTime         int64 `json:"Fetch Wait Time"`
	RemoteBytesRead       int64 `json:"Remote Bytes Read"`
	RemoteBytesReadToDisk int64 `json:"Remote Bytes Read To Disk"`
	LocalBytesRead        int64 `json:"Local Bytes Read"`
	TotalRecordsRead      int64 `json:"Total Records Read"`
}

// ShuffleWriteMetrics mirrors the shuffle-write block of Task Metrics.
type ShuffleWriteMetrics struct {
	BytesWritten   int64 `json:"Shuffle Bytes Written"`
	WriteTime      int64 `json:"Shuffle Write Time"`
	RecordsWritten int64 `json:"Shuffle Records Written"`
}

type InputMetrics struct {
	BytesRead   int64 `json:"Bytes Read"`
	RecordsRead int64 `json:"Records Read"`
}

type OutputMetrics struct {
	BytesWritten   int64 `json:"Bytes Written"`
	RecordsWritten int64 `json:"Records Written"`
}

// TaskMetrics is the full metric vector attached to a TaskEnd event.
type TaskMetrics struct {
	ExecutorDeserializeTime    int64               `json:"Executor Deserialize Time"`
	ExecutorDeserializeCPUTime int64               `json:"Executor Deserialize CPU Time"`
	ExecutorRunTime            int64               `json:"Executor Run Time"`
	ExecutorCPUTime            int64               `json:"Executor CPU Time"`
	PeakExecutionMemory        int64               `json:"Peak Execution Memory"`
	ResultSize                 int64               `json:"Result Size"`
	JVMGCTime                  int64               `json:"JVM GC Time"`
	ResultSerializationTime    int64               `json:"Result Serialization Time"`
	MemoryBytesSpilled         int64               `json:"Memory Bytes Spilled"`
	DiskBytesSpilled           int64               `json:"Disk Bytes Spilled"`
	ShuffleRead                ShuffleReadMetrics  `json:"Shuffle Read Metrics"`
	ShuffleWrite               ShuffleWriteMetrics `json:"Shuffle Write Metrics"`
	Input                      InputMetrics        `json:"Input Metrics"`
	Output                     OutputMetrics       `json:"Output Metrics"`
}

type TaskEnd struct {
	StageID        int           `json:"Stage ID"`
	StageAttemptID int           `json:"Stage Attempt ID"`
	TaskType       string        `json:"Task Type"`
	EndReason      TaskEndReason `json:"Task End Reason"`
	Info           TaskInfo      `json:"Task Info"`
	Metrics        TaskMetrics   `json:"Task Metrics"`
}

// PlanMetricInfo describes one accumulator attached to a plan node.
type PlanMetricInfo struct {
	Name          string `json:"name"`
	AccumulatorID int64  `json:"accumulatorId"`
	MetricType    string `json:"metricType"`
}

// PlanInfo is one node of a physical-plan tree. The SQL listener events
// use camelCase keys, unlike the core listener events.
type PlanInfo struct {
	NodeName     string           `json:"nodeName"`
	SimpleString string           `json:"simpleString"`
	Children     []PlanInfo       `json:"children"`
	Metrics      []PlanMetricInfo `json:"metrics"`
}

type SQLExecutionStart struct {
	ExecutionID             int64    `json:"executionId"`
	Description             string   `json:"description"`
	Details                 string   `json:"details"`
	PhysicalPlanDescription string   `json:"physicalPlanDescription"`
	SparkPlanInfo           PlanInfo `json:"sparkPlanInfo"`
	Time                    int64    `json:"time"`
}

type SQLExecutionEnd struct {
	ExecutionID int64 `json:"executionId"`
	Time        int64 `json:"time"`
}

// SQLAdaptiveUpdate replaces an execution's plan mid-run under AQE.
type SQLAdaptiveUpdate struct {
	ExecutionID             int64    `json:"executionId"`
	PhysicalPlanDescription string   `json:"physicalPlanDescription"`
	SparkPlanInfo           PlanInfo `json:"sparkPlanInfo"`
}

// SQLAdaptiveMetricUpdates attaches extra metric descriptors to an
// execution after an adaptive replan. They carry no node attribution.
type SQLAdaptiveMetricUpdates struct {
	ExecutionID int64            `json:"executionId"`
	Metrics     []PlanMetricInfo `json:"sqlPlanMetrics"`
}

// AccumUpdate is one (accumulator id, value) pair from the driver.
// The wire shape is a two-element array.
type AccumUpdate struct {
	AccumulatorID int64
	Value         int64
}

// UnmarshalJSON decodes the [id, value] pair form.
func (a *AccumUpdate) UnmarshalJSON(b []byte) error {
	var pair [2]int64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	a.AccumulatorID = pair[0]
	a.Value = pair[1]
	return nil
}

type DriverAccumUpdates struct {
	ExecutionID int64         `json:"executionId"`
	Updates     []AccumUpdate `json:"accumUpdates"`
}
