// Package store holds the reconstructed model of one application run.
//
// A Store is populated by ingestion in arrival order, then enriched by
// the correlate and plan phases. It is owned by exactly one analysis
// session: no concurrent writers, and read-side queries only run after
// derivation completes.
package store

// Property sources, in the order environment properties are recorded.
const (
	SourceEngineConfig   = "engine-config"
	SourcePlatformConfig = "platform-config"
	SourceSystem         = "system"
	SourceRuntime        = "runtime"
	SourceClasspath      = "classpath"
)

// Job result sentinel written by the listener bus on success.
const JobResultSucceeded = "JobSucceeded"

// Diagnostic flag kinds derived by the plan analyzer.
const (
	FlagDatasetOp       = "dataset-op"
	FlagPotentialIssue  = "potential-issue"
	FlagUnsupportedNode = "unsupported-node"
)

// Application is the singleton lifecycle record for a run.
type Application struct {
	AppName      string
	AppID        string
	User         string
	SparkVersion string
	StartTime    int64

	// Populated by the correlator.
	EndTime           int64
	Duration          int64
	HasDuration       bool
	DurationEstimated bool
}

// Executor records one executor registration.
type Executor struct {
	ExecutorID        string
	Host              string
	TotalCores        int
	ResourceProfileID int
	AddedTime         int64
}

// ExecutorRemoval is an independent append-only removal record.
type ExecutorRemoval struct {
	ExecutorID string
	Time       int64
	Reason     string
}

type BlockManager struct {
	ExecutorID    string
	Host          string
	Port          int
	MaxMem        int64
	MaxOnHeapMem  int64
	MaxOffHeapMem int64
	AddedTime     int64
}

type BlockManagerRemoval struct {
	ExecutorID string
	Time       int64
}

// ResourceProfile captures per-executor and per-task resource demands.
type ResourceProfile struct {
	ProfileID       int
	ExecutorCores   float64
	ExecutorMemory  float64
	ExecutorGPUs    float64
	ExecutorOffHeap float64
	TaskCPUs        float64
	TaskGPUs        float64
}

// Job groups stages via its StageIDs set.
type Job struct {
	JobID          int
	SubmissionTime int64
	StageIDs       []int
	SQLID          *int64

	CompletionTime int64
	Result         string
	FailureReason  string

	// Populated by the correlator.
	Duration    int64
	HasDuration bool

	stageIDSet map[int]struct{}
}

// ContainsStage reports stage membership per the job's StageIDs set.
func (j *Job) ContainsStage(stageID int) bool {
	if j.stageIDSet == nil {
		j.stageIDSet = make(map[int]struct{}, len(j.StageIDs))
		for _, id := range j.StageIDs {
			j.stageIDSet[id] = struct{}{}
		}
	}
	_, ok := j.stageIDSet[stageID]
	return ok
}

// StageKey identifies one stage attempt.
type StageKey struct {
	StageID   int
	AttemptID int
}

type Stage struct {
	StageID        int
	AttemptID      int
	Name           string
	NumTasks       int
	SubmissionTime int64
	CompletionTime int64
	FailureReason  string

	// Populated by the correlator.
	Duration    int64
	HasDuration bool
	RunTimeSum  int64
	CPUTimeSum  int64
}

func (s *Stage) Key() StageKey {
	return StageKey{StageID: s.StageID, AttemptID: s.AttemptID}
}

// Task is the leaf granularity for aggregation. One row per task attempt.
type Task struct {
	StageID        int
	StageAttemptID int
	TaskID         int64
	Attempt        int
	LaunchTime     int64
	FinishTime     int64
	Duration       int64
	Successful     bool
	EndReason      string
	TaskType       string
	ExecutorID     string
	Host           string

	GettingResultTime          int64
	ExecutorDeserializeTime    int64
	ExecutorDeserializeCPUTime int64
	ExecutorRunTime            int64
	ExecutorCPUTime            int64
	PeakExecutionMemory        int64
	ResultSize                 int64
	JVMGCTime                  int64
	ResultSerializationTime    int64
	MemoryBytesSpilled         int64
	DiskBytesSpilled           int64

	SRRemoteBlocksFetched   int64
	SRLocalBlocksFetched    int64
	SRFetchWaitTime         int64
	SRRemoteBytesRead       int64
	SRRemoteBytesReadToDisk int64
	SRLocalBytesRead        int64
	SRTotalBytesRead        int64
	SRTotalRecordsRead      int64

	SWBytesWritten   int64
	SWWriteTime      int64
	SWRecordsWritten int64

	InputBytesRead       int64
	InputRecordsRead     int64
	OutputBytesWritten   int64
	OutputRecordsWritten int64
}

// SQLExecution is one query execution with its plan tree and timing.
type SQLExecution struct {
	SQLID                   int64
	Description             string
	Details                 string
	PhysicalPlanDescription string
	Plan                    PlanNode
	StartTime               int64

	EndTime int64

	// Populated by the correlator and plan analyzer.
	Duration          int64
	HasDuration       bool
	HasDatasetOp      bool
	PotentialProblems []string
}

// PlanNode is one node of a physical-plan tree with analyzer-assigned ids.
// IDs are assigned depth-first from the root so re-analysis is stable.
type PlanNode struct {
	NodeID       int
	NodeName     string
	SimpleString string
	Children     []PlanNode
	Metrics      []PlanNodeMetric
}

type PlanNodeMetric struct {
	Name          string
	AccumulatorID int64
	MetricType    string
}

// PlanMetric links plan structure to one accumulator.
type PlanMetric struct {
	SQLID         int64
	NodeID        int
	NodeName      string
	AccumulatorID int64
	MetricName    string
	MetricType    string
}

// AccumValue is a driver-reported accumulator value.
type AccumValue struct {
	SQLID         int64
	AccumulatorID int64
	Value         int64
}

type Property struct {
	Source string
	Key    string
	Value  string
}

// DiagnosticFlag is a derived per-node classification record.
type DiagnosticFlag struct {
	SQLID       int64
	NodeID      int
	Kind        string
	NodeName    string
	Description string
}

// OtherEvent preserves an unrecognized record kind for forward compatibility.
type OtherEvent struct {
	Kind string
	Raw  []byte
}
