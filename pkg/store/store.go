package store

// Store is the per-application entity store.
//
// Each family is kept in arrival order for deterministic downstream
// output, with id indices for correlation lookups. Ingestion only
// inserts and appends; derived fields are written by the correlate and
// plan phases.
type Store struct {
	// AppIndex is assigned by the caller constructing the session so
	// per-application rows union cleanly across a batch.
	AppIndex int

	// Accelerated marks accelerated-execution mode for plan analysis.
	Accelerated bool

	App *Application

	Executors        []*Executor
	ExecutorRemovals []*ExecutorRemoval
	BlockManagers    []*BlockManager
	BlockManagerRems []*BlockManagerRemoval
	ResourceProfiles []*ResourceProfile

	Jobs   []*Job
	Stages []*Stage
	Tasks  []*Task

	SQLs        []*SQLExecution
	PlanMetrics []*PlanMetric
	AccumValues []*AccumValue

	Properties  []*Property
	Flags       []*DiagnosticFlag
	OtherEvents []*OtherEvent

	execByID  map[string]*Executor
	jobByID   map[int]*Job
	stageByID map[StageKey]*Stage
	sqlByID   map[int64]*SQLExecution
	rpByID    map[int]*ResourceProfile
}

func New(appIndex int, accelerated bool) *Store {
	return &Store{
		AppIndex:    appIndex,
		Accelerated: accelerated,
		execByID:    make(map[string]*Executor),
		jobByID:     make(map[int]*Job),
		stageByID:   make(map[StageKey]*Stage),
		sqlByID:     make(map[int64]*SQLExecution),
		rpByID:      make(map[int]*ResourceProfile),
	}
}

func (s *Store) AddExecutor(e *Executor) {
	s.Executors = append(s.Executors, e)
	s.execByID[e.ExecutorID] = e
}

func (s *Store) ExecutorByID(id string) *Executor {
	return s.execByID[id]
}

func (s *Store) AddExecutorRemoval(r *ExecutorRemoval) {
	s.ExecutorRemovals = append(s.ExecutorRemovals, r)
}

func (s *Store) AddBlockManager(b *BlockManager) {
	s.BlockManagers = append(s.BlockManagers, b)
}

func (s *Store) AddBlockManagerRemoval(r *BlockManagerRemoval) {
	s.BlockManagerRems = append(s.BlockManagerRems, r)
}

func (s *Store) AddResourceProfile(rp *ResourceProfile) {
	s.ResourceProfiles = append(s.ResourceProfiles, rp)
	s.rpByID[rp.ProfileID] = rp
}

func (s *Store) ResourceProfileByID(id int) *ResourceProfile {
	return s.rpByID[id]
}

func (s *Store) AddJob(j *Job) {
	s.Jobs = append(s.Jobs, j)
	s.jobByID[j.JobID] = j
}

func (s *Store) JobByID(id int) *Job {
	return s.jobByID[id]
}

func (s *Store) AddStage(st *Stage) {
	s.Stages = append(s.Stages, st)
	s.stageByID[st.Key()] = st
}

func (s *Store) StageByKey(k StageKey) *Stage {
	return s.stageByID[k]
}

func (s *Store) AddTask(t *Task) {
	s.Tasks = append(s.Tasks, t)
}

func (s *Store) AddSQL(sq *SQLExecution) {
	s.SQLs = append(s.SQLs, sq)
	s.sqlByID[sq.SQLID] = sq
}

func (s *Store) SQLByID(id int64) *SQLExecution {
	return s.sqlByID[id]
}

func (s *Store) AddPlanMetric(m *PlanMetric) {
	s.PlanMetrics = append(s.PlanMetrics, m)
}

func (s *Store) AddAccumValue(v *AccumValue) {
	s.AccumValues = append(s.AccumValues, v)
}

func (s *Store) AddProperty(p *Property) {
	s.Properties = append(s.Properties, p)
}

func (s *Store) AddFlag(f *DiagnosticFlag) {
	s.Flags = append(s.Flags, f)
}

func (s *Store) AddOtherEvent(e *OtherEvent) {
	s.OtherEvents = append(s.OtherEvents, e)
}

// JobForStage resolves the owning job for a stage id via set membership.
// Returns nil when no job claims the stage.
func (s *Store) JobForStage(stageID int) *Job {
	for _, j := range s.Jobs {
		if j.ContainsStage(stageID) {
			return j
		}
	}
	return nil
}

// SQLForStage resolves a stage to its SQL execution through the owning job.
func (s *Store) SQLForStage(stageID int) *SQLExecution {
	j := s.JobForStage(stageID)
	if j == nil || j.SQLID == nil {
		return nil
	}
	return s.sqlByID[*j.SQLID]
}

// TasksForStage returns the tasks of one stage attempt in arrival order.
func (s *Store) TasksForStage(stageID, attemptID int) []*Task {
	var out []*Task
	for _, t := range s.Tasks {
		if t.StageID == stageID && t.StageAttemptID == attemptID {
			out = append(out, t)
		}
	}
	return out
}
