package model

type StopReason string

const (
	StopNone         StopReason = ""
	StopExhausted    StopReason = "exhausted"
	StopLimit        StopReason = "limit"
	StopCancelled    StopReason = "cancelled"
	StopNavigation   StopReason = "navigation"
	StopCatalogError StopReason = "catalog_error"
)

// Stage names the step of a capture job an ItemResult ended at.
type Stage string

const (
	StageNavigate      Stage = "navigate"
	StageSyncPrimary   Stage = "sync_primary"
	StageResolve       Stage = "resolve"
	StageTrigger       Stage = "trigger"
	StageSyncSecondary Stage = "sync_secondary"
	StageFreeze        Stage = "freeze"
	StageExtract       Stage = "extract"
	StagePersist       Stage = "persist"
	StageDone          Stage = "done"
)

// RunState is owned by the capture loop for one invocation.
type RunState struct {
	Current CatalogItem
	Count   int
	Stopped bool
	Reason  StopReason
}

func (s *RunState) Stop(reason StopReason) {
	if s.Stopped {
		return
	}
	s.Stopped = true
	s.Reason = reason
}

type ItemResult struct {
	Item  CatalogItem
	URL   string
	Stage Stage
	Path  string
	Err   error
}

func (r ItemResult) OK() bool {
	return r.Err == nil && r.Stage == StageDone
}

// Summary accumulates the per-item outcome of a run.
type Summary struct {
	Written int
	Results []ItemResult
	Reason  StopReason
}

func (s *Summary) Add(r ItemResult) {
	s.Results = append(s.Results, r)
	if r.OK() {
		s.Written++
	}
}

func (s *Summary) Failed() []ItemResult {
	var failed []ItemResult
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
