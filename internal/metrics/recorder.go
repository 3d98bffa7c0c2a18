package metrics

import "time"

// BuildOutcome enumerates final build states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeDegraded BuildOutcome = "degraded" // Query errors: index page only
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for a site build.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	AddNodes(nodeType string, n int)
	IncNodesSkipped(reason string)
	IncPagesCreated(component string)
	AddQueryErrors(n int)
	AddPagesWritten(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)               {}
func (NoopRecorder) AddNodes(string, int)                       {}
func (NoopRecorder) IncNodesSkipped(string)                     {}
func (NoopRecorder) IncPagesCreated(string)                     {}
func (NoopRecorder) AddQueryErrors(int)                         {}
func (NoopRecorder) AddPagesWritten(int)                        {}
