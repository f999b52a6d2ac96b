// Package analysis holds the lifecycle of one analysis request per session.
package analysis

import "github.com/kozaktomas/facefit/internal/faceapi"

// Phase names a state variant.
type Phase string

// Phase constants, one per State variant.
const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// State is one of Idle, Loading, Succeeded or Failed.
type State interface {
	Phase() Phase
	snapshot() Snapshot
}

// Idle is the initial state: nothing submitted, nothing to show.
type Idle struct{}

// Loading means an analysis call is in flight.
type Loading struct {
	Ticket Ticket
}

// Succeeded holds the result of the last call.
type Succeeded struct {
	Result *faceapi.AnalysisResult
}

// Failed holds the human-readable reason the last call failed.
type Failed struct {
	Message string
}

func (Idle) Phase() Phase      { return PhaseIdle }
func (Loading) Phase() Phase   { return PhaseLoading }
func (Succeeded) Phase() Phase { return PhaseSucceeded }
func (Failed) Phase() Phase    { return PhaseFailed }

func (Idle) snapshot() Snapshot    { return Snapshot{Phase: PhaseIdle} }
func (Loading) snapshot() Snapshot { return Snapshot{Phase: PhaseLoading, IsLoading: true} }
func (s Succeeded) snapshot() Snapshot {
	return Snapshot{Phase: PhaseSucceeded, Result: s.Result}
}
func (s Failed) snapshot() Snapshot {
	return Snapshot{Phase: PhaseFailed, Error: s.Message}
}

// Snapshot is the flat view of a State sent to pages and listeners.
// At most one of Result and Error is set, and neither while loading.
type Snapshot struct {
	Phase     Phase                   `json:"phase"`
	IsLoading bool                    `json:"is_loading"`
	Result    *faceapi.AnalysisResult `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// Ticket identifies one Begin. Completions carrying an older ticket are dropped.
type Ticket uint64
