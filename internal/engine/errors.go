package engine

import "fmt"

// Stage names of the analysis state machine. A conversation either walks all
// of them to Composed or fails at exactly one.
type Stage string

const (
	StageReceived           Stage = "received"
	StageNormalized         Stage = "normalized"
	StageToolDataExtracted  Stage = "tool_data_extracted"
	StageClientResolved     Stage = "client_resolved"
	StageIncidentClassified Stage = "incident_classified"
	StageFollowUpResolved   Stage = "follow_up_resolved"
	StageComposed           Stage = "composed"
)

// InputError wraps fatal transcript problems (empty or malformed input).
// Retrying without fixing the input cannot succeed.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "invalid input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// PipelineError is the terminal-failure state: which stage died and why. No
// partial CallDecision exists when it is returned.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("analysis failed at stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
