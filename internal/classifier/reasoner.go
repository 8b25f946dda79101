package classifier

import (
	"context"
	"fmt"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

// Input is the evidence bundle handed to the reasoning capability: the full
// dialogue plus everything the tools established about the caller.
type Input struct {
	ConversationID string
	Dialogue       string
	ClientType     string
	Policies       []types.PolicyRecord
	OpenIncidents  []types.OpenIncidentRecord
	Expirations    []types.PolicyExpiryRecord
}

// RawClassification is what a reasoner returns before the classifier
// validates it against the closed taxonomy. Confidence is an opaque scalar
// computed by the provider; the engine never re-derives it.
type RawClassification struct {
	Type         string   `json:"type"`
	Reason       string   `json:"reason"`
	Ramo         string   `json:"ramo"`
	PolicyNumber string   `json:"numero_poliza"`
	Priority     string   `json:"priority"`
	Confidence   float64  `json:"confidence"`
	Summary      string   `json:"summary"`
	Context      string   `json:"context"`
	RequiredData []string `json:"required_data"`
}

// Reasoner is the pluggable language-understanding strategy. Providers:
// gateway (OpenAI-compatible HTTP), gemini, rules (deterministic offline
// fallback) and a test double.
type Reasoner interface {
	Name() string
	Classify(ctx context.Context, in Input) (RawClassification, error)
}

// ReasoningUnavailableError: the external reasoning capability timed out or
// errored. Fatal for this invocation; the caller may retry the whole
// analysis later.
type ReasoningUnavailableError struct {
	Provider string
	Err      error
}

func (e *ReasoningUnavailableError) Error() string {
	return fmt.Sprintf("reasoning unavailable (provider=%s): %v", e.Provider, e.Err)
}

func (e *ReasoningUnavailableError) Unwrap() error { return e.Err }

// UnknownTaxonomyError: the reasoner produced a label outside the closed
// incident-type set. Fatal to force review rather than silently
// misclassifying.
type UnknownTaxonomyError struct {
	Label string
}

func (e *UnknownTaxonomyError) Error() string {
	return fmt.Sprintf("incident type %q is outside the known taxonomy", e.Label)
}

// FallbackReasoner wraps a primary reasoner with a secondary provider that
// is tried when the primary fails. If secondary is nil only the primary is
// used.
type FallbackReasoner struct {
	primary   Reasoner
	secondary Reasoner
}

func NewFallbackReasoner(primary, secondary Reasoner) *FallbackReasoner {
	return &FallbackReasoner{primary: primary, secondary: secondary}
}

func (f *FallbackReasoner) Name() string {
	if f.secondary == nil {
		return f.primary.Name()
	}
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackReasoner) Classify(ctx context.Context, in Input) (RawClassification, error) {
	raw, err := f.primary.Classify(ctx, in)
	if err == nil {
		return raw, nil
	}
	log := logger.Component("reasoner-fallback").WithField("conversation_id", in.ConversationID)
	log.WithField("error", err.Error()).Warn("primary reasoner failed")
	if f.secondary == nil {
		return RawClassification{}, err
	}
	raw, ferr := f.secondary.Classify(ctx, in)
	if ferr != nil {
		log.WithField("error", ferr.Error()).Error("secondary reasoner also failed")
		return RawClassification{}, ferr
	}
	log.WithField("provider", f.secondary.Name()).Info("secondary reasoner answered after primary failure")
	return raw, nil
}
