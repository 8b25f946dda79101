package engine

import (
	"context"
	"time"

	"call-decision-go/internal/classifier"
	"call-decision-go/internal/client"
	"call-decision-go/internal/followup"
	"call-decision-go/internal/logger"
	"call-decision-go/internal/toolresult"
	"call-decision-go/internal/transcript"
	"call-decision-go/internal/types"
)

// Engine analyzes one conversation per call. It holds no mutable state
// across invocations: every CallDecision is a fresh value computed only from
// the transcript, so concurrent analyses never interfere.
type Engine struct {
	classifier *classifier.Classifier
}

func New(reasoner classifier.Reasoner, reasoningTimeout time.Duration) *Engine {
	return &Engine{classifier: classifier.New(reasoner, reasoningTimeout)}
}

// AnalyzeCall runs the full pipeline for one transcript:
// Received -> Normalized -> ToolDataExtracted -> ClientResolved ->
// IncidentClassified -> FollowUpResolved -> Composed.
// Any fatal error aborts with a PipelineError naming the stage; nothing is
// retried internally and no partial decision is ever returned.
func (e *Engine) AnalyzeCall(ctx context.Context, turns []types.Turn, conversationID string) (types.CallDecision, error) {
	log := logger.New().WithConversation(conversationID).WithField("component", "engine")
	start := time.Now()

	normalized, err := transcript.Normalize(turns)
	if err != nil {
		return types.CallDecision{}, &PipelineError{Stage: StageNormalized, Err: &InputError{Err: err}}
	}
	log.WithField("turns", len(normalized)).Debug("stage normalized")

	extracted := toolresult.Extract(normalized)
	log.WithField("skipped_outcomes", extracted.SkippedOutcomes).Debug("stage tool_data_extracted")

	resolution := client.Resolve(normalized, extracted)
	log.WithField("client_type", resolution.ClientType).Debug("stage client_resolved")

	incident, err := e.classifier.Classify(ctx, classifier.Input{
		ConversationID: conversationID,
		Dialogue:       transcript.Dialogue(normalized),
		ClientType:     resolution.ClientType,
		Policies:       extracted.Policies,
		OpenIncidents:  extracted.OpenIncidents,
		Expirations:    extracted.Expirations,
	})
	if err != nil {
		return types.CallDecision{}, &PipelineError{Stage: StageIncidentClassified, Err: err}
	}
	log.WithField("incident_type", incident.Type).Debug("stage incident_classified")

	followUp := followup.Resolve(incident, incidentsForClient(extracted.OpenIncidents, resolution))
	log.WithField("is_follow_up", followUp.IsFollowUp).Debug("stage follow_up_resolved")

	decision := compose(conversationID, resolution, incident, followUp)
	log.WithFields(map[string]interface{}{
		"duration_ms":   time.Since(start).Milliseconds(),
		"incident_type": incident.Type,
		"confidence":    incident.Confidence,
	}).Info("analysis composed")
	return decision, nil
}

// incidentsForClient keeps only the open incidents that belong to the
// resolved client. Records without a client id came from this call's own
// lookups and are kept.
func incidentsForClient(open []types.OpenIncidentRecord, res client.Resolution) []types.OpenIncidentRecord {
	if res.Record == nil || res.Record.ClientID == nil {
		return open
	}
	clientID := *res.Record.ClientID
	out := make([]types.OpenIncidentRecord, 0, len(open))
	for _, rec := range open {
		if rec.ClientID == "" || rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	return out
}
