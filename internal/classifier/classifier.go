package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

const defaultReasoningTimeout = 40 * time.Second

// Classifier owns everything around the reasoning call: assembling the
// input, bounding its duration, validating the returned label against the
// closed taxonomy, and cross-referencing the affected policy. The language
// understanding itself is delegated to the injected Reasoner.
type Classifier struct {
	reasoner Reasoner
	timeout  time.Duration
}

func New(reasoner Reasoner, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = defaultReasoningTimeout
	}
	return &Classifier{reasoner: reasoner, timeout: timeout}
}

// Classify produces the single PrimaryIncident for the conversation.
func (c *Classifier) Classify(ctx context.Context, in Input) (types.PrimaryIncident, error) {
	log := logger.Component("classifier").WithField("conversation_id", in.ConversationID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.reasoner.Classify(ctx, in)
	if err != nil {
		var unavailable *ReasoningUnavailableError
		if errors.As(err, &unavailable) {
			return types.PrimaryIncident{}, err
		}
		return types.PrimaryIncident{}, &ReasoningUnavailableError{Provider: c.reasoner.Name(), Err: err}
	}

	label := strings.TrimSpace(raw.Type)
	if !types.KnownIncidentType(label) {
		log.WithField("label", label).Error("reasoner returned unknown incident type")
		return types.PrimaryIncident{}, &UnknownTaxonomyError{Label: label}
	}

	ramo := types.NormalizeRamo(raw.Ramo)

	// Client identity and incident novelty are independent: an existing
	// client asking about a line they do not hold is new business, whatever
	// the reasoner called it.
	if label != types.IncidentNewContract && isNovelRamo(ramo, in.Policies) {
		switch label {
		case types.IncidentPolicyModification, types.IncidentCommercialInquiry:
			log.WithFields(map[string]interface{}{
				"from": label,
				"ramo": ramo,
			}).Info("ramo not held by client, coercing to new contract")
			label = types.IncidentNewContract
		}
	}

	incident := types.PrimaryIncident{
		Type:         label,
		Reason:       raw.Reason,
		Ramo:         ramo,
		Priority:     normalizePriority(raw.Priority),
		Confidence:   clamp01(raw.Confidence),
		Summary:      raw.Summary,
		Context:      raw.Context,
		RequiredData: raw.RequiredData,
	}
	incident.AffectedPolicyNumber = resolveAffectedPolicy(label, raw.PolicyNumber, in.Dialogue, in.Policies, ramo)

	log.WithFields(map[string]interface{}{
		"type":       incident.Type,
		"ramo":       incident.Ramo,
		"priority":   incident.Priority,
		"confidence": incident.Confidence,
	}).Info("incident classified")
	return incident, nil
}

// isNovelRamo: the client holds policies but none in this ramo.
func isNovelRamo(ramo string, policies []types.PolicyRecord) bool {
	if ramo == "" || ramo == types.RamoOtros || len(policies) == 0 {
		return false
	}
	for _, p := range policies {
		if p.Ramo == ramo {
			return false
		}
	}
	return true
}

// resolveAffectedPolicy cross-references the mentioned policy number against
// the client's actual policies; numbers never come from thin air. For new
// contracts only an explicit mention counts, since no held policy is
// affected.
func resolveAffectedPolicy(incidentType, explicit, dialogue string, policies []types.PolicyRecord, ramo string) *string {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		for _, p := range policies {
			if strings.EqualFold(p.PolicyNumber, explicit) {
				return types.StrPtr(p.PolicyNumber)
			}
		}
	}

	lowerDialogue := strings.ToLower(dialogue)
	for _, p := range policies {
		if p.PolicyNumber == "" {
			continue
		}
		if strings.Contains(lowerDialogue, strings.ToLower(p.PolicyNumber)) {
			return types.StrPtr(p.PolicyNumber)
		}
	}

	if incidentType == types.IncidentNewContract {
		return nil
	}

	// Default: the single held policy of the inferred ramo.
	if ramo != "" {
		var match *string
		count := 0
		for i := range policies {
			if policies[i].Ramo == ramo {
				count++
				match = &policies[i].PolicyNumber
			}
		}
		if count == 1 {
			return types.StrPtr(*match)
		}
	}
	return nil
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case types.PriorityLow, "baja":
		return types.PriorityLow
	case types.PriorityHigh, "alta":
		return types.PriorityHigh
	default:
		return types.PriorityMedium
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
