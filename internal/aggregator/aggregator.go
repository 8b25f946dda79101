package aggregator

import "call-decision-go/internal/types"

// Insight summarizes a batch of composed decisions.
type Insight struct {
	ByIncidentType    map[string]int `json:"by_incident_type"`
	ByRamo            map[string]int `json:"by_ramo"`
	ByClientType      map[string]int `json:"by_client_type"`
	FollowUpRate      float64        `json:"follow_up_rate"`
	LowConfidenceRate float64        `json:"low_confidence_rate"`
}

// Aggregate counts decision outcomes. Low confidence means at or below the
// automatic-creation threshold, i.e. the decision needs human review.
func Aggregate(decisions []types.CallDecision) Insight {
	ins := Insight{
		ByIncidentType: map[string]int{},
		ByRamo:         map[string]int{},
		ByClientType:   map[string]int{},
	}
	followUps := 0
	lowConfidence := 0
	for _, d := range decisions {
		incident := d.IncidentAnalysis.PrimaryIncident
		ins.ByIncidentType[incident.Type]++
		if incident.Ramo != "" {
			ins.ByRamo[incident.Ramo]++
		}
		ins.ByClientType[d.ClientInfo.ClientType]++
		if d.IncidentAnalysis.FollowUpInfo.IsFollowUp {
			followUps++
		}
		if incident.Confidence <= 0.5 {
			lowConfidence++
		}
	}
	if n := len(decisions); n > 0 {
		ins.FollowUpRate = float64(followUps) / float64(n)
		ins.LowConfidenceRate = float64(lowConfidence) / float64(n)
	}
	return ins
}
