package actionable

import (
	"fmt"

	"call-decision-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns batch stats into the single most useful operational action.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.LowConfidenceRate >= 0.4 {
		return ActionCard{
			Insight: fmt.Sprintf("%.0f%% of decisions fell at or below the auto-create threshold", ins.LowConfidenceRate*100),
			Action:  "Staff the review queue and sample transcripts for prompt or taxonomy gaps",
			Impact:  "Keeps low-confidence calls from stalling unprocessed",
		}
	}
	if ins.FollowUpRate >= 0.5 {
		return ActionCard{
			Insight: fmt.Sprintf("%.0f%% of calls continue an already-open incident", ins.FollowUpRate*100),
			Action:  "Review open-incident backlog in the dominant ramo; callers are chasing unresolved cases",
			Impact:  "Reduces repeat calls and ticket duplication",
		}
	}
	return ActionCard{
		Insight: "No dominant anomaly in this batch",
		Action:  "Monitor and keep collecting decisions",
		Impact:  "Low immediate intervention",
	}
}
