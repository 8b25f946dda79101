package engine

import (
	"call-decision-go/internal/client"
	"call-decision-go/internal/types"
)

// compose is pure aggregation: no new inference happens here. Low-confidence
// results are still emitted, flagged through the confidence value, so the
// caller decides between acting automatically and routing for review.
func compose(conversationID string, res client.Resolution, incident types.PrimaryIncident, followUp types.FollowUpInfo) types.CallDecision {
	info := types.ClientInfo{
		ClientType:    res.ClientType,
		ExtractedData: res.Record,
	}
	if res.Record != nil && res.Record.ClientID != nil {
		info.ExistingClientInfo = &types.ExistingClientInfo{ClientID: *res.Record.ClientID}
	}

	return types.CallDecision{
		ConversationID: conversationID,
		ClientInfo:     info,
		IncidentAnalysis: types.IncidentAnalysis{
			PrimaryIncident: incident,
			FollowUpInfo:    followUp,
		},
		Decisions: types.Decisions{
			ClientDecision: res.Decision,
			TicketDecision: types.TicketDecision{
				CreateTicket:    followUp.CreateNewTicket,
				CreateFollowUp:  followUp.IsFollowUp,
				RelatedTicketID: followUp.RelatedTicketID,
			},
		},
	}
}
