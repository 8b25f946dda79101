package followup

import (
	"sort"
	"time"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

// Resolve decides whether the classified incident continues an already-open
// incident for the same client. The tie-break order is fixed so identical
// inputs always produce the identical answer: ramo filter, then same
// affected policy, then most recent creation date.
func Resolve(incident types.PrimaryIncident, open []types.OpenIncidentRecord) types.FollowUpInfo {
	log := logger.Component("followup")

	if len(open) == 0 {
		return newTicket()
	}

	candidates := make([]types.OpenIncidentRecord, 0, len(open))
	for _, rec := range open {
		if rec.Ramo != "" && rec.Ramo == incident.Ramo {
			candidates = append(candidates, rec)
		}
	}

	switch len(candidates) {
	case 0:
		// Open incidents exist but none in this line; the request is
		// unrelated to them.
		log.WithField("open_incidents", len(open)).Debug("no open incident matches the ramo")
		return newTicket()
	case 1:
		return followUp(candidates[0].IncidentID)
	}

	// Several open incidents in the same line: prefer the one on the same
	// affected policy.
	if incident.AffectedPolicyNumber != nil {
		samePolicy := make([]types.OpenIncidentRecord, 0, len(candidates))
		for _, rec := range candidates {
			if rec.PolicyNumber != "" && rec.PolicyNumber == *incident.AffectedPolicyNumber {
				samePolicy = append(samePolicy, rec)
			}
		}
		if len(samePolicy) == 1 {
			return followUp(samePolicy[0].IncidentID)
		}
		if len(samePolicy) > 1 {
			candidates = samePolicy
		}
	}

	// Last resort: most recent creation date. Unparseable dates sort last;
	// the incident id breaks exact-date ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := parseCreatedDate(candidates[i].CreatedDate), parseCreatedDate(candidates[j].CreatedDate)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return candidates[i].IncidentID < candidates[j].IncidentID
	})
	return followUp(candidates[0].IncidentID)
}

func newTicket() types.FollowUpInfo {
	return types.FollowUpInfo{IsFollowUp: false, RelatedTicketID: nil, CreateNewTicket: true}
}

func followUp(incidentID string) types.FollowUpInfo {
	return types.FollowUpInfo{IsFollowUp: true, RelatedTicketID: types.StrPtr(incidentID), CreateNewTicket: false}
}

// Incidencia dates drift across tool versions; try the formats seen in the
// wild and fall back to zero time.
var createdDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseCreatedDate(raw string) time.Time {
	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
