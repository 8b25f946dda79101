package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"call-decision-go/internal/types"
)

// BuildPrompt assembles the strict-JSON classification prompt from the
// dialogue and the caller's policy and incident context. LLM-backed
// reasoners share it; the rules reasoner computes directly on the Input.
func BuildPrompt(in Input) string {
	policiesJSON, _ := json.MarshalIndent(in.Policies, "", "  ")
	incidentsJSON, _ := json.MarshalIndent(in.OpenIncidents, "", "  ")
	expiriesJSON, _ := json.MarshalIndent(in.Expirations, "", "  ")

	prompt := `You are the decision engine of an insurance call center. You classify what the caller needs after a conversation with the voice agent.

You must ground every answer in:
1. The CALL DIALOGUE below
2. The caller's KNOWN POLICIES
3. The caller's OPEN INCIDENTS and POLICY EXPIRATIONS
NO outside knowledge. NO invented policy numbers or client data.
If information is missing, leave the field empty or 0 instead of inventing it.

The "type" field MUST be exactly one of:
%s

The "ramo" field is the insurance line the request is about, one of:
HOGAR, COCHE, VIDA, SALUD, DECESOS, OTROS (empty if the dialogue does not say).

IMPORTANT: whether the caller is already a client and whether the request is
new business are independent. An existing client asking for a line they do
not yet hold is "Nueva contratación de seguros".

----------------------------------------------------------------------
RESPONSE SCHEMA (STRICT - RETURN ONLY JSON)
{
  "type": "",
  "reason": "",
  "ramo": "",
  "numero_poliza": "",
  "priority": "low|medium|high",
  "confidence": 0.0,
  "summary": "",
  "context": "",
  "required_data": []
}
----------------------------------------------------------------------

"numero_poliza" must be a policy number explicitly present in the dialogue
or in KNOWN POLICIES, never invented.
"confidence" is your own certainty in the classification, between 0 and 1.
"summary" is 1-2 sentences in Spanish describing what the caller needs.
"required_data" lists data points still missing to execute the request.

KNOWN POLICIES:
%s

OPEN INCIDENTS:
%s

POLICY EXPIRATIONS:
%s

CALL DIALOGUE:
%s

----------------------------------------------------------------------
Return ONLY valid JSON matching the schema. No commentary, no markdown.
`

	return fmt.Sprintf(prompt,
		"- "+strings.Join(types.IncidentTypes(), "\n- "),
		string(policiesJSON),
		string(incidentsJSON),
		string(expiriesJSON),
		in.Dialogue,
	)
}
