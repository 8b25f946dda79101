package classifier

import (
	"context"
	"fmt"
	"strings"

	"call-decision-go/internal/types"
)

// RulesReasoner is the deterministic offline fallback: plain keyword rules
// over the dialogue, no network. It is intentionally conservative with
// confidence so its answers are routed to review rather than auto-executed.
type RulesReasoner struct{}

func NewRulesReasoner() *RulesReasoner { return &RulesReasoner{} }

func (r *RulesReasoner) Name() string { return "rules" }

type typeRule struct {
	incidentType string
	confidence   float64
	keywords     []string
}

// Evaluated in order; the first rule with a keyword hit wins, so the more
// specific intents come first.
var typeRules = []typeRule{
	{types.IncidentAccountChange, 0.45, []string{
		"cuenta bancaria", "domiciliacion", "domiciliación", "iban", "numero de cuenta", "número de cuenta",
	}},
	{types.IncidentCancellation, 0.45, []string{
		"anular", "dar de baja", "cancelar la poliza", "cancelar la póliza", "cancelar mi poliza", "cancelar mi póliza",
	}},
	{types.IncidentRetention, 0.4, []string{
		"otra compania", "otra compañía", "mas barato", "más barato", "me quiero ir", "mejor oferta",
	}},
	{types.IncidentNewContract, 0.45, []string{
		"contratar", "nuevo seguro", "presupuesto", "me interesa un seguro", "quiero un seguro",
	}},
	{types.IncidentPolicyModification, 0.4, []string{
		"modificar", "cobertura", "coberturas", "ampliar", "cambiar la poliza", "cambiar la póliza",
	}},
}

var ramoKeywords = map[string][]string{
	types.RamoHogar:   {"hogar", "casa", "vivienda", "piso"},
	types.RamoCoche:   {"coche", "vehiculo", "vehículo", "moto", "automovil", "automóvil"},
	types.RamoVida:    {"vida"},
	types.RamoSalud:   {"salud", "medico", "médico"},
	types.RamoDecesos: {"decesos"},
}

var urgencyKeywords = []string{"urgente", "siniestro", "accidente", "fuga", "robo"}

func (r *RulesReasoner) Classify(_ context.Context, in Input) (RawClassification, error) {
	dialogue := strings.ToLower(in.Dialogue)

	out := RawClassification{
		Type:       types.IncidentCommercialInquiry,
		Priority:   types.PriorityMedium,
		Confidence: 0.3,
	}
	matched := ""
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(dialogue, kw) {
				out.Type = rule.incidentType
				out.Confidence = rule.confidence
				matched = kw
				break
			}
		}
		if matched != "" {
			break
		}
	}

	// Ramo: fixed evaluation order keeps the answer reproducible.
	for _, ramo := range []string{types.RamoHogar, types.RamoCoche, types.RamoVida, types.RamoSalud, types.RamoDecesos} {
		found := false
		for _, kw := range ramoKeywords[ramo] {
			if strings.Contains(dialogue, kw) {
				out.Ramo = ramo
				out.Confidence += 0.05
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	for _, kw := range urgencyKeywords {
		if strings.Contains(dialogue, kw) {
			out.Priority = types.PriorityHigh
			break
		}
	}
	if out.Type == types.IncidentCommercialInquiry && out.Priority == types.PriorityMedium {
		out.Priority = types.PriorityLow
	}

	if matched != "" {
		out.Reason = fmt.Sprintf("keyword match: %q", matched)
	} else {
		out.Reason = "no intent keyword matched, defaulted to commercial inquiry"
	}
	out.Summary = fmt.Sprintf("Solicitud clasificada como %q por reglas deterministas.", out.Type)
	out.Context = "rules reasoner (offline fallback)"
	return out, nil
}
