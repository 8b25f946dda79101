package types

import "strings"

// Closed incident-type taxonomy. The classifier rejects anything outside
// this set rather than silently accepting a made-up label.
const (
	IncidentNewContract        = "Nueva contratación de seguros"
	IncidentPolicyModification = "Modificación póliza emitida"
	IncidentCancellation       = "Anulación de póliza"
	IncidentAccountChange      = "Cambio de cuenta bancaria"
	IncidentCommercialInquiry  = "Consulta comercial"
	IncidentRetention          = "Retención de cliente"
)

var incidentTypes = map[string]struct{}{
	IncidentNewContract:        {},
	IncidentPolicyModification: {},
	IncidentCancellation:       {},
	IncidentAccountChange:      {},
	IncidentCommercialInquiry:  {},
	IncidentRetention:          {},
}

// KnownIncidentType reports whether label belongs to the closed taxonomy.
func KnownIncidentType(label string) bool {
	_, ok := incidentTypes[strings.TrimSpace(label)]
	return ok
}

// IncidentTypes returns the closed taxonomy in a stable order, for prompts
// and error messages.
func IncidentTypes() []string {
	return []string{
		IncidentNewContract,
		IncidentPolicyModification,
		IncidentCancellation,
		IncidentAccountChange,
		IncidentCommercialInquiry,
		IncidentRetention,
	}
}

// Canonical insurance lines (ramos).
const (
	RamoHogar   = "HOGAR"
	RamoCoche   = "COCHE"
	RamoVida    = "VIDA"
	RamoSalud   = "SALUD"
	RamoDecesos = "DECESOS"
	RamoOtros   = "OTROS"
)

// ramoAliases maps the spellings seen in tool payloads and dialogue to the
// canonical tokens. Tool schemas drift, so matching is lenient on case and
// common synonyms.
var ramoAliases = map[string]string{
	"hogar":   RamoHogar,
	"casa":    RamoHogar,
	"vivienda": RamoHogar,
	"coche":   RamoCoche,
	"auto":    RamoCoche,
	"automovil": RamoCoche,
	"automóvil": RamoCoche,
	"moto":    RamoCoche,
	"vida":    RamoVida,
	"salud":   RamoSalud,
	"decesos": RamoDecesos,
	"otros":   RamoOtros,
}

// NormalizeRamo maps a free-form line-of-business value to its canonical
// token. Unknown values come back as RamoOtros; empty stays empty so absence
// is not confused with "other".
func NormalizeRamo(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	if canonical, ok := ramoAliases[v]; ok {
		return canonical
	}
	// payloads sometimes carry the canonical token already
	upper := strings.ToUpper(v)
	switch upper {
	case RamoHogar, RamoCoche, RamoVida, RamoSalud, RamoDecesos, RamoOtros:
		return upper
	}
	return RamoOtros
}
