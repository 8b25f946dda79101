package toolresult

import (
	"encoding/json"
	"strings"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

// Result is everything the tool outcomes of one conversation yielded. An
// empty Result is a valid outcome, not an error; the client resolver decides
// how to proceed without it.
type Result struct {
	Client        *types.ExtractedClientRecord
	Policies      []types.PolicyRecord
	OpenIncidents []types.OpenIncidentRecord
	Expirations   []types.PolicyExpiryRecord
	// SkippedOutcomes counts tool results that errored or failed to parse.
	SkippedOutcomes int
	// SuccessfulOutcomes counts tool results that parsed with status success.
	// The client resolver uses it to tell "lookup ran and found nothing"
	// apart from "lookup never produced usable output".
	SuccessfulOutcomes int
}

// The result_value document, parsed field-by-field. Every field is optional:
// the payload schema drifts across tool versions, so presence is always
// checked before use and absent never collapses into empty.
type envelope struct {
	Status  *string      `json:"status"`
	Message *string      `json:"message"`
	Data    *payloadData `json:"data"`
}

type payloadData struct {
	Clientes       []clientePayload    `json:"clientes"`
	DetallePolizas []polizaPayload     `json:"detalle_polizas"`
	Incidencias    []incidenciaPayload `json:"incidencias"`
	VtosPolizas    []vencimientoPayload `json:"vtos_polizas"`
}

type clientePayload struct {
	CodigoCliente *string `json:"codigo_cliente"`
	IDCliente     *string `json:"id_cliente"`
	NombreCliente *string `json:"nombre_cliente"`
	Nombre        *string `json:"nombre"`
	Email         *string `json:"email"`
	Telefono1     *string `json:"telefono_1"`
	Telefono2     *string `json:"telefono_2"`
	NIF           *string `json:"nif"`
	DNI           *string `json:"dni"`
}

type polizaPayload struct {
	CodigoCliente *string `json:"codigo_cliente"`
	Poliza        *string `json:"poliza"`
	NumeroPoliza  *string `json:"numero_poliza"`
	Ramo          *string `json:"ramo"`
	Matricula     *string `json:"matricula"`
	Direccion     *string `json:"direccion"`
}

type incidenciaPayload struct {
	CodigoCliente    *string `json:"codigo_cliente"`
	CodigoIncidencia *string `json:"codigo_incidencia"`
	TipoIncidencia   *string `json:"tipo_de_incidencia"`
	MotivoIncidencia *string `json:"motivo_de_incidencia"`
	Poliza           *string `json:"poliza"`
	Ramo             *string `json:"ramo"`
	FechaCreacion    *string `json:"fecha_creacion_incidencia"`
}

type vencimientoPayload struct {
	Poliza          *string `json:"poliza"`
	Ramo            *string `json:"ramo"`
	FechaVencimiento *string `json:"fecha_vencimiento"`
}

// Extract scans every tool outcome across the whole transcript, parses each
// result_value document and merges what it finds. A single bad outcome is
// skipped and logged, never fatal. When several outcomes identify a client,
// the one with the highest sequence wins.
func Extract(turns []types.Turn) Result {
	log := logger.Component("toolresult")

	var res Result
	policyIdx := map[string]int{}
	incidentIdx := map[string]int{}
	expiryIdx := map[string]int{}

	for _, turn := range turns {
		for _, outcome := range turn.ToolResults {
			outLog := log.WithFields(map[string]interface{}{
				"sequence":   turn.Sequence,
				"tool_name":  outcome.ToolName,
				"request_id": outcome.RequestID,
			})
			if outcome.IsError {
				outLog.Warn("tool outcome reported an error, skipping")
				res.SkippedOutcomes++
				continue
			}
			env, ok := parseEnvelope(outcome.ResultValue)
			if !ok {
				outLog.Warn("tool outcome payload is not parseable, skipping")
				res.SkippedOutcomes++
				continue
			}
			if env.Status == nil || !strings.EqualFold(*env.Status, "success") {
				outLog.Warn("tool outcome status is not success, skipping")
				res.SkippedOutcomes++
				continue
			}
			res.SuccessfulOutcomes++
			if env.Data == nil {
				continue
			}
			mergeData(&res, env.Data, policyIdx, incidentIdx, expiryIdx)
		}
	}

	log.WithFields(map[string]interface{}{
		"client_found":   res.Client != nil,
		"policies":       len(res.Policies),
		"open_incidents": len(res.OpenIncidents),
		"skipped":        res.SkippedOutcomes,
	}).Debug("tool result extraction finished")
	return res
}

// parseEnvelope decodes the double-serialized result_value. The raw string
// sometimes carries noise around the JSON document, so the first balanced
// object is recovered before unmarshalling.
func parseEnvelope(raw string) (envelope, bool) {
	var env envelope
	doc := firstJSONObject(raw)
	if doc == "" {
		return env, false
	}
	if err := json.Unmarshal([]byte(doc), &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

func mergeData(res *Result, data *payloadData, policyIdx, incidentIdx, expiryIdx map[string]int) {
	// clientes: first element of the latest successful identification is
	// canonical.
	if len(data.Clientes) > 0 {
		if rec := clientRecord(data.Clientes[0]); rec != nil {
			res.Client = rec
		}
	}

	for _, p := range data.DetallePolizas {
		number := firstValue(p.Poliza, p.NumeroPoliza)
		if number == "" {
			continue
		}
		rec := types.PolicyRecord{
			ClientID:     firstValue(p.CodigoCliente),
			PolicyNumber: number,
			Ramo:         types.NormalizeRamo(firstValue(p.Ramo)),
			Vehicle:      cleanPtr(p.Matricula),
			Address:      cleanPtr(p.Direccion),
		}
		if i, ok := policyIdx[number]; ok {
			res.Policies[i] = rec
		} else {
			policyIdx[number] = len(res.Policies)
			res.Policies = append(res.Policies, rec)
		}
	}

	for _, inc := range data.Incidencias {
		id := firstValue(inc.CodigoIncidencia)
		if id == "" {
			continue
		}
		rec := types.OpenIncidentRecord{
			ClientID:     firstValue(inc.CodigoCliente),
			IncidentID:   id,
			IncidentType: firstValue(inc.TipoIncidencia),
			ReasonCode:   firstValue(inc.MotivoIncidencia),
			PolicyNumber: firstValue(inc.Poliza),
			Ramo:         types.NormalizeRamo(firstValue(inc.Ramo)),
			CreatedDate:  firstValue(inc.FechaCreacion),
		}
		if i, ok := incidentIdx[id]; ok {
			res.OpenIncidents[i] = rec
		} else {
			incidentIdx[id] = len(res.OpenIncidents)
			res.OpenIncidents = append(res.OpenIncidents, rec)
		}
	}

	for _, vto := range data.VtosPolizas {
		number := firstValue(vto.Poliza)
		if number == "" {
			continue
		}
		key := number + "|" + firstValue(vto.FechaVencimiento)
		rec := types.PolicyExpiryRecord{
			PolicyNumber: number,
			Ramo:         types.NormalizeRamo(firstValue(vto.Ramo)),
			ExpiryDate:   firstValue(vto.FechaVencimiento),
		}
		if i, ok := expiryIdx[key]; ok {
			res.Expirations[i] = rec
		} else {
			expiryIdx[key] = len(res.Expirations)
			res.Expirations = append(res.Expirations, rec)
		}
	}
}

// clientRecord maps a clientes[] element onto the extracted record. A record
// with no usable field at all is treated as absent.
func clientRecord(c clientePayload) *types.ExtractedClientRecord {
	rec := types.ExtractedClientRecord{
		ClientID:       cleanPtr(c.CodigoCliente, c.IDCliente),
		FullName:       cleanPtr(c.NombreCliente, c.Nombre),
		Email:          cleanPtr(c.Email),
		Phone:          cleanPtr(c.Telefono1),
		SecondaryPhone: cleanPtr(c.Telefono2),
		NationalID:     cleanPtr(c.NIF, c.DNI),
	}
	if rec.ClientID == nil && rec.FullName == nil && rec.Email == nil &&
		rec.Phone == nil && rec.NationalID == nil {
		return nil
	}
	return &rec
}

// firstValue returns the first non-empty candidate, trimmed.
func firstValue(candidates ...*string) string {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if v := strings.TrimSpace(*c); v != "" {
			return v
		}
	}
	return ""
}

// cleanPtr is firstValue keeping pointer semantics: nil when nothing usable.
func cleanPtr(candidates ...*string) *string {
	if v := firstValue(candidates...); v != "" {
		return &v
	}
	return nil
}

// firstJSONObject finds the first balanced JSON object in a string, after
// stripping markdown fences some tool bridges wrap around payloads.
func firstJSONObject(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
