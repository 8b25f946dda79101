package client

import (
	"regexp"
	"strings"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/toolresult"
	"call-decision-go/internal/transcript"
	"call-decision-go/internal/types"
)

// Resolution is the resolver's verdict on who the caller is.
type Resolution struct {
	ClientType      string
	Record          *types.ExtractedClientRecord
	Decision        types.ClientDecision
	LookupAttempted bool
}

var (
	dniPattern   = regexp.MustCompile(`\b(\d{8})[-\s]?([A-Za-z])\b`)
	niePattern   = regexp.MustCompile(`\b([XYZxyz])[-\s]?(\d{7})[-\s]?([A-Za-z])\b`)
	// Uppercase initials are required so "soy cliente" never passes as a name.
	namePattern  = regexp.MustCompile(`\b(?:[Mm]e llamo|[Mm]i nombre es|[Ss]oy)\s+([A-ZÁÉÍÓÚÑ][a-záéíóúñü]+(?:\s+(?:de |del |la )?[A-ZÁÉÍÓÚÑ][a-záéíóúñü]+){0,3})`)
	phonePattern = regexp.MustCompile(`\b[679]\d{8}\b`)
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
)

// Tool names that indicate the agent tried to look the caller up in the
// business system.
var lookupNameHints = []string{"cliente", "client", "identific", "busca", "lookup", "dni", "nif"}

// Resolve decides the caller's identity from the merged tool-result data,
// falling back to pattern extraction over the user's own turns. Tool-result
// identity always dominates conversation text.
func Resolve(turns []types.Turn, extracted toolresult.Result) Resolution {
	log := logger.Component("client-resolver")

	lookupAttempted := lookupWasAttempted(turns)

	// Confirmed identification through tools.
	if extracted.Client != nil && extracted.Client.ClientID != nil {
		log.WithField("client_id", *extracted.Client.ClientID).Debug("client confirmed via tool results")
		return Resolution{
			ClientType:      types.ClientTypeExisting,
			Record:          extracted.Client,
			LookupAttempted: lookupAttempted,
			Decision: types.ClientDecision{
				ShouldCreateClient: false,
				UseExistingClient:  true,
				ClientDataSource:   types.SourceToolResults,
			},
		}
	}

	textRecord := extractFromText(transcript.UserText(turns))

	// Partial tool data (no id) still dominates text; text fills the gaps.
	record := mergeRecords(extracted.Client, textRecord)
	source := types.SourceConversationText
	if extracted.Client != nil {
		source = types.SourceToolResults
	}

	if record == nil {
		log.Debug("no identity evidence in tools or dialogue")
		return Resolution{
			ClientType:      types.ClientTypeUnknown,
			LookupAttempted: lookupAttempted,
			Decision: types.ClientDecision{
				ShouldCreateClient: false,
				UseExistingClient:  false,
				ClientDataSource:   types.SourceNone,
			},
		}
	}

	// A lookup that ran cleanly and came back without a client means the
	// caller is genuinely not in the system. A lookup that never produced
	// usable output leaves the caller unconfirmed.
	clientType := types.ClientTypeExistingUnconfirmed
	shouldCreate := false
	if lookupAttempted && extracted.SuccessfulOutcomes > 0 {
		clientType = types.ClientTypeNew
		shouldCreate = true
	}

	log.WithFields(map[string]interface{}{
		"client_type":      clientType,
		"lookup_attempted": lookupAttempted,
		"data_source":      source,
	}).Debug("client resolved from dialogue evidence")

	return Resolution{
		ClientType:      clientType,
		Record:          record,
		LookupAttempted: lookupAttempted,
		Decision: types.ClientDecision{
			ShouldCreateClient: shouldCreate,
			UseExistingClient:  false,
			ClientDataSource:   source,
		},
	}
}

func lookupWasAttempted(turns []types.Turn) bool {
	for _, t := range turns {
		for _, call := range t.ToolCalls {
			name := strings.ToLower(call.ToolName)
			for _, hint := range lookupNameHints {
				if strings.Contains(name, hint) {
					return true
				}
			}
		}
	}
	return false
}

// extractFromText scans the user's turns for identity fragments. Returns nil
// when nothing plausible is found so absence stays explicit.
func extractFromText(text string) *types.ExtractedClientRecord {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var rec types.ExtractedClientRecord

	if m := namePattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		rec.FullName = &name
	}
	if m := niePattern.FindStringSubmatch(text); m != nil {
		id := strings.ToUpper(m[1] + m[2] + m[3])
		rec.NationalID = &id
	} else if m := dniPattern.FindStringSubmatch(text); m != nil {
		id := strings.ToUpper(m[1] + m[2])
		rec.NationalID = &id
	}
	if m := phonePattern.FindString(text); m != "" {
		rec.Phone = &m
	}
	if m := emailPattern.FindString(text); m != "" {
		email := strings.ToLower(m)
		rec.Email = &email
	}

	// A plausible identification needs at least a name or a national id;
	// a bare phone number in dialogue is not identity evidence.
	if rec.FullName == nil && rec.NationalID == nil {
		return nil
	}
	return &rec
}

// mergeRecords overlays text-derived fields under tool-derived ones.
func mergeRecords(tool, text *types.ExtractedClientRecord) *types.ExtractedClientRecord {
	if tool == nil {
		return text
	}
	if text == nil {
		return tool
	}
	merged := *tool
	if merged.FullName == nil {
		merged.FullName = text.FullName
	}
	if merged.NationalID == nil {
		merged.NationalID = text.NationalID
	}
	if merged.Phone == nil {
		merged.Phone = text.Phone
	}
	if merged.Email == nil {
		merged.Email = text.Email
	}
	return &merged
}
