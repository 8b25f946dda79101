package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-decision-go/internal/types"
)

// ExportRecord is one row of a telephony-platform call export: the
// conversation id plus its transcript, embedded as a JSON column.
type ExportRecord struct {
	ConversationID string       `json:"conversation_id"`
	AgentID        string       `json:"agent_id,omitempty"`
	StartedAt      string       `json:"started_at,omitempty"`
	Turns          []types.Turn `json:"transcript"`
}

// Load reads a call-export workbook, auto-detecting columns by header
// heuristics (export templates drift between platform versions).
func Load(path string) ([]ExportRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	convIdx := -1
	agentIdx := -1
	startedIdx := -1
	transcriptIdx := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case transcriptIdx == -1 && (strings.Contains(l, "transcript") || strings.Contains(l, "turno") || strings.Contains(l, "turns")):
			transcriptIdx = i
		case convIdx == -1 && (strings.Contains(l, "conversation") || strings.Contains(l, "conversacion") || strings.Contains(l, "conversación") || strings.Contains(l, "call id") || l == "id"):
			convIdx = i
		case agentIdx == -1 && strings.Contains(l, "agent"):
			agentIdx = i
		case startedIdx == -1 && (strings.Contains(l, "start") || strings.Contains(l, "fecha") || strings.Contains(l, "date")):
			startedIdx = i
		}
	}
	if transcriptIdx == -1 {
		return nil, fmt.Errorf("no transcript column detected")
	}

	var out []ExportRecord
	for i, r := range rows {
		if i == 0 {
			continue
		}
		rec := ExportRecord{}
		if convIdx >= 0 && convIdx < len(r) {
			rec.ConversationID = strings.TrimSpace(r[convIdx])
		}
		if agentIdx >= 0 && agentIdx < len(r) {
			rec.AgentID = strings.TrimSpace(r[agentIdx])
		}
		if startedIdx >= 0 && startedIdx < len(r) {
			rec.StartedAt = strings.TrimSpace(r[startedIdx])
		}
		if transcriptIdx >= len(r) {
			continue
		}
		// rows whose transcript column does not decode are skipped quietly
		if err := json.Unmarshal([]byte(r[transcriptIdx]), &rec.Turns); err != nil || len(rec.Turns) == 0 {
			continue
		}
		if rec.ConversationID == "" {
			rec.ConversationID = fmt.Sprintf("export-row-%d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}
