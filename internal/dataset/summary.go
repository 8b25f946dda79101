package dataset

import (
	"strings"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

// Summary is a compact description of a call export, shown alongside batch
// results so reviewers can see what the batch contained.
type Summary struct {
	TotalCalls       int            `json:"total_calls"`
	TotalTurns       int            `json:"total_turns"`
	ByIntentKeyword  map[string]int `json:"by_intent_keyword"`
	ExampleUtterances []string      `json:"example_utterances"`
}

// Intent tokens scanned over user turns; the same vocabulary the rules
// reasoner keys on.
var intentTokens = []string{
	"contratar", "anular", "cancelar", "cobertura", "cuenta", "domiciliacion",
	"presupuesto", "siniestro", "urgente", "mas barato",
}

// Summarize walks the export and counts the crude intent signals.
func Summarize(records []ExportRecord) Summary {
	log := logger.Component("dataset.summary")

	s := Summary{ByIntentKeyword: map[string]int{}}
	for _, rec := range records {
		s.TotalCalls++
		s.TotalTurns += len(rec.Turns)
		for _, turn := range rec.Turns {
			if turn.Speaker != types.SpeakerUser {
				continue
			}
			lower := strings.ToLower(turn.Message)
			for _, token := range intentTokens {
				if strings.Contains(lower, token) {
					s.ByIntentKeyword[token]++
				}
			}
			if len(s.ExampleUtterances) < 5 {
				s.ExampleUtterances = append(s.ExampleUtterances, turn.Message)
			}
		}
	}

	log.WithFields(map[string]interface{}{
		"total_calls": s.TotalCalls,
		"total_turns": s.TotalTurns,
	}).Info("export summarized")
	return s
}
