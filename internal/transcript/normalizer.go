package transcript

import (
	"errors"
	"fmt"
	"sort"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/types"
)

// ErrEmptyTranscript aborts the pipeline before any stage runs; no decision
// can be produced for a conversation with no turns.
var ErrEmptyTranscript = errors.New("empty transcript")

// MalformedTranscriptError marks a turn that cannot be normalized. It is
// fatal for the whole conversation: the input must be fixed, not retried.
type MalformedTranscriptError struct {
	Sequence int
	Reason   string
}

func (e *MalformedTranscriptError) Error() string {
	return fmt.Sprintf("malformed turn (sequence=%d): %s", e.Sequence, e.Reason)
}

// Normalize orders the raw turn list by sequence and validates every turn.
// Sequences need not be contiguous, only unique and orderable. The input
// slice is never mutated.
func Normalize(turns []types.Turn) ([]types.Turn, error) {
	if len(turns) == 0 {
		return nil, ErrEmptyTranscript
	}

	log := logger.Component("transcript")

	out := make([]types.Turn, len(turns))
	copy(out, turns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })

	seen := make(map[int]struct{}, len(out))
	for _, t := range out {
		if _, dup := seen[t.Sequence]; dup {
			return nil, &MalformedTranscriptError{Sequence: t.Sequence, Reason: "duplicate sequence"}
		}
		seen[t.Sequence] = struct{}{}

		switch t.Speaker {
		case types.SpeakerAgent, types.SpeakerUser:
		case "":
			return nil, &MalformedTranscriptError{Sequence: t.Sequence, Reason: "missing speaker"}
		default:
			return nil, &MalformedTranscriptError{Sequence: t.Sequence, Reason: "unknown speaker " + t.Speaker}
		}

		if t.Message == "" {
			return nil, &MalformedTranscriptError{Sequence: t.Sequence, Reason: "missing message"}
		}
		if t.SegmentEndTime < t.SegmentStartTime {
			return nil, &MalformedTranscriptError{Sequence: t.Sequence, Reason: "segment end before start"}
		}
	}

	log.WithField("turns", len(out)).Debug("transcript normalized")
	return out, nil
}

// UserText concatenates the user-spoken turns in order; used by the
// conversation-text identity fallback.
func UserText(turns []types.Turn) string {
	var out string
	for _, t := range turns {
		if t.Speaker != types.SpeakerUser {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += t.Message
	}
	return out
}

// Dialogue renders the full conversation as speaker-prefixed lines for the
// reasoning prompt.
func Dialogue(turns []types.Turn) string {
	var out string
	for _, t := range turns {
		if out != "" {
			out += "\n"
		}
		out += t.Speaker + ": " + t.Message
	}
	return out
}
