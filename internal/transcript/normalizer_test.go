package transcript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-decision-go/internal/types"
)

func TestNormalize_OrdersBySequence(t *testing.T) {
	turns := []types.Turn{
		{Sequence: 3, Speaker: types.SpeakerUser, Message: "quiero anular mi póliza"},
		{Sequence: 1, Speaker: types.SpeakerAgent, Message: "buenos días"},
		{Sequence: 2, Speaker: types.SpeakerUser, Message: "hola"},
	}

	out, err := Normalize(turns)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].Sequence, out[1].Sequence, out[2].Sequence})

	// input slice untouched
	assert.Equal(t, 3, turns[0].Sequence)
}

func TestNormalize_NonContiguousSequencesAreFine(t *testing.T) {
	turns := []types.Turn{
		{Sequence: 10, Speaker: types.SpeakerAgent, Message: "buenos días"},
		{Sequence: 40, Speaker: types.SpeakerUser, Message: "hola"},
	}
	out, err := Normalize(turns)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestNormalize_EmptyTranscript(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestNormalize_RejectsMalformedTurns(t *testing.T) {
	tests := []struct {
		name string
		turn types.Turn
	}{
		{
			name: "missing speaker",
			turn: types.Turn{Sequence: 1, Message: "hola"},
		},
		{
			name: "unknown speaker",
			turn: types.Turn{Sequence: 1, Speaker: "system", Message: "hola"},
		},
		{
			name: "missing message",
			turn: types.Turn{Sequence: 1, Speaker: types.SpeakerUser},
		},
		{
			name: "segment end before start",
			turn: types.Turn{Sequence: 1, Speaker: types.SpeakerUser, Message: "hola", SegmentStartTime: 5, SegmentEndTime: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]types.Turn{tt.turn})
			var malformed *MalformedTranscriptError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, 1, malformed.Sequence)
		})
	}
}

func TestNormalize_RejectsDuplicateSequence(t *testing.T) {
	turns := []types.Turn{
		{Sequence: 1, Speaker: types.SpeakerAgent, Message: "buenos días"},
		{Sequence: 1, Speaker: types.SpeakerUser, Message: "hola"},
	}
	_, err := Normalize(turns)
	var malformed *MalformedTranscriptError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Error(), "duplicate sequence")
}

func TestUserTextAndDialogue(t *testing.T) {
	turns := []types.Turn{
		{Sequence: 1, Speaker: types.SpeakerAgent, Message: "buenos días"},
		{Sequence: 2, Speaker: types.SpeakerUser, Message: "hola, soy María"},
	}
	assert.Equal(t, "hola, soy María", UserText(turns))
	assert.Equal(t, "agent: buenos días\nuser: hola, soy María", Dialogue(turns))
}
