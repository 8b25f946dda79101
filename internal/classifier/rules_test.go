package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-decision-go/internal/types"
)

func TestRulesReasoner_KeywordClassification(t *testing.T) {
	tests := []struct {
		name     string
		dialogue string
		wantType string
		wantRamo string
	}{
		{
			name:     "account change",
			dialogue: "user: quiero cambiar la cuenta bancaria de mis recibos",
			wantType: types.IncidentAccountChange,
		},
		{
			name:     "cancellation",
			dialogue: "user: llamo para anular el seguro del coche",
			wantType: types.IncidentCancellation,
			wantRamo: types.RamoCoche,
		},
		{
			name:     "retention",
			dialogue: "user: he visto una mejor oferta en otra compañía",
			wantType: types.IncidentRetention,
		},
		{
			name:     "new contract",
			dialogue: "user: me interesa un seguro de vida, ¿me pasan un presupuesto?",
			wantType: types.IncidentNewContract,
			wantRamo: types.RamoVida,
		},
		{
			name:     "modification",
			dialogue: "user: quiero ampliar las coberturas de mi póliza de hogar",
			wantType: types.IncidentPolicyModification,
			wantRamo: types.RamoHogar,
		},
		{
			name:     "default commercial inquiry",
			dialogue: "user: ¿a qué hora abren las oficinas?",
			wantType: types.IncidentCommercialInquiry,
		},
	}

	r := NewRulesReasoner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := r.Classify(context.Background(), Input{Dialogue: tt.dialogue})
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, raw.Type)
			assert.Equal(t, tt.wantRamo, raw.Ramo)
			assert.True(t, types.KnownIncidentType(raw.Type))
		})
	}
}

func TestRulesReasoner_IsDeterministic(t *testing.T) {
	r := NewRulesReasoner()
	in := Input{Dialogue: "user: quiero anular la póliza del coche, es urgente"}

	first, err := r.Classify(context.Background(), in)
	require.NoError(t, err)
	second, err := r.Classify(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRulesReasoner_UrgencyRaisesPriority(t *testing.T) {
	r := NewRulesReasoner()
	raw, err := r.Classify(context.Background(), Input{Dialogue: "user: he tenido un accidente con el coche, es urgente"})
	require.NoError(t, err)
	assert.Equal(t, types.PriorityHigh, raw.Priority)
}

func TestRulesReasoner_ConfidenceNeverClearsAutoCreateGate(t *testing.T) {
	// rule-based answers must always be routed to review
	r := NewRulesReasoner()
	for _, dialogue := range []string{
		"user: quiero información",
		"user: quiero anular el seguro del coche",
		"user: quiero cambiar la cuenta bancaria de la póliza de hogar",
	} {
		raw, err := r.Classify(context.Background(), Input{Dialogue: dialogue})
		require.NoError(t, err)
		assert.LessOrEqual(t, raw.Confidence, 0.5, dialogue)
	}
}

func TestRulesReasoner_DefaultInquiryIsLowPriority(t *testing.T) {
	r := NewRulesReasoner()
	raw, err := r.Classify(context.Background(), Input{Dialogue: "user: quiero información"})
	require.NoError(t, err)
	assert.Equal(t, types.PriorityLow, raw.Priority)
}
