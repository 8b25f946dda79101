package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-decision-go/internal/classifier"
	"call-decision-go/internal/transcript"
	"call-decision-go/internal/types"
)

type scriptedReasoner struct {
	raw   classifier.RawClassification
	err   error
	delay time.Duration
}

func (s *scriptedReasoner) Name() string { return "scripted" }

func (s *scriptedReasoner) Classify(ctx context.Context, _ classifier.Input) (classifier.RawClassification, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return classifier.RawClassification{}, ctx.Err()
		}
	}
	return s.raw, s.err
}

const cocheLookup = `{
  "status": "success",
  "data": {
    "clientes": [{"codigo_cliente": "CL-001", "nombre_cliente": "María García López", "nif": "12345678Z"}],
    "detalle_polizas": [{"codigo_cliente": "CL-001", "poliza": "POL-COCHE-77", "ramo": "coche"}]
  }
}`

func conversation(userIntent, lookupPayload string) []types.Turn {
	turns := []types.Turn{
		{Sequence: 1, Speaker: types.SpeakerAgent, Message: "buenos días, ¿en qué puedo ayudarle?"},
		{Sequence: 2, Speaker: types.SpeakerUser, Message: userIntent},
	}
	if lookupPayload != "" {
		turns = append(turns, types.Turn{
			Sequence: 3,
			Speaker:  types.SpeakerAgent,
			Message:  "un momento, le busco en el sistema",
			ToolCalls: []types.ToolInvocation{{
				ToolName:  "identificar_cliente",
				RequestID: "req-1",
			}},
			ToolResults: []types.ToolOutcome{{
				Type:        "tool_result",
				ToolName:    "identificar_cliente",
				RequestID:   "req-1",
				ResultValue: lookupPayload,
			}},
		})
	}
	return turns
}

func TestAnalyzeCall_NovelLineBecomesNewContract(t *testing.T) {
	// an identified coche-only client asking about vida is new business
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{
		Type:       types.IncidentCommercialInquiry,
		Ramo:       "vida",
		Confidence: 0.8,
	}}
	eng := New(reasoner, time.Second)

	decision, err := eng.AnalyzeCall(context.Background(),
		conversation("me interesa un seguro de vida", cocheLookup), "conv-1")
	require.NoError(t, err)

	assert.Equal(t, "conv-1", decision.ConversationID)
	assert.Equal(t, types.ClientTypeExisting, decision.ClientInfo.ClientType)
	require.NotNil(t, decision.ClientInfo.ExistingClientInfo)
	assert.Equal(t, "CL-001", decision.ClientInfo.ExistingClientInfo.ClientID)
	assert.Equal(t, types.IncidentNewContract, decision.IncidentAnalysis.PrimaryIncident.Type)
	assert.Equal(t, types.RamoVida, decision.IncidentAnalysis.PrimaryIncident.Ramo)
	assert.Nil(t, decision.IncidentAnalysis.PrimaryIncident.AffectedPolicyNumber)
	assert.False(t, decision.IncidentAnalysis.FollowUpInfo.IsFollowUp)
	assert.True(t, decision.Decisions.TicketDecision.CreateTicket)
	assert.False(t, decision.Decisions.TicketDecision.CreateFollowUp)
	assert.False(t, decision.Decisions.ClientDecision.ShouldCreateClient)
	assert.True(t, decision.Decisions.ClientDecision.UseExistingClient)
}

func TestAnalyzeCall_AccountChangeWithoutOpenIncidents(t *testing.T) {
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{
		Type:       types.IncidentAccountChange,
		Ramo:       "coche",
		Confidence: 0.9,
	}}
	eng := New(reasoner, time.Second)

	decision, err := eng.AnalyzeCall(context.Background(),
		conversation("quiero cambiar la cuenta bancaria de mi póliza POL-COCHE-77", cocheLookup), "conv-2")
	require.NoError(t, err)

	// the policy explicitly named in dialogue is the affected one
	incident := decision.IncidentAnalysis.PrimaryIncident
	assert.Equal(t, types.IncidentAccountChange, incident.Type)
	require.NotNil(t, incident.AffectedPolicyNumber)
	assert.Equal(t, "POL-COCHE-77", *incident.AffectedPolicyNumber)

	// no open incidents: a ticket, never a follow-up
	assert.False(t, decision.IncidentAnalysis.FollowUpInfo.IsFollowUp)
	assert.True(t, decision.Decisions.TicketDecision.CreateTicket)
	assert.Nil(t, decision.Decisions.TicketDecision.RelatedTicketID)
	assert.True(t, decision.Decisions.ClientDecision.UseExistingClient)
	assert.False(t, decision.Decisions.ClientDecision.ShouldCreateClient)
}

func TestAnalyzeCall_FollowUpOnOpenIncident(t *testing.T) {
	withIncident := `{
  "status": "success",
  "data": {
    "clientes": [{"codigo_cliente": "CL-001", "nombre_cliente": "María García López"}],
    "detalle_polizas": [{"codigo_cliente": "CL-001", "poliza": "POL-HOGAR-12", "ramo": "hogar"}],
    "incidencias": [{"codigo_cliente": "CL-001", "codigo_incidencia": "INC-9", "poliza": "POL-HOGAR-12", "ramo": "hogar", "fecha_creacion_incidencia": "2025-07-01"}]
  }
}`
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{
		Type:       types.IncidentPolicyModification,
		Ramo:       "hogar",
		Confidence: 0.85,
	}}
	eng := New(reasoner, time.Second)

	decision, err := eng.AnalyzeCall(context.Background(),
		conversation("llamo por la modificación de mi póliza de hogar", withIncident), "conv-3")
	require.NoError(t, err)

	fu := decision.IncidentAnalysis.FollowUpInfo
	require.True(t, fu.IsFollowUp)
	require.NotNil(t, fu.RelatedTicketID)
	assert.Equal(t, "INC-9", *fu.RelatedTicketID)
	assert.True(t, decision.Decisions.TicketDecision.CreateFollowUp)
	assert.False(t, decision.Decisions.TicketDecision.CreateTicket)
}

func TestAnalyzeCall_MalformedPayloadStillComposes(t *testing.T) {
	// the lookup blew up mid-payload; the caller self-identified in dialogue
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{
		Type:       types.IncidentCancellation,
		Ramo:       "hogar",
		Confidence: 0.7,
	}}
	eng := New(reasoner, time.Second)

	turns := conversation("me llamo Juan Pérez, quiero anular mi seguro de hogar", "esto no es json {{{")
	decision, err := eng.AnalyzeCall(context.Background(), turns, "conv-4")
	require.NoError(t, err)

	assert.Equal(t, types.ClientTypeExistingUnconfirmed, decision.ClientInfo.ClientType)
	assert.Nil(t, decision.ClientInfo.ExistingClientInfo)
	require.NotNil(t, decision.ClientInfo.ExtractedData)
	assert.Equal(t, "Juan Pérez", *decision.ClientInfo.ExtractedData.FullName)
	assert.Equal(t, types.SourceConversationText, decision.Decisions.ClientDecision.ClientDataSource)
	assert.Equal(t, types.IncidentCancellation, decision.IncidentAnalysis.PrimaryIncident.Type)
}

func TestAnalyzeCall_EmptyTranscriptIsInputError(t *testing.T) {
	eng := New(&scriptedReasoner{}, time.Second)

	_, err := eng.AnalyzeCall(context.Background(), nil, "conv-5")
	var pipeline *PipelineError
	require.True(t, errors.As(err, &pipeline))
	assert.Equal(t, StageNormalized, pipeline.Stage)

	var input *InputError
	assert.True(t, errors.As(err, &input))
	assert.ErrorIs(t, err, transcript.ErrEmptyTranscript)
}

func TestAnalyzeCall_MalformedTurnIsInputError(t *testing.T) {
	eng := New(&scriptedReasoner{}, time.Second)

	turns := []types.Turn{{Sequence: 1, Speaker: "system", Message: "hola"}}
	_, err := eng.AnalyzeCall(context.Background(), turns, "conv-6")

	var input *InputError
	require.True(t, errors.As(err, &input))
	var malformed *transcript.MalformedTranscriptError
	assert.True(t, errors.As(err, &malformed))
}

func TestAnalyzeCall_ReasonerTimeoutSurfacesAsUnavailable(t *testing.T) {
	reasoner := &scriptedReasoner{delay: 500 * time.Millisecond}
	eng := New(reasoner, 10*time.Millisecond)

	_, err := eng.AnalyzeCall(context.Background(),
		conversation("quiero información", ""), "conv-7")

	var pipeline *PipelineError
	require.True(t, errors.As(err, &pipeline))
	assert.Equal(t, StageIncidentClassified, pipeline.Stage)

	var unavailable *classifier.ReasoningUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestAnalyzeCall_UnknownLabelFailsClassificationStage(t *testing.T) {
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{Type: "Categoría inventada"}}
	eng := New(reasoner, time.Second)

	_, err := eng.AnalyzeCall(context.Background(),
		conversation("hola", ""), "conv-8")

	var taxonomy *classifier.UnknownTaxonomyError
	require.True(t, errors.As(err, &taxonomy))
	assert.Equal(t, "Categoría inventada", taxonomy.Label)
}

func TestAnalyzeCall_IsDeterministicForSameTranscript(t *testing.T) {
	reasoner := &scriptedReasoner{raw: classifier.RawClassification{
		Type:       types.IncidentAccountChange,
		Ramo:       "coche",
		Confidence: 0.9,
	}}
	eng := New(reasoner, time.Second)
	turns := conversation("quiero cambiar la cuenta bancaria", cocheLookup)

	first, err := eng.AnalyzeCall(context.Background(), turns, "conv-9")
	require.NoError(t, err)
	second, err := eng.AnalyzeCall(context.Background(), turns, "conv-9")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
