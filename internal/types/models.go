package types

import "encoding/json"

// Speakers on a transcript turn.
const (
	SpeakerAgent = "agent"
	SpeakerUser  = "user"
)

// Client types produced by the resolver.
const (
	ClientTypeExisting            = "existing"
	ClientTypeExistingUnconfirmed = "existing-unconfirmed"
	ClientTypeNew                 = "new"
	ClientTypeUnknown             = "unknown"
)

// Where the client identity came from. Tool results dominate conversation
// text whenever both are present.
const (
	SourceToolResults      = "tool_results"
	SourceConversationText = "conversation_text"
	SourceNone             = "none"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// RawTranscript is the inbound payload from the call-recording collaborator.
type RawTranscript struct {
	ConversationID string `json:"conversation_id"`
	Turns          []Turn `json:"transcript"`
}

// Turn is one utterance plus any tool activity that happened during it.
// Field names follow the recording platform's export format exactly.
type Turn struct {
	Sequence         int              `json:"sequence"`
	Speaker          string           `json:"speaker"`
	Message          string           `json:"message"`
	SegmentStartTime float64          `json:"segment_start_time"`
	SegmentEndTime   float64          `json:"segment_end_time"`
	ToolCalls        []ToolInvocation `json:"tool_calls,omitempty"`
	ToolResults      []ToolOutcome    `json:"tool_results,omitempty"`
}

type ToolInvocation struct {
	ToolName  string          `json:"tool_name"`
	RequestID string          `json:"request_id"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolOutcome carries the result of a tool invocation. ResultValue is a
// string holding an independently-encoded JSON document (double
// serialization); the toolresult package parses it defensively.
type ToolOutcome struct {
	Type              string  `json:"type"`
	IsError           bool    `json:"is_error"`
	ToolName          string  `json:"tool_name"`
	RequestID         string  `json:"request_id"`
	ResultValue       string  `json:"result_value"`
	ToolLatencySecs   float64 `json:"tool_latency_secs"`
	ToolHasBeenCalled bool    `json:"tool_has_been_called"`
}

// ExtractedClientRecord holds identity fields recovered from tool results or
// conversation text. Every field is a pointer so "unknown" stays
// distinguishable from "confirmed empty"; nothing here is ever invented.
type ExtractedClientRecord struct {
	ClientID       *string `json:"clientId,omitempty"`
	FullName       *string `json:"fullName,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	SecondaryPhone *string `json:"secondaryPhone,omitempty"`
	NationalID     *string `json:"nationalId,omitempty"`
}

type PolicyRecord struct {
	ClientID     string  `json:"clientId"`
	PolicyNumber string  `json:"policyNumber"`
	Ramo         string  `json:"ramo"`
	Vehicle      *string `json:"vehicle,omitempty"`
	Address      *string `json:"address,omitempty"`
}

type OpenIncidentRecord struct {
	ClientID     string `json:"clientId"`
	IncidentID   string `json:"incidentId"`
	IncidentType string `json:"incidentType"`
	ReasonCode   string `json:"reasonCode"`
	PolicyNumber string `json:"policyNumber"`
	Ramo         string `json:"ramo"`
	CreatedDate  string `json:"createdDate"`
}

// PolicyExpiryRecord comes from the vtos_polizas payload block. It is carried
// as reasoning context (retention calls); no decision rule consumes it.
type PolicyExpiryRecord struct {
	PolicyNumber string `json:"policyNumber"`
	Ramo         string `json:"ramo"`
	ExpiryDate   string `json:"expiryDate"`
}

// PrimaryIncident is the classified request. Exactly one per CallDecision.
type PrimaryIncident struct {
	Type                 string   `json:"type"`
	Reason               string   `json:"reason"`
	Ramo                 string   `json:"ramo"`
	AffectedPolicyNumber *string  `json:"numeroPolizaAfectada"`
	Priority             string   `json:"priority"`
	Confidence           float64  `json:"confidence"`
	Summary              string   `json:"summary"`
	Context              string   `json:"context,omitempty"`
	RequiredData         []string `json:"requiredData,omitempty"`
}

// FollowUpInfo: RelatedTicketID is set iff IsFollowUp is true.
type FollowUpInfo struct {
	IsFollowUp      bool    `json:"isFollowUp"`
	RelatedTicketID *string `json:"relatedTicketId"`
	CreateNewTicket bool    `json:"createNewTicket"`
}

// ClientDecision: ShouldCreateClient and UseExistingClient are mutually
// exclusive.
type ClientDecision struct {
	ShouldCreateClient bool   `json:"shouldCreateClient"`
	UseExistingClient  bool   `json:"useExistingClient"`
	ClientDataSource   string `json:"clientDataSource"`
}

type TicketDecision struct {
	CreateTicket    bool    `json:"createTicket"`
	CreateFollowUp  bool    `json:"createFollowUp"`
	RelatedTicketID *string `json:"relatedTicketId,omitempty"`
}

type ExistingClientInfo struct {
	ClientID string `json:"clientId"`
}

type ClientInfo struct {
	ClientType         string                 `json:"clientType"`
	ExistingClientInfo *ExistingClientInfo    `json:"existingClientInfo,omitempty"`
	ExtractedData      *ExtractedClientRecord `json:"extractedData,omitempty"`
}

type IncidentAnalysis struct {
	PrimaryIncident PrimaryIncident `json:"primaryIncident"`
	FollowUpInfo    FollowUpInfo    `json:"followUpInfo"`
}

type Decisions struct {
	ClientDecision ClientDecision `json:"clientDecision"`
	TicketDecision TicketDecision `json:"ticketDecision"`
}

// CallDecision is the single boundary artifact handed to the ticketing
// collaborator. Produced once per conversation, never mutated afterwards.
type CallDecision struct {
	ConversationID   string           `json:"conversationId"`
	ClientInfo       ClientInfo       `json:"clientInfo"`
	IncidentAnalysis IncidentAnalysis `json:"incidentAnalysis"`
	Decisions        Decisions        `json:"decisions"`
}

// StrPtr is a small helper for optional string fields.
func StrPtr(s string) *string { return &s }
