package ticketing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"call-decision-go/internal/logger"
	"call-decision-go/internal/metrics"
	"call-decision-go/internal/types"
)

// AutoCreateThreshold gates automatic execution: a decision must carry
// confidence strictly above it before anything is written. Lower-confidence
// decisions are routed to human review untouched.
const AutoCreateThreshold = 0.5

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ApplyResult reports what the applier did with one decision.
type ApplyResult struct {
	RoutedToReview bool
	ClientID       string
	TicketID       string
	FollowUpID     string
}

// Applier executes a composed CallDecision against the ticketing store. It
// lives entirely outside the engine: the engine emits the decision and never
// calls persistence itself.
type Applier struct {
	db    db
	store Store
}

func NewApplier(db db, store Store) *Applier {
	return &Applier{db: db, store: store}
}

// Apply performs the decision's actions in one transaction. The decision
// value is never mutated.
func (a *Applier) Apply(ctx context.Context, decision types.CallDecision) (ApplyResult, error) {
	log := logger.Component("ticketing").WithField("conversation_id", decision.ConversationID)

	if decision.IncidentAnalysis.PrimaryIncident.Confidence <= AutoCreateThreshold {
		log.WithField("confidence", decision.IncidentAnalysis.PrimaryIncident.Confidence).
			Info("confidence at or below threshold, routing to review")
		metrics.ApplierResultsTotal.WithLabelValues("routed_to_review").Inc()
		return ApplyResult{RoutedToReview: true}, nil
	}

	tx, err := a.db.Begin(ctx)
	if err != nil {
		metrics.ApplierResultsTotal.WithLabelValues("failed").Inc()
		return ApplyResult{}, fmt.Errorf("ticketing: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := a.applyInTx(ctx, tx, decision)
	if err != nil {
		metrics.ApplierResultsTotal.WithLabelValues("failed").Inc()
		return ApplyResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.ApplierResultsTotal.WithLabelValues("failed").Inc()
		return ApplyResult{}, fmt.Errorf("ticketing: commit: %w", err)
	}

	metrics.ApplierResultsTotal.WithLabelValues("applied").Inc()
	log.WithFields(map[string]interface{}{
		"client_id":    res.ClientID,
		"ticket_id":    res.TicketID,
		"follow_up_id": res.FollowUpID,
	}).Info("decision applied")
	return res, nil
}

func (a *Applier) applyInTx(ctx context.Context, tx pgx.Tx, decision types.CallDecision) (ApplyResult, error) {
	var res ApplyResult
	var err error

	clientDecision := decision.Decisions.ClientDecision
	switch {
	case clientDecision.UseExistingClient:
		if decision.ClientInfo.ExistingClientInfo == nil {
			return res, fmt.Errorf("ticketing: decision uses existing client but carries no client id")
		}
		res.ClientID = decision.ClientInfo.ExistingClientInfo.ClientID
	case clientDecision.ShouldCreateClient:
		if decision.ClientInfo.ExtractedData == nil {
			return res, fmt.Errorf("ticketing: decision creates a client but carries no extracted data")
		}
		res.ClientID, err = a.store.CreateClient(ctx, tx, *decision.ClientInfo.ExtractedData)
		if err != nil {
			return res, err
		}
	}

	incident := decision.IncidentAnalysis.PrimaryIncident
	ticketDecision := decision.Decisions.TicketDecision
	switch {
	case ticketDecision.CreateFollowUp:
		if ticketDecision.RelatedTicketID == nil {
			return res, fmt.Errorf("ticketing: follow-up decision without related ticket id")
		}
		res.FollowUpID, err = a.store.CreateFollowUp(ctx, tx, FollowUp{
			ConversationID:  decision.ConversationID,
			RelatedTicketID: *ticketDecision.RelatedTicketID,
			ClientID:        res.ClientID,
			Summary:         incident.Summary,
		})
	case ticketDecision.CreateTicket:
		res.TicketID, err = a.store.CreateTicket(ctx, tx, Ticket{
			ConversationID: decision.ConversationID,
			ClientID:       res.ClientID,
			IncidentType:   incident.Type,
			Reason:         incident.Reason,
			Ramo:           incident.Ramo,
			PolicyNumber:   incident.AffectedPolicyNumber,
			Priority:       incident.Priority,
			Summary:        incident.Summary,
		})
	}
	return res, err
}
