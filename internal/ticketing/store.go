package ticketing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"call-decision-go/internal/types"
)

// Ticket is a new incident opened from a composed decision.
type Ticket struct {
	ConversationID string
	ClientID       string
	IncidentType   string
	Reason         string
	Ramo           string
	PolicyNumber   *string
	Priority       string
	Summary        string
}

// FollowUp attaches a call to an already-open incident.
type FollowUp struct {
	ConversationID  string
	RelatedTicketID string
	ClientID        string
	Summary         string
}

// Store is the persistence side of the decision boundary. All writes happen
// inside the transaction the applier opened, so a decision is applied fully
// or not at all.
type Store interface {
	CreateClient(ctx context.Context, tx pgx.Tx, rec types.ExtractedClientRecord) (string, error)
	CreateTicket(ctx context.Context, tx pgx.Tx, t Ticket) (string, error)
	CreateFollowUp(ctx context.Context, tx pgx.Tx, f FollowUp) (string, error)
}

// PostgresStore writes clients, tickets and follow-ups with plain SQL.
type PostgresStore struct{}

func NewPostgresStore() *PostgresStore { return &PostgresStore{} }

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) CreateClient(ctx context.Context, tx pgx.Tx, rec types.ExtractedClientRecord) (string, error) {
	id := uuid.New().String()
	_, err := tx.Exec(ctx, `
		INSERT INTO clients (id, full_name, email, phone, secondary_phone, national_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, rec.FullName, rec.Email, rec.Phone, rec.SecondaryPhone, rec.NationalID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("ticketing: insert client: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) CreateTicket(ctx context.Context, tx pgx.Tx, t Ticket) (string, error) {
	id := uuid.New().String()
	_, err := tx.Exec(ctx, `
		INSERT INTO tickets (id, conversation_id, client_id, incident_type, reason, ramo, policy_number, priority, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, t.ConversationID, t.ClientID, t.IncidentType, t.Reason, t.Ramo, t.PolicyNumber, t.Priority, t.Summary, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("ticketing: insert ticket: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) CreateFollowUp(ctx context.Context, tx pgx.Tx, f FollowUp) (string, error) {
	id := uuid.New().String()
	_, err := tx.Exec(ctx, `
		INSERT INTO ticket_follow_ups (id, conversation_id, related_ticket_id, client_id, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, f.ConversationID, f.RelatedTicketID, f.ClientID, f.Summary, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("ticketing: insert follow-up: %w", err)
	}
	return id, nil
}
