package events

import (
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueRejected      EventType = "issue_rejected"
	EventPaymentSettled     EventType = "payment_settled"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category domain.IssueCategory `json:"category"`
	Location string               `json:"location"`
	Title    string               `json:"title"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	StaffID    string `json:"staff_id"`
	StaffEmail string `json:"staff_email"`
}

// PaymentSettledPayload payload.
type PaymentSettledPayload struct {
	TransactionID string             `json:"transaction_id"`
	PaymentType   domain.PaymentType `json:"payment_type"`
	Amount        int64              `json:"amount"`
	Currency      string             `json:"currency"`
}
