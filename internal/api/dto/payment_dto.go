package dto

import (
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
)

// CheckoutRequest payload.
type CheckoutRequest struct {
	PaymentType domain.PaymentType `json:"payment_type"`
	IssueID     string             `json:"issue_id"`
}

// CheckoutResponse carries the hosted checkout URL.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentResponse is the payment view returned by the API.
type PaymentResponse struct {
	ID            string             `json:"id"`
	TransactionID string             `json:"transaction_id"`
	Amount        int64              `json:"amount"`
	Currency      string             `json:"currency"`
	CustomerEmail string             `json:"customer_email"`
	CustomerName  string             `json:"customer_name,omitempty"`
	PaymentType   domain.PaymentType `json:"payment_type"`
	PaymentStatus string             `json:"payment_status"`
	IssueID       *string            `json:"issue_id,omitempty"`
	IssueTitle    *string            `json:"issue_title,omitempty"`
	PaidAt        time.Time          `json:"paid_at"`
}

// SettleResponse reports a settlement outcome.
type SettleResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// PaymentView maps a domain payment to its API shape.
func PaymentView(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerEmail: payment.CustomerEmail,
		CustomerName:  payment.CustomerName,
		PaymentType:   payment.PaymentType,
		PaymentStatus: payment.PaymentStatus,
		IssueID:       payment.IssueID,
		IssueTitle:    payment.IssueTitle,
		PaidAt:        payment.PaidAt,
	}
}
