package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
)

// InvoiceDocument is the fixed-layout invoice rendered for a stored payment:
// header, invoice metadata, billed-to block, payment details.
type InvoiceDocument struct {
	Header   InvoiceHeader  `json:"header"`
	Invoice  InvoiceMeta    `json:"invoice"`
	BilledTo BilledTo       `json:"billed_to"`
	Details  PaymentDetails `json:"payment_details"`
}

// InvoiceHeader is the document title block.
type InvoiceHeader struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
}

// InvoiceMeta identifies the invoice.
type InvoiceMeta struct {
	Number        string    `json:"number"`
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"date"`
}

// BilledTo identifies the paying customer.
type BilledTo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PaymentDetails describes what was paid for.
type PaymentDetails struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	IssueID     string `json:"issue_id,omitempty"`
	IssueTitle  string `json:"issue_title,omitempty"`
}

func buildInvoice(payment *domain.Payment) *InvoiceDocument {
	description := "Premium subscription"
	if payment.PaymentType == domain.PaymentTypeBoostIssue {
		description = "Issue boost"
		if payment.IssueTitle != nil {
			description = "Issue boost: " + *payment.IssueTitle
		}
	}

	doc := &InvoiceDocument{
		Header: InvoiceHeader{
			Title:       "Payment Invoice",
			GeneratedAt: time.Now(),
		},
		Invoice: InvoiceMeta{
			Number:        invoiceNumber(payment),
			TransactionID: payment.TransactionID,
			Date:          payment.PaidAt,
		},
		BilledTo: BilledTo{
			Name:  payment.CustomerName,
			Email: payment.CustomerEmail,
		},
		Details: PaymentDetails{
			Description: description,
			Type:        string(payment.PaymentType),
			Amount:      payment.Amount,
			Currency:    strings.ToUpper(payment.Currency),
			Status:      payment.PaymentStatus,
		},
	}
	if payment.IssueID != nil {
		doc.Details.IssueID = *payment.IssueID
	}
	if payment.IssueTitle != nil {
		doc.Details.IssueTitle = *payment.IssueTitle
	}
	return doc
}

func invoiceNumber(payment *domain.Payment) string {
	suffix := payment.ID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("INV-%s-%s", payment.PaidAt.Format("20060102"), strings.ToUpper(suffix))
}
