package domain

import "time"

// PaymentType enumerates what a payment buys.
type PaymentType string

const (
	PaymentTypeBoostIssue   PaymentType = "boost_issue"
	PaymentTypeSubscription PaymentType = "subscription"
)

// Valid reports whether the payment type is one of the known set.
func (t PaymentType) Valid() bool {
	return t == PaymentTypeBoostIssue || t == PaymentTypeSubscription
}

// Payment is a settled payment record. TransactionID is the processor-issued
// identifier and doubles as the idempotency key: at most one row exists per
// transaction id regardless of how many settlement calls reference it.
type Payment struct {
	ID            string
	TransactionID string
	Amount        int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	PaymentType   PaymentType
	PaymentStatus string
	IssueID       *string
	IssueTitle    *string
	PaidAt        time.Time
}
