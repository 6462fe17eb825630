package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/billing"
	"github.com/civita-labs/civic-report/internal/config"
	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/events"
	"github.com/civita-labs/civic-report/internal/persistence"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// PaymentService opens checkout sessions with the external processor and
// settles confirmed payments into local records exactly once.
type PaymentService struct {
	payments   repository.PaymentRepository
	issues     repository.IssueRepository
	users      repository.UserRepository
	timelines  repository.TimelineRepository
	provider   billing.CheckoutProvider
	dispatcher events.Dispatcher
	cache      *issueListCache
	cfg        config.BillingConfig
	siteBase   string
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	PaymentRepo  repository.PaymentRepository
	IssueRepo    repository.IssueRepository
	UserRepo     repository.UserRepository
	TimelineRepo repository.TimelineRepository
	Provider     billing.CheckoutProvider
	Dispatcher   events.Dispatcher
	Redis        *persistence.Redis
	Billing      config.BillingConfig
	SiteBaseURL  string
}

// SettleResult reports the outcome of one settlement call.
type SettleResult struct {
	Success bool
	Message string
	Payment *domain.Payment
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:   deps.PaymentRepo,
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		timelines:  deps.TimelineRepo,
		provider:   deps.Provider,
		dispatcher: deps.Dispatcher,
		cache:      &issueListCache{redis: deps.Redis},
		cfg:        deps.Billing,
		siteBase:   deps.SiteBaseURL,
	}
}

// CreateCheckout opens a processor checkout session for a boost or a premium
// subscription and returns its hosted URL.
func (s *PaymentService) CreateCheckout(ctx context.Context, caller *domain.User, paymentType domain.PaymentType, issueID string) (*billing.CheckoutSession, error) {
	if !paymentType.Valid() {
		return nil, apperrors.NewValidationError("unknown payment type", map[string]any{"payment_type": paymentType})
	}

	params := billing.SessionParams{
		Currency:      s.cfg.Currency,
		CustomerEmail: caller.Email,
		SuccessURL:    s.siteBase + "/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.siteBase + "/payments/cancel",
		Metadata:      map[string]string{"payment_type": string(paymentType)},
	}

	switch paymentType {
	case domain.PaymentTypeBoostIssue:
		if issueID == "" {
			return nil, apperrors.NewValidationError("issue_id required for boost", nil)
		}
		issue, err := s.issues.GetByID(ctx, issueID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
			}
			return nil, apperrors.MapError(err)
		}
		if issue.ReporterEmail != caller.Email {
			return nil, apperrors.NewForbidden("only the reporter may boost this issue")
		}
		if issue.Boosted {
			return nil, apperrors.NewConflict("issue already boosted", map[string]any{"issue_id": issueID})
		}
		params.Amount = s.cfg.BoostAmount
		params.ProductName = "Issue boost: " + issue.Title
		params.Metadata["issue_id"] = issue.ID
		params.Metadata["issue_title"] = issue.Title
	case domain.PaymentTypeSubscription:
		if caller.Premium {
			return nil, apperrors.NewConflict("account already has a premium subscription", nil)
		}
		params.Amount = s.cfg.SubscriptionAmount
		params.ProductName = "Premium subscription"
	}

	session, err := s.provider.CreateSession(ctx, params)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return session, nil
}

// Settle reconciles a confirmed checkout session into a local payment record.
// The insert's freshly-created signal is the single gate on business effects:
// replays return the stored record without re-applying the boost or premium
// upgrade.
func (s *PaymentService) Settle(ctx context.Context, sessionID string) (*SettleResult, error) {
	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return &SettleResult{Success: false, Message: "unable to retrieve checkout session"}, nil
	}
	if !session.Paid() {
		return &SettleResult{Success: false, Message: "payment not completed"}, nil
	}

	paymentType := domain.PaymentType(session.Metadata["payment_type"])
	if !paymentType.Valid() {
		return &SettleResult{Success: false, Message: "session carries no recognizable payment type"}, nil
	}

	payment := &domain.Payment{
		TransactionID: session.PaymentIntent,
		Amount:        session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: session.CustomerEmail,
		CustomerName:  session.CustomerName,
		PaymentType:   paymentType,
		PaymentStatus: session.PaymentStatus,
		PaidAt:        time.Now(),
	}
	if issueID := session.Metadata["issue_id"]; issueID != "" {
		payment.IssueID = &issueID
	}
	if issueTitle := session.Metadata["issue_title"]; issueTitle != "" {
		payment.IssueTitle = &issueTitle
	}

	created, err := s.payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if created {
		if err := s.applyEffect(ctx, payment); err != nil {
			return nil, err
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:  events.EventPaymentSettled,
			Actor: events.Actor{Role: domain.RoleCitizen, Email: payment.CustomerEmail, Name: payment.CustomerName},
			Payload: events.PaymentSettledPayload{
				TransactionID: payment.TransactionID,
				PaymentType:   payment.PaymentType,
				Amount:        payment.Amount,
				Currency:      payment.Currency,
			},
		})
	} else {
		existing, err := s.payments.GetByTransactionID(ctx, payment.TransactionID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		payment = existing
	}

	return &SettleResult{Success: true, Payment: payment}, nil
}

// applyEffect performs the business effect of a freshly settled payment.
func (s *PaymentService) applyEffect(ctx context.Context, payment *domain.Payment) error {
	switch payment.PaymentType {
	case domain.PaymentTypeBoostIssue:
		return s.applyBoost(ctx, payment)
	case domain.PaymentTypeSubscription:
		if err := s.users.SetPremiumByEmail(ctx, payment.CustomerEmail, true); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		return nil
	}
	return nil
}

func (s *PaymentService) applyBoost(ctx context.Context, payment *domain.Payment) error {
	if payment.IssueID == nil {
		return nil
	}
	issue, err := s.issues.GetByID(ctx, *payment.IssueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// issue deleted between checkout and settlement; keep the payment record
			return nil
		}
		return apperrors.MapError(err)
	}

	issue.Boosted = true
	issue.Priority = domain.IssuePriorityHigh
	if err := s.issues.Update(ctx, issue); err != nil {
		return apperrors.MapError(err)
	}

	entry := &domain.TimelineEntry{
		IssueID:    issue.ID,
		Status:     issue.Status,
		Message:    "Issue boosted to high priority",
		ActorName:  payment.CustomerName,
		ActorRole:  domain.RoleCitizen,
		ActorEmail: payment.CustomerEmail,
	}
	if err := s.timelines.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	s.cache.invalidate(ctx)
	return nil
}

// ListByCustomer returns the caller's payments.
func (s *PaymentService) ListByCustomer(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error) {
	payments, err := s.payments.ListByCustomer(ctx, email, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

// ListAll returns every payment for the admin console.
func (s *PaymentService) ListAll(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	payments, err := s.payments.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

// Invoice builds the invoice document for a stored payment. Only the paying
// customer or an admin may view it.
func (s *PaymentService) Invoice(ctx context.Context, caller *domain.User, paymentID string) (*InvoiceDocument, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("payment", map[string]any{"payment_id": paymentID})
		}
		return nil, apperrors.MapError(err)
	}
	if caller.Role != domain.RoleAdmin && payment.CustomerEmail != caller.Email {
		return nil, apperrors.NewForbidden("not your payment")
	}
	return buildInvoice(payment), nil
}
