package service

import (
	"context"
	"sync"

	"github.com/civita-labs/civic-report/internal/billing"
	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/events"
	"github.com/civita-labs/civic-report/internal/repository"
)

type mockIssueRepo struct {
	CreateFn                func(ctx context.Context, issue *domain.Issue) error
	CreateWithQuotaFn       func(ctx context.Context, issue *domain.Issue, limit int) (bool, error)
	UpdateFn                func(ctx context.Context, issue *domain.Issue) error
	GetByIDFn               func(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilterFn        func(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error)
	CountByReporterFn       func(ctx context.Context, reporterEmail string) (int, error)
	DeleteFn                func(ctx context.Context, id string) error
	DeleteByReporterEmailFn func(ctx context.Context, reporterEmail string) error
}

func (m *mockIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	return m.CreateFn(ctx, issue)
}

func (m *mockIssueRepo) CreateWithQuota(ctx context.Context, issue *domain.Issue, limit int) (bool, error) {
	return m.CreateWithQuotaFn(ctx, issue, limit)
}

func (m *mockIssueRepo) Update(ctx context.Context, issue *domain.Issue) error {
	return m.UpdateFn(ctx, issue)
}

func (m *mockIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockIssueRepo) ListWithFilter(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return m.ListWithFilterFn(ctx, filter)
}

func (m *mockIssueRepo) CountByReporter(ctx context.Context, reporterEmail string) (int, error) {
	return m.CountByReporterFn(ctx, reporterEmail)
}

func (m *mockIssueRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockIssueRepo) DeleteByReporterEmail(ctx context.Context, reporterEmail string) error {
	return m.DeleteByReporterEmailFn(ctx, reporterEmail)
}

type mockUserRepo struct {
	CreateIfAbsentFn    func(ctx context.Context, user *domain.User) (bool, error)
	UpdateFn            func(ctx context.Context, user *domain.User) error
	GetByIDFn           func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFn        func(ctx context.Context, email string) (*domain.User, error)
	ListFn              func(ctx context.Context, limit, offset int) ([]domain.User, error)
	SetRoleFn           func(ctx context.Context, id string, role domain.Role) error
	SetBlockedFn        func(ctx context.Context, id string, blocked bool) error
	SetPremiumByEmailFn func(ctx context.Context, email string, premium bool) error
	DeleteFn            func(ctx context.Context, id string) error
}

func (m *mockUserRepo) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	return m.CreateIfAbsentFn(ctx, user)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.UpdateFn(ctx, user)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFn(ctx, email)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return m.ListFn(ctx, limit, offset)
}

func (m *mockUserRepo) SetRole(ctx context.Context, id string, role domain.Role) error {
	return m.SetRoleFn(ctx, id, role)
}

func (m *mockUserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return m.SetBlockedFn(ctx, id, blocked)
}

func (m *mockUserRepo) SetPremiumByEmail(ctx context.Context, email string, premium bool) error {
	return m.SetPremiumByEmailFn(ctx, email, premium)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

type mockTimelineRepo struct {
	CreateFn             func(ctx context.Context, entry *domain.TimelineEntry) error
	ListByIssueFn        func(ctx context.Context, issueID string) ([]domain.TimelineEntry, error)
	DeleteByIssueFn      func(ctx context.Context, issueID string) error
	DeleteByActorEmailFn func(ctx context.Context, email string) error
}

func (m *mockTimelineRepo) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	return m.CreateFn(ctx, entry)
}

func (m *mockTimelineRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	return m.ListByIssueFn(ctx, issueID)
}

func (m *mockTimelineRepo) DeleteByIssue(ctx context.Context, issueID string) error {
	return m.DeleteByIssueFn(ctx, issueID)
}

func (m *mockTimelineRepo) DeleteByActorEmail(ctx context.Context, email string) error {
	return m.DeleteByActorEmailFn(ctx, email)
}

type mockPaymentRepo struct {
	CreateIfAbsentFn     func(ctx context.Context, payment *domain.Payment) (bool, error)
	GetByIDFn            func(ctx context.Context, id string) (*domain.Payment, error)
	GetByTransactionIDFn func(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByCustomerFn     func(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error)
	ListFn               func(ctx context.Context, limit, offset int) ([]domain.Payment, error)
}

func (m *mockPaymentRepo) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	return m.CreateIfAbsentFn(ctx, payment)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockPaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return m.GetByTransactionIDFn(ctx, transactionID)
}

func (m *mockPaymentRepo) ListByCustomer(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error) {
	return m.ListByCustomerFn(ctx, email, limit, offset)
}

func (m *mockPaymentRepo) List(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	return m.ListFn(ctx, limit, offset)
}

type mockProvider struct {
	CreateSessionFn func(ctx context.Context, params billing.SessionParams) (*billing.CheckoutSession, error)
	GetSessionFn    func(ctx context.Context, sessionID string) (*billing.CheckoutSession, error)
}

func (m *mockProvider) CreateSession(ctx context.Context, params billing.SessionParams) (*billing.CheckoutSession, error) {
	return m.CreateSessionFn(ctx, params)
}

func (m *mockProvider) GetSession(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	return m.GetSessionFn(ctx, sessionID)
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Event, len(d.events))
	copy(out, d.events)
	return out
}
