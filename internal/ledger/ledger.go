// Package ledger holds the core write path: user provisioning, the atomic
// record-transaction unit, and the collection reads.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbook/finbook-server/internal/interfaces"
	"github.com/finbook/finbook-server/internal/models"
	"github.com/finbook/finbook-server/internal/models/events"
)

// ErrNegativeAmount rejects transactions whose amount is below zero. The
// sign of a balance effect comes from the transaction type, never from the
// caller's amount.
var ErrNegativeAmount = errors.New("amount must not be negative")

// Service coordinates the store and the event publisher. It holds no locks:
// correctness of concurrent balance updates is delegated entirely to the
// store's transactional isolation.
type Service struct {
	store     interfaces.Store
	publisher interfaces.EventPublisher
	log       zerolog.Logger
}

// NewService builds a Service. publisher may be nil, in which case no events
// are emitted.
func NewService(store interfaces.Store, publisher interfaces.EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// EnsureUser provisions the user row if it is missing. A blank id is a
// no-op: callers may legitimately carry no identity.
func (s *Service) EnsureUser(ctx context.Context, id string, email *string) error {
	if id == "" {
		return nil
	}
	return s.store.EnsureUser(ctx, id, email)
}

// RecordTransaction validates and persists one transaction together with its
// account-balance effect. Provisioning the owning user is best-effort: a
// failure there is logged and the write proceeds. The insert+adjust unit
// itself is all-or-nothing inside the store.
func (s *Service) RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	t.UserID = normalizeRef(t.UserID)
	t.AccountID = normalizeRef(t.AccountID)
	t.CategoryID = normalizeRef(t.CategoryID)

	if t.Amount.LessThan(decimal.Zero) {
		return models.Transaction{}, ErrNegativeAmount
	}

	if t.UserID != nil {
		if err := s.store.EnsureUser(ctx, *t.UserID, nil); err != nil {
			s.log.Error().Err(err).Str("user_id", *t.UserID).Msg("ensure user failed")
		}
	}

	saved, err := s.store.RecordTransaction(ctx, t)
	if err != nil {
		return models.Transaction{}, err
	}

	s.publishRecorded(ctx, saved)
	return saved, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// CreateAccount provisions the owning user best-effort, then inserts the
// account.
func (s *Service) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	a.UserID = normalizeRef(a.UserID)
	if a.UserID != nil {
		if err := s.store.EnsureUser(ctx, *a.UserID, nil); err != nil {
			s.log.Error().Err(err).Str("user_id", *a.UserID).Msg("ensure user failed")
		}
	}
	return s.store.CreateAccount(ctx, a)
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	c.UserID = normalizeRef(c.UserID)
	return s.store.CreateCategory(ctx, c)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) CreateRecurringTransaction(ctx context.Context, r models.RecurringTransaction) (models.RecurringTransaction, error) {
	r.UserID = normalizeRef(r.UserID)
	r.AccountID = normalizeRef(r.AccountID)
	r.CategoryID = normalizeRef(r.CategoryID)
	return s.store.CreateRecurringTransaction(ctx, r)
}

func (s *Service) ListRecurringTransactions(ctx context.Context) ([]models.RecurringTransaction, error) {
	return s.store.ListRecurringTransactions(ctx)
}

func (s *Service) CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	g.UserID = normalizeRef(g.UserID)
	return s.store.CreateGoal(ctx, g)
}

func (s *Service) ListGoals(ctx context.Context) ([]models.Goal, error) {
	return s.store.ListGoals(ctx)
}

func (s *Service) CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	b.UserID = normalizeRef(b.UserID)
	b.CategoryID = normalizeRef(b.CategoryID)
	return s.store.CreateBudget(ctx, b)
}

func (s *Service) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	return s.store.ListBudgets(ctx)
}

func (s *Service) publishRecorded(ctx context.Context, t models.Transaction) {
	if s.publisher == nil {
		return
	}

	ev := events.TransactionRecorded{
		TransactionID: t.ID,
		UserID:        deref(t.UserID),
		AccountID:     deref(t.AccountID),
		Type:          t.Type,
		Amount:        t.Amount,
		Date:          t.Date,
		RecordedAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The write is already committed; a lost event is only log-worthy.
		s.log.Error().Err(err).Str("transaction_id", t.ID).Msg("publish transaction.recorded failed")
	}
}

// normalizeRef maps empty-string identifiers to "no reference". Clients send
// "" for optional foreign keys they left blank.
func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}

func deref(ref *string) string {
	if ref == nil {
		return ""
	}
	return *ref
}
