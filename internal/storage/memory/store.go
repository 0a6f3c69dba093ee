// Package memory is an in-memory implementation of interfaces.Store. It
// backs the test suite and DB_DRIVER=memory runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finbook/finbook-server/internal/interfaces"
	"github.com/finbook/finbook-server/internal/models"
)

// Store keeps everything behind a single mutex. The lock stands in for the
// database's transactional isolation: the insert+adjust pair in
// RecordTransaction happens entirely inside one critical section, so it is
// exactly as atomic as the postgres unit.
type Store struct {
	mu           sync.Mutex
	users        map[string]models.User
	accounts     map[string]models.Account
	transactions []models.Transaction
	categories   []models.Category
	recurring    []models.RecurringTransaction
	goals        []models.Goal
	budgets      []models.Budget
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		accounts: make(map[string]models.Account),
	}
}

// EnsureUser inserts the user if absent, mirroring ON CONFLICT DO NOTHING.
func (s *Store) EnsureUser(ctx context.Context, id string, email *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; exists {
		return nil
	}
	now := time.Now().UTC()
	s.users[id] = models.User{ID: id, Email: email, CreatedAt: now, UpdatedAt: now}
	return nil
}

// UserCount reports how many user rows exist. Test helper.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// RecordTransaction appends the transaction and applies its signed amount to
// the referenced account. The account is checked before anything becomes
// visible: a missing account leaves no trace, matching the rollback behavior
// of the postgres store.
func (s *Store) RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var account models.Account
	if t.AccountID != nil {
		var ok bool
		account, ok = s.accounts[*t.AccountID]
		if !ok {
			return models.Transaction{}, interfaces.ErrAccountNotFound
		}
	}

	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	s.transactions = append(s.transactions, t)

	if t.AccountID != nil {
		account.Balance = account.Balance.Add(t.SignedAmount())
		s.accounts[*t.AccountID] = account
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.New().String()
	a.CreatedAt = time.Now().UTC()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New().String()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) CreateRecurringTransaction(ctx context.Context, r models.RecurringTransaction) (models.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New().String()
	s.recurring = append(s.recurring, r)
	return r, nil
}

func (s *Store) ListRecurringTransactions(ctx context.Context) ([]models.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RecurringTransaction, len(s.recurring))
	copy(out, s.recurring)
	return out, nil
}

func (s *Store) CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = uuid.New().String()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Goal, len(s.goals))
	copy(out, s.goals)
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = uuid.New().String()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out, nil
}

// Compile-time check: Store satisfies the storage contract.
var _ interfaces.Store = (*Store)(nil)
