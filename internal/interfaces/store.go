package interfaces

import (
	"context"
	"errors"

	"github.com/finbook/finbook-server/internal/models"
)

// ErrAccountNotFound is returned by RecordTransaction when the referenced
// account does not exist; the whole unit rolls back in that case.
var ErrAccountNotFound = errors.New("account not found")

// Store is the persistence contract for the finance ledger.
//
// RecordTransaction is the sole writer permitted to mutate account balances.
// EnsureUser must behave as a single insert-or-ignore keyed on the id:
// concurrent calls for the same new user never fail and never duplicate.
type Store interface {
	EnsureUser(ctx context.Context, id string, email *string) error

	// RecordTransaction inserts the transaction and, when AccountID is
	// non-nil, applies its signed amount to that account's balance. Both
	// effects commit together or not at all. The returned value is the
	// persisted row, including the assigned id and defaults.
	RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)

	CreateAccount(ctx context.Context, a models.Account) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateRecurringTransaction(ctx context.Context, r models.RecurringTransaction) (models.RecurringTransaction, error)
	ListRecurringTransactions(ctx context.Context) ([]models.RecurringTransaction, error)

	CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error)
	ListGoals(ctx context.Context) ([]models.Goal, error)

	CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error)
	ListBudgets(ctx context.Context) ([]models.Budget, error)
}
