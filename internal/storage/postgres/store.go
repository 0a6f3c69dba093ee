// Package postgres persists the finance ledger in PostgreSQL via lib/pq.
// Every statement runs inside the schema selected by the pool's search_path.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/finbook/finbook-server/internal/interfaces"
	"github.com/finbook/finbook-server/internal/models"
)

type Store struct {
	db *sql.DB
}

// Open connects a pooled store. The DSN must carry the application
// search_path so every connection is namespaced at session start.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureUser creates the user row if it is missing. ON CONFLICT DO NOTHING
// makes the insert a silent no-op when the row already exists, so concurrent
// provisioning of the same id never fails and never duplicates.
func (s *Store) EnsureUser(ctx context.Context, id string, email *string) error {
	const query = `INSERT INTO users (id, email, created_at, updated_at)
	VALUES ($1, $2, NOW(), NOW())
	ON CONFLICT (id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, id, email)
	return err
}

// RecordTransaction inserts the transaction row and, when it references an
// account, applies the signed amount to that account's balance. Both run in
// one database transaction: either both commit or neither is visible.
//
// The adjustment is a single read-modify-write statement
// (balance = balance + $1), so the row lock PostgreSQL acquires for the
// UPDATE is held until commit and concurrent adjustments to the same account
// serialize inside the storage engine. Default read-committed isolation is
// sufficient; no application-side locking exists anywhere on this path.
func (s *Store) RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	t.ID = uuid.New().String()

	const insert = `INSERT INTO transactions
	(id, user_id, account_id, category_id, type, description, amount, date, payment_method)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, user_id, account_id, category_id, type, description, amount, date, payment_method, created_at`

	var saved models.Transaction
	err = scanTransaction(dbTx.QueryRowContext(ctx, insert,
		t.ID, t.UserID, t.AccountID, t.CategoryID, t.Type,
		t.Description, t.Amount, t.Date, t.PaymentMethod,
	), &saved)
	if err != nil {
		err = fmt.Errorf("insert transaction: %w", err)
		return models.Transaction{}, err
	}

	if t.AccountID != nil {
		const update = `UPDATE accounts SET balance = balance + $1 WHERE id = $2`

		var res sql.Result
		res, err = dbTx.ExecContext(ctx, update, t.SignedAmount(), *t.AccountID)
		if err != nil {
			err = fmt.Errorf("adjust balance: %w", err)
			return models.Transaction{}, err
		}

		var n int64
		if n, err = res.RowsAffected(); err != nil {
			return models.Transaction{}, err
		}
		// A committed transaction whose balance effect matched zero rows
		// would break the exactly-once invariant, so roll back instead.
		if n != 1 {
			err = interfaces.ErrAccountNotFound
			return models.Transaction{}, err
		}
	}

	if err = dbTx.Commit(); err != nil {
		return models.Transaction{}, err
	}
	return saved, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, user_id, account_id, category_id, type, description, amount, date, payment_method, created_at
	FROM transactions
	ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	const query = `INSERT INTO accounts (id, user_id, name, type, balance, color, icon)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, user_id, name, type, balance, color, icon, created_at`

	a.ID = uuid.New().String()

	var saved models.Account
	err := scanAccount(s.db.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.Name, a.Type, a.Balance, a.Color, a.Icon,
	), &saved)
	if err != nil {
		return models.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return saved, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT id, user_id, name, type, balance, color, icon, created_at FROM accounts`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	const query = `INSERT INTO categories (id, user_id, name, icon, type, color, is_default)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, user_id, name, icon, type, color, is_default`

	c.ID = uuid.New().String()

	var saved models.Category
	var userID sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Icon, c.Type, c.Color, c.IsDefault,
	).Scan(&saved.ID, &userID, &saved.Name, &saved.Icon, &saved.Type, &saved.Color, &saved.IsDefault)
	if err != nil {
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	saved.UserID = fromNull(userID)
	return saved, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT id, user_id, name, icon, type, color, is_default FROM categories`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		var userID sql.NullString
		if err := rows.Scan(&c.ID, &userID, &c.Name, &c.Icon, &c.Type, &c.Color, &c.IsDefault); err != nil {
			return nil, err
		}
		c.UserID = fromNull(userID)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateRecurringTransaction(ctx context.Context, r models.RecurringTransaction) (models.RecurringTransaction, error) {
	const query = `INSERT INTO recurring_transactions
	(id, user_id, account_id, category_id, type, description, amount, payment_method, frequency, start_date, end_date, next_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, user_id, account_id, category_id, type, description, amount, payment_method, frequency, start_date, end_date, next_date`

	r.ID = uuid.New().String()

	var saved models.RecurringTransaction
	err := scanRecurring(s.db.QueryRowContext(ctx, query,
		r.ID, r.UserID, r.AccountID, r.CategoryID, r.Type, r.Description,
		r.Amount, r.PaymentMethod, r.Frequency, r.StartDate, r.EndDate, r.NextDate,
	), &saved)
	if err != nil {
		return models.RecurringTransaction{}, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return saved, nil
}

func (s *Store) ListRecurringTransactions(ctx context.Context) ([]models.RecurringTransaction, error) {
	const query = `SELECT id, user_id, account_id, category_id, type, description, amount, payment_method, frequency, start_date, end_date, next_date
	FROM recurring_transactions`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RecurringTransaction{}
	for rows.Next() {
		var r models.RecurringTransaction
		if err := scanRecurring(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateGoal(ctx context.Context, g models.Goal) (models.Goal, error) {
	const query = `INSERT INTO goals (id, user_id, name, target_amount, current_amount, start_date, deadline, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, user_id, name, target_amount, current_amount, start_date, deadline, status`

	g.ID = uuid.New().String()

	var saved models.Goal
	var userID sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.StartDate, g.Deadline, g.Status,
	).Scan(&saved.ID, &userID, &saved.Name, &saved.TargetAmount, &saved.CurrentAmount,
		&saved.StartDate, &saved.Deadline, &saved.Status)
	if err != nil {
		return models.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	saved.UserID = fromNull(userID)
	return saved, nil
}

func (s *Store) ListGoals(ctx context.Context) ([]models.Goal, error) {
	const query = `SELECT id, user_id, name, target_amount, current_amount, start_date, deadline, status FROM goals`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		var userID sql.NullString
		if err := rows.Scan(&g.ID, &userID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.StartDate, &g.Deadline, &g.Status); err != nil {
			return nil, err
		}
		g.UserID = fromNull(userID)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	const query = `INSERT INTO budgets (id, user_id, category_id, amount, month, year)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, user_id, category_id, amount, month, year`

	b.ID = uuid.New().String()

	var saved models.Budget
	var userID, categoryID sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		b.ID, b.UserID, b.CategoryID, b.Amount, b.Month, b.Year,
	).Scan(&saved.ID, &userID, &categoryID, &saved.Amount, &saved.Month, &saved.Year)
	if err != nil {
		return models.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	saved.UserID = fromNull(userID)
	saved.CategoryID = fromNull(categoryID)
	return saved, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	const query = `SELECT id, user_id, category_id, amount, month, year FROM budgets`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Budget{}
	for rows.Next() {
		var b models.Budget
		var userID, categoryID sql.NullString
		if err := rows.Scan(&b.ID, &userID, &categoryID, &b.Amount, &b.Month, &b.Year); err != nil {
			return nil, err
		}
		b.UserID = fromNull(userID)
		b.CategoryID = fromNull(categoryID)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner lets the scan helpers work for both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner, t *models.Transaction) error {
	var userID, accountID, categoryID sql.NullString
	if err := r.Scan(&t.ID, &userID, &accountID, &categoryID, &t.Type,
		&t.Description, &t.Amount, &t.Date, &t.PaymentMethod, &t.CreatedAt); err != nil {
		return err
	}
	t.UserID = fromNull(userID)
	t.AccountID = fromNull(accountID)
	t.CategoryID = fromNull(categoryID)
	return nil
}

func scanAccount(r rowScanner, a *models.Account) error {
	var userID sql.NullString
	if err := r.Scan(&a.ID, &userID, &a.Name, &a.Type, &a.Balance, &a.Color, &a.Icon, &a.CreatedAt); err != nil {
		return err
	}
	a.UserID = fromNull(userID)
	return nil
}

func scanRecurring(r rowScanner, rt *models.RecurringTransaction) error {
	var userID, accountID, categoryID sql.NullString
	var endDate sql.NullTime
	if err := r.Scan(&rt.ID, &userID, &accountID, &categoryID, &rt.Type, &rt.Description,
		&rt.Amount, &rt.PaymentMethod, &rt.Frequency, &rt.StartDate, &endDate, &rt.NextDate); err != nil {
		return err
	}
	rt.UserID = fromNull(userID)
	rt.AccountID = fromNull(accountID)
	rt.CategoryID = fromNull(categoryID)
	if endDate.Valid {
		rt.EndDate = &endDate.Time
	}
	return nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// Compile-time check: Store satisfies the storage contract.
var _ interfaces.Store = (*Store)(nil)
