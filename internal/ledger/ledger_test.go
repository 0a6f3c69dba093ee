package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbook/finbook-server/internal/interfaces"
	"github.com/finbook/finbook-server/internal/models"
	"github.com/finbook/finbook-server/internal/models/events"
	"github.com/finbook/finbook-server/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, nil, zerolog.Nop()), store
}

func seedAccount(t *testing.T, svc *Service, balance string) models.Account {
	t.Helper()
	account, err := svc.CreateAccount(context.Background(), models.Account{
		UserID:  ref("user-1"),
		Name:    "Checking",
		Type:    "checking",
		Balance: dec(balance),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func accountBalance(t *testing.T, svc *Service, id string) decimal.Decimal {
	t.Helper()
	accounts, err := svc.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	for _, a := range accounts {
		if a.ID == id {
			return a.Balance
		}
	}
	t.Fatalf("account %s not found", id)
	return decimal.Zero
}

func TestRecordTransactionBalanceConservation(t *testing.T) {
	svc, _ := newTestService(t)
	account := seedAccount(t, svc, "100")
	ctx := context.Background()

	if _, err := svc.RecordTransaction(ctx, models.Transaction{
		UserID:    ref("user-1"),
		AccountID: &account.ID,
		Type:      "income",
		Amount:    dec("10"),
		Date:      time.Now(),
	}); err != nil {
		t.Fatalf("record income: %v", err)
	}
	if _, err := svc.RecordTransaction(ctx, models.Transaction{
		UserID:    ref("user-1"),
		AccountID: &account.ID,
		Type:      "expense",
		Amount:    dec("4"),
		Date:      time.Now(),
	}); err != nil {
		t.Fatalf("record expense: %v", err)
	}

	if got, want := accountBalance(t, svc, account.ID), dec("106"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}

	transactions, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Errorf("transaction count = %d, want 2", len(transactions))
	}
}

func TestRecordTransactionNullAccountTouchesNoBalance(t *testing.T) {
	svc, _ := newTestService(t)
	account := seedAccount(t, svc, "50")
	ctx := context.Background()

	saved, err := svc.RecordTransaction(ctx, models.Transaction{
		UserID: ref("user-1"),
		Type:   "income",
		Amount: dec("50"),
		Date:   time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if saved.AccountID != nil {
		t.Errorf("account id = %v, want nil", *saved.AccountID)
	}
	if got := accountBalance(t, svc, account.ID); !got.Equal(dec("50")) {
		t.Errorf("balance = %s, want unchanged 50", got)
	}
}

func TestRecordTransactionUnknownTypeDebits(t *testing.T) {
	svc, _ := newTestService(t)
	account := seedAccount(t, svc, "20")

	if _, err := svc.RecordTransaction(context.Background(), models.Transaction{
		AccountID: &account.ID,
		Type:      "transfer",
		Amount:    dec("7"),
		Date:      time.Now(),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := accountBalance(t, svc, account.ID); !got.Equal(dec("13")) {
		t.Errorf("balance = %s, want 13 (non-income types subtract)", got)
	}
}

func TestRecordTransactionRejectsNegativeAmount(t *testing.T) {
	svc, _ := newTestService(t)
	account := seedAccount(t, svc, "10")
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, models.Transaction{
		AccountID: &account.ID,
		Type:      "income",
		Amount:    dec("-5"),
		Date:      time.Now(),
	})
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("err = %v, want ErrNegativeAmount", err)
	}

	transactions, _ := svc.ListTransactions(ctx)
	if len(transactions) != 0 {
		t.Errorf("transaction count = %d, want 0", len(transactions))
	}
}

func TestRecordTransactionMissingAccountLeavesNoTrace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, models.Transaction{
		AccountID: ref("no-such-account"),
		Type:      "expense",
		Amount:    dec("9"),
		Date:      time.Now(),
	})
	if !errors.Is(err, interfaces.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}

	transactions, _ := svc.ListTransactions(ctx)
	if len(transactions) != 0 {
		t.Errorf("failed unit left %d transactions visible, want 0", len(transactions))
	}
}

func TestRecordTransactionNormalizesEmptyRefs(t *testing.T) {
	svc, _ := newTestService(t)

	saved, err := svc.RecordTransaction(context.Background(), models.Transaction{
		UserID:     ref(""),
		AccountID:  ref(""),
		CategoryID: ref(""),
		Type:       "expense",
		Amount:     dec("1"),
		Date:       time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if saved.UserID != nil || saved.AccountID != nil || saved.CategoryID != nil {
		t.Errorf("empty-string refs not normalized to nil: %+v", saved)
	}
}

func TestRecordTransactionConcurrent(t *testing.T) {
	svc, _ := newTestService(t)
	account := seedAccount(t, svc, "100")

	const incomes, expenses = 40, 40
	var wg sync.WaitGroup
	errs := make(chan error, incomes+expenses)

	record := func(txType, amount string) {
		defer wg.Done()
		_, err := svc.RecordTransaction(context.Background(), models.Transaction{
			AccountID: &account.ID,
			Type:      txType,
			Amount:    dec(amount),
			Date:      time.Now(),
		})
		errs <- err
	}

	wg.Add(incomes + expenses)
	for i := 0; i < incomes; i++ {
		go record("income", "5")
	}
	for i := 0; i < expenses; i++ {
		go record("expense", "3")
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	// 100 + 40*5 - 40*3 = 180, independent of interleaving.
	if got, want := accountBalance(t, svc, account.ID), dec("180"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func TestEnsureUserBlankIDIsNoop(t *testing.T) {
	svc, store := newTestService(t)

	if err := svc.EnsureUser(context.Background(), "", nil); err != nil {
		t.Fatalf("ensure blank user: %v", err)
	}
	if n := store.UserCount(); n != 0 {
		t.Errorf("user count = %d, want 0", n)
	}
}

func TestEnsureUserIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.EnsureUser(ctx, "user-42", nil); err != nil {
			t.Fatalf("ensure user (call %d): %v", i+1, err)
		}
	}
	if n := store.UserCount(); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

// failingProvisionStore errors on every EnsureUser call but otherwise
// behaves like the memory store.
type failingProvisionStore struct {
	*memory.Store
}

func (s *failingProvisionStore) EnsureUser(ctx context.Context, id string, email *string) error {
	return errors.New("users table unavailable")
}

func TestProvisioningFailureDoesNotBlockWrite(t *testing.T) {
	store := &failingProvisionStore{Store: memory.NewStore()}
	svc := NewService(store, nil, zerolog.Nop())
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, models.Account{
		UserID:  ref("user-1"),
		Name:    "Cash",
		Type:    "cash",
		Balance: dec("0"),
	})
	if err != nil {
		t.Fatalf("create account despite provisioning failure: %v", err)
	}

	saved, err := svc.RecordTransaction(ctx, models.Transaction{
		UserID:    ref("user-1"),
		AccountID: &account.ID,
		Type:      "income",
		Amount:    dec("12"),
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record despite provisioning failure: %v", err)
	}
	if saved.ID == "" {
		t.Error("saved transaction has no id")
	}
}

// capturingPublisher records published events and can simulate failure.
type capturingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestRecordTransactionPublishesEvent(t *testing.T) {
	store := memory.NewStore()
	pub := &capturingPublisher{}
	svc := NewService(store, pub, zerolog.Nop())

	saved, err := svc.RecordTransaction(context.Background(), models.Transaction{
		UserID: ref("user-1"),
		Type:   "income",
		Amount: dec("3"),
		Date:   time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev, ok := pub.events[0].(events.TransactionRecorded)
	if !ok {
		t.Fatalf("event type = %T, want events.TransactionRecorded", pub.events[0])
	}
	if ev.TransactionID != saved.ID {
		t.Errorf("event transaction id = %s, want %s", ev.TransactionID, saved.ID)
	}
	if ev.UserID != "user-1" || ev.Type != "income" || !ev.Amount.Equal(dec("3")) {
		t.Errorf("event payload mismatch: %+v", ev)
	}
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	store := memory.NewStore()
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewService(store, pub, zerolog.Nop())

	if _, err := svc.RecordTransaction(context.Background(), models.Transaction{
		Type:   "expense",
		Amount: dec("2"),
		Date:   time.Now(),
	}); err != nil {
		t.Fatalf("record failed on publisher error: %v", err)
	}
}

func ref(s string) *string {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
