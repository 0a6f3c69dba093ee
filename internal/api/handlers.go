package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finbook/finbook-server/internal/ledger"
	"github.com/finbook/finbook-server/internal/models"
)

// Handler translates HTTP requests into ledger service calls. Write
// endpoints respond with the persisted row; every failure uses the
// {"error": message} envelope.
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log.With().Str("component", "api").Logger()}
}

// apiDate accepts both bare dates (2026-01-15) and RFC 3339 timestamps.
type apiDate struct {
	time.Time
}

func (d *apiDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (h *Handler) HealthText(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("API is running ok"))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string          `json:"user_id"`
		AccountID     string          `json:"account_id"`
		CategoryID    string          `json:"category_id"`
		Type          string          `json:"type"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Date          apiDate         `json:"date"`
		PaymentMethod string          `json:"payment_method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	// Requests without an explicit owner fall back to the claimed identity
	// from the bearer token.
	if req.UserID == "" {
		if id, ok := IdentityFromContext(r.Context()); ok {
			req.UserID = id.UserID
		}
	}

	saved, err := h.service.RecordTransaction(r.Context(), models.Transaction{
		UserID:        optionalRef(req.UserID),
		AccountID:     optionalRef(req.AccountID),
		CategoryID:    optionalRef(req.CategoryID),
		Type:          req.Type,
		Description:   req.Description,
		Amount:        req.Amount,
		Date:          req.Date.Time,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListTransactions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string          `json:"user_id"`
		Name    string          `json:"name"`
		Type    string          `json:"type"`
		Balance decimal.Decimal `json:"balance"`
		Color   string          `json:"color"`
		Icon    string          `json:"icon"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		if id, ok := IdentityFromContext(r.Context()); ok {
			req.UserID = id.UserID
		}
	}

	saved, err := h.service.CreateAccount(r.Context(), models.Account{
		UserID:  optionalRef(req.UserID),
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
		Color:   req.Color,
		Icon:    req.Icon,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// SyncUser invokes the provisioner directly. Unlike the best-effort
// provisioning on the write path, an explicit sync surfaces its failure.
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string  `json:"id"`
		Email *string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.EnsureUser(r.Context(), req.ID, req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User synced"})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		Icon      string `json:"icon"`
		Type      string `json:"type"`
		Color     string `json:"color"`
		IsDefault bool   `json:"is_default"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := h.service.CreateCategory(r.Context(), models.Category{
		UserID:    optionalRef(req.UserID),
		Name:      req.Name,
		Icon:      req.Icon,
		Type:      req.Type,
		Color:     req.Color,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateRecurringTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string          `json:"user_id"`
		AccountID     string          `json:"account_id"`
		CategoryID    string          `json:"category_id"`
		Type          string          `json:"type"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method"`
		Frequency     string          `json:"frequency"`
		StartDate     apiDate         `json:"start_date"`
		EndDate       *apiDate        `json:"end_date"`
		NextDate      apiDate         `json:"next_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var endDate *time.Time
	if req.EndDate != nil && !req.EndDate.IsZero() {
		endDate = &req.EndDate.Time
	}

	saved, err := h.service.CreateRecurringTransaction(r.Context(), models.RecurringTransaction{
		UserID:        optionalRef(req.UserID),
		AccountID:     optionalRef(req.AccountID),
		CategoryID:    optionalRef(req.CategoryID),
		Type:          req.Type,
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Frequency:     req.Frequency,
		StartDate:     req.StartDate.Time,
		EndDate:       endDate,
		NextDate:      req.NextDate.Time,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListRecurringTransactions(w http.ResponseWriter, r *http.Request) {
	recurring, err := h.service.ListRecurringTransactions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, recurring)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string          `json:"user_id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		StartDate     apiDate         `json:"start_date"`
		Deadline      apiDate         `json:"deadline"`
		Status        string          `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	saved, err := h.service.CreateGoal(r.Context(), models.Goal{
		UserID:        optionalRef(req.UserID),
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		StartDate:     req.StartDate.Time,
		Deadline:      req.Deadline.Time,
		Status:        req.Status,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.ListGoals(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string          `json:"user_id"`
		CategoryID string          `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Month      int             `json:"month"`
		Year       int             `json:"year"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := h.service.CreateBudget(r.Context(), models.Budget{
		UserID:     optionalRef(req.UserID),
		CategoryID: optionalRef(req.CategoryID),
		Amount:     req.Amount,
		Month:      req.Month,
		Year:       req.Year,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.ListBudgets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, budgets)
}

// GetSettings is a stub; user settings have no persistence yet.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"whatsapp_number": nil})
}

// UpdateSettings is a stub; it logs the submitted number and echoes it back.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WhatsappNumber string `json:"whatsapp_number"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	h.log.Info().Str("whatsapp_number", req.WhatsappNumber).Msg("received settings update")
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "whatsapp_number": req.WhatsappNumber})
}

// MySubscription is a stub; there is no subscription backend yet.
func (h *Handler) MySubscription(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, nil)
}

func optionalRef(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
