/**
 * @description
 * This file contains the HTTP handlers for the wallet and ledger endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/app"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
)

// SavingsHandlers holds the application services that handlers will use.
type SavingsHandlers struct {
	service    *app.Service
	allocation *app.AllocationEngine
	funding    *app.FundingEngine
	groups     *app.GroupService
	fees       *app.FeeService
}

// NewSavingsHandlers creates a new instance of SavingsHandlers.
func NewSavingsHandlers(service *app.Service, allocation *app.AllocationEngine, funding *app.FundingEngine, groups *app.GroupService, fees *app.FeeService) *SavingsHandlers {
	return &SavingsHandlers{
		service:    service,
		allocation: allocation,
		funding:    funding,
		groups:     groups,
		fees:       fees,
	}
}

// walletResponse flattens the wallet aggregate for API consumers.
type walletResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	Locked    int64     `json:"locked"`
	Available int64     `json:"available"`
	Status    string    `json:"status"`
}

func buildWalletResponse(w *domain.Wallet) walletResponse {
	return walletResponse{
		UserID:    w.UserID,
		Currency:  w.Currency,
		Balance:   w.Balance(),
		Locked:    w.Locked(),
		Available: w.Available(),
		Status:    string(w.Status),
	}
}

// CreateWalletHandler provisions a wallet for the authenticated user.
func (h *SavingsHandlers) CreateWalletHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		Currency string `json:"currency"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	wallet, err := h.service.CreateWallet(r.Context(), userID, req.Currency)
	if err != nil {
		log.Printf("level=error component=api endpoint=create_wallet user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create wallet")
		return
	}
	h.writeJSON(w, http.StatusCreated, buildWalletResponse(wallet))
}

// GetWalletHandler returns the authenticated user's wallet.
func (h *SavingsHandlers) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildWalletResponse(wallet))
}

// DepositHandler pulls funds from a payment method into the wallet.
func (h *SavingsHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		PaymentMethodID string `json:"payment_method_id"`
		Amount          int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentMethodID == "" || req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "payment_method_id and a positive amount are required")
		return
	}
	entry, err := h.service.Deposit(r.Context(), userID, req.PaymentMethodID, req.Amount)
	if err != nil {
		log.Printf("level=warn component=api endpoint=deposit outcome=reject user_id=%s err=%v", userID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// WithdrawHandler pushes funds from the wallet out to a payment method.
func (h *SavingsHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		PaymentMethodID string `json:"payment_method_id"`
		Amount          int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentMethodID == "" || req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "payment_method_id and a positive amount are required")
		return
	}
	entry, err := h.service.Withdraw(r.Context(), userID, req.PaymentMethodID, req.Amount)
	if err != nil {
		log.Printf("level=warn component=api endpoint=withdraw outcome=reject user_id=%s err=%v", userID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// LedgerHistoryHandler returns the user's ledger entries, newest first.
func (h *SavingsHandlers) LedgerHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := h.service.ListLedgerHistory(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// GetLedgerEntryHandler returns a single ledger entry owned by the caller.
func (h *SavingsHandlers) GetLedgerEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}
	entry, err := h.service.GetLedgerEntry(r.Context(), entryID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if entry.UserID != userID {
		h.writeError(w, http.StatusNotFound, "ledger entry not found")
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// writeJSON is a helper for writing JSON responses.
func (h *SavingsHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *SavingsHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain and store sentinel errors onto HTTP statuses.
func (h *SavingsHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, domain.ErrWalletFrozen):
		h.writeError(w, http.StatusLocked, "Wallet is frozen")
	case errors.Is(err, domain.ErrInvalidEntry), errors.Is(err, domain.ErrInvalidPlan):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrGroupFull):
		h.writeError(w, http.StatusConflict, "Group is full")
	case errors.Is(err, domain.ErrGroupNotReady):
		h.writeError(w, http.StatusConflict, "Group is not accepting contributions yet")
	case errors.Is(err, domain.ErrGroupClosed):
		h.writeError(w, http.StatusConflict, "Group is closed")
	case errors.Is(err, domain.ErrNotAMember):
		h.writeError(w, http.StatusForbidden, "Not a member of this group")
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrWalletNotFound),
		errors.Is(err, store.ErrEntryNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrScheduleNotFound),
		errors.Is(err, store.ErrGroupNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrPlanNotActive),
		errors.Is(err, store.ErrContributionNotDue):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
