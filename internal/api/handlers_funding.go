/**
 * @description
 * HTTP handlers for funding schedule endpoints: create, inspect, pause, and
 * reactivate recurring auto-debits.
 */

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/app"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
)

// CreateFundingScheduleHandler registers a new recurring auto-debit.
func (h *SavingsHandlers) CreateFundingScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		PaymentMethodID string     `json:"payment_method_id"`
		Amount          int64      `json:"amount"`
		Currency        string     `json:"currency"`
		Frequency       string     `json:"frequency"`
		FirstRunDate    *time.Time `json:"first_run_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params := app.CreateScheduleParams{
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Frequency:       domain.FundingFrequency(req.Frequency),
	}
	if req.FirstRunDate != nil {
		params.FirstRunDate = *req.FirstRunDate
	}
	schedule, err := h.funding.CreateSchedule(r.Context(), userID, params)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, schedule)
}

// GetFundingScheduleHandler returns a schedule owned by the caller.
func (h *SavingsHandlers) GetFundingScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.scheduleRequest(w, r)
	if !ok {
		return
	}
	schedule, err := h.funding.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if schedule.UserID != userID {
		h.writeError(w, http.StatusNotFound, store.ErrScheduleNotFound.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, schedule)
}

// PauseFundingScheduleHandler stops future pulls for a schedule.
func (h *SavingsHandlers) PauseFundingScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.scheduleRequest(w, r)
	if !ok {
		return
	}
	schedule, err := h.funding.PauseSchedule(r.Context(), scheduleID, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schedule)
}

// ReactivateFundingScheduleHandler re-arms a paused or suspended schedule.
func (h *SavingsHandlers) ReactivateFundingScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, scheduleID, ok := h.scheduleRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		NextRunDate *time.Time `json:"next_run_date"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	var nextRun time.Time
	if req.NextRunDate != nil {
		nextRun = *req.NextRunDate
	}
	schedule, err := h.funding.ReactivateSchedule(r.Context(), scheduleID, userID, nextRun)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, schedule)
}

func (h *SavingsHandlers) scheduleRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return uuid.Nil, uuid.Nil, false
	}
	scheduleID, err := uuid.Parse(chi.URLParam(r, "scheduleID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid schedule ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, scheduleID, true
}
