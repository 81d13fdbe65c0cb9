/**
 * @description
 * HTTP handlers for savings plan endpoints: create, list, lifecycle changes,
 * and the on-demand contribution trigger.
 */

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/app"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
)

// CreatePlanHandler creates a savings plan for the authenticated user.
func (h *SavingsHandlers) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		Name               string `json:"name"`
		TargetAmount       int64  `json:"target_amount"`
		ContributionAmount int64  `json:"contribution_amount"`
		Cadence            string `json:"cadence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	plan, err := h.service.CreatePlan(r.Context(), userID, app.CreatePlanParams{
		Name:               req.Name,
		TargetAmount:       req.TargetAmount,
		ContributionAmount: req.ContributionAmount,
		Cadence:            domain.PlanCadence(req.Cadence),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// ListPlansHandler returns all of the user's savings plans.
func (h *SavingsHandlers) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	plans, err := h.service.ListPlans(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if plans == nil {
		plans = []domain.SavingsPlan{}
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// GetPlanHandler returns a single plan owned by the caller.
func (h *SavingsHandlers) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	_, plan, ok := h.ownedPlan(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// PausePlanHandler suspends a plan from allocation runs.
func (h *SavingsHandlers) PausePlanHandler(w http.ResponseWriter, r *http.Request) {
	h.updatePlanStatus(w, r, h.service.PausePlan)
}

// ResumePlanHandler re-enables a paused plan.
func (h *SavingsHandlers) ResumePlanHandler(w http.ResponseWriter, r *http.Request) {
	h.updatePlanStatus(w, r, h.service.ResumePlan)
}

// CancelPlanHandler terminally cancels a plan.
func (h *SavingsHandlers) CancelPlanHandler(w http.ResponseWriter, r *http.Request) {
	h.updatePlanStatus(w, r, h.service.CancelPlan)
}

// ContributeNowHandler runs the allocation for one plan immediately.
func (h *SavingsHandlers) ContributeNowHandler(w http.ResponseWriter, r *http.Request) {
	_, plan, ok := h.ownedPlan(w, r)
	if !ok {
		return
	}
	result, err := h.service.ContributeNow(r.Context(), plan.ID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=contribute_now outcome=reject plan_id=%s err=%v", plan.ID, err)
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *SavingsHandlers) ownedPlan(w http.ResponseWriter, r *http.Request) (uuid.UUID, *domain.SavingsPlan, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return uuid.Nil, nil, false
	}
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return uuid.Nil, nil, false
	}
	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		h.writeDomainError(w, err)
		return uuid.Nil, nil, false
	}
	if plan.UserID != userID {
		h.writeError(w, http.StatusNotFound, store.ErrPlanNotFound.Error())
		return uuid.Nil, nil, false
	}
	return userID, plan, true
}

func (h *SavingsHandlers) updatePlanStatus(w http.ResponseWriter, r *http.Request, update func(ctx context.Context, planID, userID uuid.UUID) error) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}
	if err := update(r.Context(), planID, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}
