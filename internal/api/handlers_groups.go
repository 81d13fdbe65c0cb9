/**
 * @description
 * HTTP handlers for rotating savings group endpoints: create, join by invite
 * code, inspect, and contribute.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/app"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

// CreateGroupHandler creates a group with the caller as its first member.
func (h *SavingsHandlers) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		Name               string `json:"name"`
		MaxMembers         int    `json:"max_members"`
		ContributionAmount int64  `json:"contribution_amount"`
		Currency           string `json:"currency"`
		Frequency          string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	group, err := h.groups.CreateGroup(r.Context(), userID, app.CreateGroupParams{
		Name:               req.Name,
		MaxMembers:         req.MaxMembers,
		ContributionAmount: req.ContributionAmount,
		Currency:           req.Currency,
		Frequency:          domain.FundingFrequency(req.Frequency),
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, group)
}

// ListGroupsHandler returns every group the caller belongs to.
func (h *SavingsHandlers) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	groups, err := h.groups.ListGroups(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	h.writeJSON(w, http.StatusOK, groups)
}

// GetGroupHandler returns a group the caller is a member of.
func (h *SavingsHandlers) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	group, err := h.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if group.MemberByUserID(userID) == nil {
		h.writeError(w, http.StatusForbidden, "Not a member of this group")
		return
	}
	h.writeJSON(w, http.StatusOK, group)
}

// JoinGroupHandler adds the caller to the group behind an invite code.
func (h *SavingsHandlers) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	var req struct {
		JoinCode string `json:"join_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JoinCode == "" {
		h.writeError(w, http.StatusBadRequest, "join_code is required")
		return
	}
	group, err := h.groups.JoinGroup(r.Context(), userID, req.JoinCode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, group)
}

// ContributeToGroupHandler records the caller's contribution to the current round.
func (h *SavingsHandlers) ContributeToGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	result, err := h.groups.Contribute(r.Context(), groupID, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
