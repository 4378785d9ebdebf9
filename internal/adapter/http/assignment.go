package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

type assignmentPayload struct {
	PolicyID     int64  `json:"policy_id"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
}

type assignmentResponse struct {
	ID           int64      `json:"id"`
	PolicyID     int64      `json:"policy_id"`
	CampaignID   string     `json:"campaign_id"`
	CampaignName string     `json:"campaign_name"`
	Active       bool       `json:"active"`
	LastChecked  *time.Time `json:"last_checked"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAssignmentResponse(a *domain.CampaignAssignment) assignmentResponse {
	return assignmentResponse{
		ID:           a.ID,
		PolicyID:     a.PolicyID,
		CampaignID:   a.CampaignID,
		CampaignName: a.CampaignName,
		Active:       a.Active,
		LastChecked:  a.LastChecked,
		CreatedAt:    a.CreatedAt,
	}
}

func (h *Handler) handleAssignmentCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	var payload assignmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if payload.PolicyID <= 0 || payload.CampaignID == "" {
		h.badRequest(w, "policy_id and campaign_id are required")
		return
	}
	// The policy must exist and belong to the caller before binding.
	if _, err := h.policies.Get(r.Context(), owner, payload.PolicyID); err != nil {
		h.writeError(w, err)
		return
	}
	name, err := h.resolveCampaignName(r.Context(), owner, payload.CampaignID, payload.CampaignName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	assignment := &domain.CampaignAssignment{
		OwnerID:      owner,
		PolicyID:     payload.PolicyID,
		CampaignID:   payload.CampaignID,
		CampaignName: name,
		Active:       true,
	}
	if err := h.assignments.Create(r.Context(), assignment); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

// resolveCampaignName verifies the campaign on the platform and returns its
// current name for caching on the binding. A missing campaign fails the
// request; platform trouble or a missing credential falls back to whatever
// name the caller supplied, since the binding itself is still valid.
func (h *Handler) resolveCampaignName(ctx context.Context, owner int64, campaignID, fallback string) (string, error) {
	client, err := h.clients.ClientFor(ctx, owner)
	if err != nil {
		if errors.Is(err, port.ErrNoValidToken) {
			return fallback, nil
		}
		return "", err
	}
	ref, err := client.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return "", err
		}
		h.logger.Warn("resolve campaign name",
			slog.String("campaign_id", campaignID),
			slog.Any("error", err))
		return fallback, nil
	}
	if ref.Name == "" {
		return fallback, nil
	}
	return ref.Name, nil
}

func (h *Handler) handleAssignmentList(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	assignments, err := h.assignments.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := make([]assignmentResponse, 0, len(assignments))
	for i := range assignments {
		resp = append(resp, toAssignmentResponse(&assignments[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAssignmentSetActive(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid assignment id")
		return
	}
	var payload struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if err := h.assignments.SetActive(r.Context(), owner, id, payload.Active); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignmentDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid assignment id")
		return
	}
	if err := h.assignments.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
