package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"adwatch/internal/core/domain"
)

type thresholdPayload struct {
	Spend          decimal.Decimal `json:"spend"`
	MinConversions int             `json:"min_conversions"`
}

type policyPayload struct {
	Name            string             `json:"name"`
	IntervalMinutes int                `json:"interval_minutes"`
	Period          string             `json:"period"`
	Active          *bool              `json:"active"`
	Thresholds      []thresholdPayload `json:"thresholds"`
}

type policyResponse struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	IntervalMinutes int                `json:"interval_minutes"`
	Period          string             `json:"period"`
	Active          bool               `json:"active"`
	Thresholds      []thresholdPayload `json:"thresholds"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (p policyPayload) toDomain(ownerID int64) *domain.Policy {
	policy := &domain.Policy{
		OwnerID:       ownerID,
		Name:          p.Name,
		CheckInterval: time.Duration(p.IntervalMinutes) * time.Minute,
		CheckPeriod:   domain.CheckPeriod(p.Period),
		Active:        true,
	}
	if policy.CheckPeriod == "" {
		policy.CheckPeriod = domain.PeriodToday
	}
	if p.Active != nil {
		policy.Active = *p.Active
	}
	for _, t := range p.Thresholds {
		policy.Thresholds = append(policy.Thresholds, domain.ThresholdEntry{
			Spend:          t.Spend,
			MinConversions: t.MinConversions,
		})
	}
	return policy
}

func toPolicyResponse(p *domain.Policy) policyResponse {
	resp := policyResponse{
		ID:              p.ID,
		Name:            p.Name,
		IntervalMinutes: int(p.CheckInterval.Minutes()),
		Period:          string(p.CheckPeriod),
		Active:          p.Active,
		Thresholds:      make([]thresholdPayload, 0, len(p.Thresholds)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	for _, t := range p.Thresholds {
		resp.Thresholds = append(resp.Thresholds, thresholdPayload{
			Spend:          t.Spend,
			MinConversions: t.MinConversions,
		})
	}
	return resp
}

func (h *Handler) handlePolicyCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	var payload policyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	policy := payload.toDomain(owner)
	if err := h.policies.Create(r.Context(), policy); err != nil {
		if isValidationError(err) {
			h.badRequest(w, err.Error())
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

func (h *Handler) handlePolicyList(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	policies, err := h.policies.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := make([]policyResponse, 0, len(policies))
	for i := range policies {
		resp = append(resp, toPolicyResponse(&policies[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePolicyGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid policy id")
		return
	}
	policy, err := h.policies.Get(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (h *Handler) handlePolicyUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid policy id")
		return
	}
	var payload policyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	policy := payload.toDomain(owner)
	policy.ID = id
	if err := h.policies.Update(r.Context(), policy); err != nil {
		if isValidationError(err) {
			h.badRequest(w, err.Error())
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (h *Handler) handlePolicyDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid policy id")
		return
	}
	if err := h.policies.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrPolicyName) ||
		errors.Is(err, domain.ErrPolicyInterval) ||
		errors.Is(err, domain.ErrNoThresholds) ||
		errors.Is(err, domain.ErrThresholdSpend) ||
		errors.Is(err, domain.ErrThresholdConv)
}
