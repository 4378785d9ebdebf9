package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adwatch/internal/core/domain"
	"adwatch/internal/core/port"
)

type checkPayload struct {
	CampaignID string `json:"campaign_id"`
	PolicyID   int64  `json:"policy_id"`
	Period     string `json:"period"`
}

func (p checkPayload) toRequest(owner int64) port.CheckRequest {
	return port.CheckRequest{
		OwnerID:    owner,
		CampaignID: p.CampaignID,
		PolicyID:   p.PolicyID,
		Period:     domain.CheckPeriod(p.Period),
	}
}

// handleCheckRun runs a check synchronously and returns the full report.
// Used by manual "check now" actions that can afford to wait.
func (h *Handler) handleCheckRun(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	var payload checkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if payload.CampaignID == "" || payload.PolicyID <= 0 {
		h.badRequest(w, "campaign_id and policy_id are required")
		return
	}
	report, err := h.checker.RunCheck(r.Context(), payload.toRequest(owner), nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// handleCheckStart launches an asynchronous check and returns its job id
// for polling. Starting a second check for a campaign with one in flight
// returns the running job's id.
func (h *Handler) handleCheckStart(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	var payload checkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if payload.CampaignID == "" || payload.PolicyID <= 0 {
		h.badRequest(w, "campaign_id and policy_id are required")
		return
	}
	jobID, err := h.jobs.StartJob(r.Context(), payload.toRequest(owner))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(domain.JobStarted),
	})
}

func (h *Handler) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *Handler) handleCheckCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.CancelJob(chi.URLParam(r, "jobID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReportList(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := h.reports.ListRecent(r.Context(), owner, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reports)
}
