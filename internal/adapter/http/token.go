package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"adwatch/internal/core/domain"
)

type tokenPayload struct {
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	ProxyURL    string `json:"proxy_url"`
}

// tokenResponse never echoes the credential itself.
type tokenResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	ProxyURL     string     `json:"proxy_url"`
	Status       string     `json:"status"`
	LastChecked  *time.Time `json:"last_checked"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toTokenResponse(t *domain.AccessToken) tokenResponse {
	return tokenResponse{
		ID:           t.ID,
		Name:         t.Name,
		ProxyURL:     t.ProxyURL,
		Status:       string(t.Status),
		LastChecked:  t.LastChecked,
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
	}
}

func (h *Handler) handleTokenCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	var payload tokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "invalid JSON")
		return
	}
	if payload.Name == "" || payload.AccessToken == "" {
		h.badRequest(w, "name and access_token are required")
		return
	}
	token := &domain.AccessToken{
		OwnerID:     owner,
		Name:        payload.Name,
		AccessToken: payload.AccessToken,
		ProxyURL:    payload.ProxyURL,
	}
	if err := h.tokens.Create(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTokenResponse(token))
}

func (h *Handler) handleTokenList(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	tokens, err := h.tokens.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := make([]tokenResponse, 0, len(tokens))
	for i := range tokens {
		resp = append(resp, toTokenResponse(&tokens[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTokenDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, "invalid token id")
		return
	}
	if err := h.tokens.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
