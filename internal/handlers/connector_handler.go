package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/homesync/internal/meross"
	"github.com/prudhvinik1/homesync/internal/services"
)

// ConnectorService is the slice of the orchestrator the HTTP layer consumes.
type ConnectorService interface {
	ConnectAccount(ctx context.Context, email, password string) (*services.ConnectResult, error)
	SyncDevices(ctx context.Context, accountID uuid.UUID) (*services.SyncResult, error)
	GetDevices(ctx context.Context, accountID uuid.UUID) (*services.DevicesResult, error)
}

type ConnectorHandler struct {
	service ConnectorService
}

func NewConnectorHandler(service ConnectorService) *ConnectorHandler {
	return &ConnectorHandler{service: service}
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (h *ConnectorHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required.")
		return
	}

	result, err := h.service.ConnectAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, meross.ErrLoginFailed):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrConnectInProgress):
			writeError(w, http.StatusConflict, err.Error())
		default:
			// Detail stays a generic tag; the real error goes to the log only.
			log.Printf("connect account failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ConnectorHandler) SyncDevices(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.SyncDevices(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "Account not found.")
		case errors.Is(err, services.ErrSyncUnsupported):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("sync devices failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"syncedAt":  result.SyncedAt,
		"devices":   result.Devices,
	})
}

func (h *ConnectorHandler) GetDevices(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetDevices(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found.")
			return
		}
		log.Printf("get devices failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// accountIDParam parses the accountID route parameter. A malformed id cannot
// match any account, so it reads as not found rather than a bad request.
func accountIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found.")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
