package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/campus-reservation/internal/application"
)

type keyManagerService interface {
	CreateKeyManager(ctx context.Context, input application.KeyManagerInput) (application.KeyManager, error)
	UpdateKeyManager(ctx context.Context, id string, update application.KeyManagerUpdate) (application.KeyManager, error)
	DeleteKeyManager(ctx context.Context, id string) error
	ListKeyManagers(ctx context.Context, query application.KeyManagerQuery) ([]application.KeyManager, error)
}

type KeyManagerHandler struct {
	service   keyManagerService
	responder responder
}

func NewKeyManagerHandler(service keyManagerService, logger *slog.Logger) *KeyManagerHandler {
	return &KeyManagerHandler{service: service, responder: newResponder(logger)}
}

func (h *KeyManagerHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *KeyManagerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req keyManagerRequest
	if !h.responder.decodeBody(r.Context(), w, r.Body, &req) {
		return
	}

	manager, err := h.service.CreateKeyManager(r.Context(), application.KeyManagerInput{
		CampusID: req.CampusID,
		Name:     req.Name,
		Contact:  req.Contact,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "KeyManagerHandler", "Create",
		"key_manager_id", manager.ID,
		"campus_id", manager.CampusID,
	).InfoContext(r.Context(), "key manager created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, keyManagerResponse{KeyManager: toKeyManagerDTO(manager)})
}

func (h *KeyManagerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req keyManagerUpdateRequest
	if !h.responder.decodeBody(r.Context(), w, r.Body, &req) {
		return
	}

	managerID := strings.TrimSpace(r.PathValue("id"))
	manager, err := h.service.UpdateKeyManager(r.Context(), managerID, application.KeyManagerUpdate{
		Name:    req.Name,
		Contact: req.Contact,
		Active:  req.Active,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "KeyManagerHandler", "Update",
		"key_manager_id", manager.ID,
		"active", manager.Active,
	).InfoContext(r.Context(), "key manager updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, keyManagerResponse{KeyManager: toKeyManagerDTO(manager)})
}

func (h *KeyManagerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	managerID := strings.TrimSpace(r.PathValue("id"))
	if err := h.service.DeleteKeyManager(r.Context(), managerID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "KeyManagerHandler", "Delete", "key_manager_id", managerID).
		InfoContext(r.Context(), "key manager deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List serves the admin listing. campus_id narrows it to one campus and
// include_inactive=true adds managers no longer on duty.
func (h *KeyManagerHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query, vErr := buildKeyManagerQuery(r.URL.Query())
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	h.list(w, r, query)
}

// ListForCampus serves the managers currently on duty for the campus in the
// {id} path segment.
func (h *KeyManagerHandler) ListForCampus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	campusID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || campusID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, codeNotFound, msgNotFound)
		return
	}
	h.list(w, r, application.KeyManagerQuery{CampusID: campusID})
}

func (h *KeyManagerHandler) list(w http.ResponseWriter, r *http.Request, query application.KeyManagerQuery) {
	managers, err := h.service.ListKeyManagers(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]keyManagerDTO, 0, len(managers))
	for _, manager := range managers {
		out = append(out, toKeyManagerDTO(manager))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, keyManagerListResponse{KeyManagers: out})
}

func buildKeyManagerQuery(values url.Values) (application.KeyManagerQuery, *application.ValidationError) {
	var query application.KeyManagerQuery
	campusID, vErr := parseInt64Query(values, "campus_id")
	if vErr != nil {
		return query, vErr
	}
	query.CampusID = campusID

	if raw := strings.TrimSpace(values.Get("include_inactive")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return query, &application.ValidationError{FieldErrors: map[string]string{"include_inactive": "include_inactive is invalid"}}
		}
		query.IncludeInactive = include
	}
	return query, nil
}

type keyManagerRequest struct {
	CampusID int64  `json:"campus_id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
}

type keyManagerUpdateRequest struct {
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
	Active  *bool   `json:"is_active"`
}

type keyManagerDTO struct {
	ID         string `json:"id"`
	CampusID   int64  `json:"campus_id"`
	CampusName string `json:"campus_name"`
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	Active     bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type keyManagerResponse struct {
	KeyManager keyManagerDTO `json:"key_manager"`
}

type keyManagerListResponse struct {
	KeyManagers []keyManagerDTO `json:"key_managers"`
}

func toKeyManagerDTO(manager application.KeyManager) keyManagerDTO {
	return keyManagerDTO{
		ID:         manager.ID,
		CampusID:   manager.CampusID,
		CampusName: manager.CampusName,
		Name:       manager.Name,
		Contact:    manager.Contact,
		Active:     manager.Active,
		CreatedAt:  formatTimestamp(manager.CreatedAt),
		UpdatedAt:  formatTimestamp(manager.UpdatedAt),
	}
}
