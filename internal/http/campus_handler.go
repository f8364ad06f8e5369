package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/campus-reservation/internal/application"
)

type campusService interface {
	ListCampuses(ctx context.Context) ([]application.Campus, error)
}

type CampusHandler struct {
	service   campusService
	responder responder
}

func NewCampusHandler(service campusService, logger *slog.Logger) *CampusHandler {
	return &CampusHandler{service: service, responder: newResponder(logger)}
}

func (h *CampusHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campuses, err := h.service.ListCampuses(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]campusDTO, 0, len(campuses))
	for _, campus := range campuses {
		out = append(out, campusDTO{ID: campus.ID, Name: campus.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, campusListResponse{Campuses: out})
}

type campusDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type campusListResponse struct {
	Campuses []campusDTO `json:"campuses"`
}
