package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/calendar"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Admission, error)
	CancelReservation(ctx context.Context, userID, reservationID string) (application.Reservation, error)
	ListMyReservations(ctx context.Context, userID string) ([]application.Reservation, error)
	ListReservationsByDate(ctx context.Context, campusID int64, date string) ([]application.Reservation, error)
	WeeklyView(ctx context.Context, campusID int64, date string) (application.WeeklyView, error)
	PickUpKey(ctx context.Context, userID, reservationID string) (application.Reservation, error)
	ReturnKey(ctx context.Context, userID, reservationID string) (application.Reservation, error)
	ListKeyPickups(ctx context.Context, campusID int64) ([]application.Reservation, error)
	ListHistory(ctx context.Context, params application.HistoryParams) (application.HistoryPage, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(logger)}
}

func (h *ReservationHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// identity returns the acting user or writes a 401 response.
func (h *ReservationHandler) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, codeUnauthenticated, msgMissingIdentity)
	}
	return userID, ok
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req reservationRequest
	if !h.responder.decodeBody(r.Context(), w, r.Body, &req) {
		return
	}

	admission, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		UserID: userID,
		Input:  req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !admission.Accepted() || admission.Reservation == nil {
		h.responder.writeRejection(r.Context(), w, admission)
		return
	}

	handlerLogger(r, h.responder.logger, "ReservationHandler", "Create",
		"reservation_id", admission.Reservation.ID,
	).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createReservationResponse{
		ID:          admission.Reservation.ID,
		Reservation: toReservationDTO(*admission.Reservation),
	})
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	reservations, err := h.service.ListMyReservations(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	campusID, vErr := parseInt64Query(query, "campus_id")
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	reservations, err := h.service.ListReservationsByDate(r.Context(), campusID, strings.TrimSpace(query.Get("date")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	campusID, vErr := parseInt64Query(query, "campus_id")
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	view, err := h.service.WeeklyView(r.Context(), campusID, strings.TrimSpace(query.Get("date")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWeeklyViewDTO(view))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.transition(w, r, "Cancel", "reservation cancelled", h.service.CancelReservation)
}

func (h *ReservationHandler) PickUpKey(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.transition(w, r, "PickUpKey", "key picked up", h.service.PickUpKey)
}

func (h *ReservationHandler) ReturnKey(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.transition(w, r, "ReturnKey", "key returned", h.service.ReturnKey)
}

// transition applies an owner scoped lifecycle operation to the reservation
// named by the {id} path segment.
func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, operation, done string, apply func(context.Context, string, string) (application.Reservation, error)) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	reservationID := strings.TrimSpace(r.PathValue("id"))
	if reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, codeNotFound, msgNotFound)
		return
	}

	reservation, err := apply(r.Context(), userID, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "ReservationHandler", operation,
		"reservation_id", reservation.ID,
		"status", string(reservation.Status),
	).InfoContext(r.Context(), done)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) ListKeyPickups(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	campusID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || campusID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, codeNotFound, msgNotFound)
		return
	}

	reservations, err := h.service.ListKeyPickups(r.Context(), campusID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationListResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	params, vErr := buildHistoryParams(r.URL.Query())
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	page, err := h.service.ListHistory(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, historyResponse{
		Reservations: toReservationDTOs(page.Reservations),
		Total:        page.Total,
		Page:         page.Page,
		PageSize:     page.PageSize,
	})
}

func buildHistoryParams(query url.Values) (application.HistoryParams, *application.ValidationError) {
	vErr := &application.ValidationError{}
	params := application.HistoryParams{
		StartDate: strings.TrimSpace(query.Get("start_date")),
		EndDate:   strings.TrimSpace(query.Get("end_date")),
	}

	var err *application.ValidationError
	if params.CampusID, err = parseInt64Query(query, "campus_id"); err != nil {
		mergeFieldErrors(vErr, err)
	}
	page, err := parseInt64Query(query, "page")
	if err != nil {
		mergeFieldErrors(vErr, err)
	}
	pageSize, err := parseInt64Query(query, "page_size")
	if err != nil {
		mergeFieldErrors(vErr, err)
	}
	params.Page = int(page)
	params.PageSize = int(pageSize)

	if len(vErr.FieldErrors) > 0 {
		return params, vErr
	}
	return params, nil
}

// parseInt64Query parses an optional integer query parameter. A missing value
// yields zero, which the services treat as unset.
func parseInt64Query(query url.Values, field string) (int64, *application.ValidationError) {
	raw := strings.TrimSpace(query.Get(field))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &application.ValidationError{FieldErrors: map[string]string{field: field + " is invalid"}}
	}
	return value, nil
}

func mergeFieldErrors(dst, src *application.ValidationError) {
	if dst.FieldErrors == nil {
		dst.FieldErrors = make(map[string]string, len(src.FieldErrors))
	}
	for field, msg := range src.FieldErrors {
		dst.FieldErrors[field] = msg
	}
}

type reservationRequest struct {
	CampusID  int64  `json:"campus_id"`
	Date      string `json:"date"`
	StartHour *int   `json:"start_hour"`
	EndHour   *int   `json:"end_hour"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		CampusID:  r.CampusID,
		Date:      strings.TrimSpace(r.Date),
		StartHour: r.StartHour,
		EndHour:   r.EndHour,
		StudentID: strings.TrimSpace(r.StudentID),
		Name:      strings.TrimSpace(r.Name),
		Contact:   strings.TrimSpace(r.Contact),
	}
}

type reservationDTO struct {
	ID            string  `json:"id"`
	CampusID      int64   `json:"campus_id"`
	UserID        string  `json:"user_id"`
	StudentID     string  `json:"student_id"`
	Name          string  `json:"name"`
	Contact       string  `json:"contact,omitempty"`
	Date          string  `json:"date"`
	StartHour     int     `json:"start_hour"`
	EndHour       int     `json:"end_hour"`
	Status        string  `json:"status"`
	KeyPickedUp   bool    `json:"key_picked_up"`
	KeyPickupTime *string `json:"key_pickup_time,omitempty"`
	KeyReturned   bool    `json:"key_returned"`
	KeyReturnTime *string `json:"key_return_time,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type createReservationResponse struct {
	ID          string         `json:"id"`
	Reservation reservationDTO `json:"reservation"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type reservationListResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type historyResponse struct {
	Reservations []reservationDTO `json:"reservations"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
}

type blackoutOccurrenceDTO struct {
	RuleID    string `json:"rule_id"`
	Mode      string `json:"mode"`
	Date      string `json:"date"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Reason    string `json:"reason"`
}

type weeklyViewDTO struct {
	CampusID     int64                   `json:"campus_id"`
	WeekStart    string                  `json:"week_start"`
	WeekEnd      string                  `json:"week_end"`
	Reservations []reservationDTO        `json:"reservations"`
	Blackouts    []blackoutOccurrenceDTO `json:"blackouts"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:            reservation.ID,
		CampusID:      reservation.CampusID,
		UserID:        reservation.UserID,
		StudentID:     reservation.StudentID,
		Name:          reservation.UserName,
		Contact:       reservation.Contact,
		Date:          calendar.FormatDate(reservation.Date),
		StartHour:     reservation.StartHour,
		EndHour:       reservation.EndHour,
		Status:        string(reservation.Status),
		KeyPickedUp:   reservation.KeyPickedUp,
		KeyPickupTime: formatOptionalTimestamp(reservation.KeyPickupTime),
		KeyReturned:   reservation.KeyReturned,
		KeyReturnTime: formatOptionalTimestamp(reservation.KeyReturnTime),
		CreatedAt:     formatTimestamp(reservation.CreatedAt),
		UpdatedAt:     formatTimestamp(reservation.UpdatedAt),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func toWeeklyViewDTO(view application.WeeklyView) weeklyViewDTO {
	blackouts := make([]blackoutOccurrenceDTO, 0, len(view.Blackouts))
	for _, occurrence := range view.Blackouts {
		blackouts = append(blackouts, blackoutOccurrenceDTO{
			RuleID:    occurrence.RuleID,
			Mode:      string(occurrence.Mode),
			Date:      calendar.FormatDate(occurrence.Date),
			StartHour: occurrence.StartHour,
			EndHour:   occurrence.EndHour,
			Reason:    occurrence.Reason,
		})
	}
	return weeklyViewDTO{
		CampusID:     view.CampusID,
		WeekStart:    calendar.FormatDate(view.WeekStart),
		WeekEnd:      calendar.FormatDate(view.WeekEnd),
		Reservations: toReservationDTOs(view.Reservations),
		Blackouts:    blackouts,
	}
}
