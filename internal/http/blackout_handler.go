package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/calendar"
)

type blackoutService interface {
	CreateBlackoutRule(ctx context.Context, input application.BlackoutRuleInput) (application.BlackoutRule, error)
	DeleteBlackoutRule(ctx context.Context, id string) error
	ListBlackoutRules(ctx context.Context, campusID int64) ([]application.BlackoutRule, error)
}

type BlackoutHandler struct {
	service   blackoutService
	responder responder
}

func NewBlackoutHandler(service blackoutService, logger *slog.Logger) *BlackoutHandler {
	return &BlackoutHandler{service: service, responder: newResponder(logger)}
}

func (h *BlackoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req blackoutRuleRequest
	if !h.responder.decodeBody(r.Context(), w, r.Body, &req) {
		return
	}

	rule, err := h.service.CreateBlackoutRule(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "BlackoutHandler", "Create", "rule_id", rule.ID).InfoContext(r.Context(), "blackout rule created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, blackoutRuleResponse{Rule: toBlackoutRuleDTO(rule)})
}

func (h *BlackoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID := strings.TrimSpace(r.PathValue("id"))
	if err := h.service.DeleteBlackoutRule(r.Context(), ruleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r, h.responder.logger, "BlackoutHandler", "Delete", "rule_id", ruleID).InfoContext(r.Context(), "blackout rule deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BlackoutHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	campusID, vErr := parseInt64Query(r.URL.Query(), "campus_id")
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	rules, err := h.service.ListBlackoutRules(r.Context(), campusID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, blackoutRuleListResponse{Rules: toBlackoutRuleDTOs(rules)})
}

type blackoutRuleRequest struct {
	CampusID  int64  `json:"campus_id"`
	Date      string `json:"date"`
	DayOfWeek *int   `json:"day_of_week"`
	StartHour *int   `json:"start_hour"`
	EndHour   *int   `json:"end_hour"`
	Reason    string `json:"reason"`
}

func (r blackoutRuleRequest) toInput() application.BlackoutRuleInput {
	return application.BlackoutRuleInput{
		CampusID:  r.CampusID,
		Date:      strings.TrimSpace(r.Date),
		DayOfWeek: r.DayOfWeek,
		StartHour: r.StartHour,
		EndHour:   r.EndHour,
		Reason:    r.Reason,
	}
}

type blackoutRuleDTO struct {
	ID        string  `json:"id"`
	CampusID  int64   `json:"campus_id"`
	Mode      string  `json:"mode"`
	Date      *string `json:"date,omitempty"`
	DayOfWeek *int    `json:"day_of_week,omitempty"`
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
}

type blackoutRuleResponse struct {
	Rule blackoutRuleDTO `json:"rule"`
}

type blackoutRuleListResponse struct {
	Rules []blackoutRuleDTO `json:"rules"`
}

func toBlackoutRuleDTO(rule application.BlackoutRule) blackoutRuleDTO {
	dto := blackoutRuleDTO{
		ID:        rule.ID,
		CampusID:  rule.CampusID,
		Mode:      string(rule.Mode()),
		DayOfWeek: rule.DayOfWeek,
		StartHour: rule.StartHour,
		EndHour:   rule.EndHour,
		Reason:    rule.Reason,
		CreatedAt: formatTimestamp(rule.CreatedAt),
	}
	if rule.Date != nil {
		date := calendar.FormatDate(*rule.Date)
		dto.Date = &date
	}
	return dto
}

func toBlackoutRuleDTOs(rules []application.BlackoutRule) []blackoutRuleDTO {
	out := make([]blackoutRuleDTO, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toBlackoutRuleDTO(rule))
	}
	return out
}
