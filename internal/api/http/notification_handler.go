package http

import (
	"net/http"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}

	notes, count, err := h.noteSvc.GetNotifications(r.Context(), actor.UserID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: notes, TotalCount: count, Page: page, PageSize: pageSize})
}

func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.noteSvc.MarkAsRead(r.Context(), actor.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
