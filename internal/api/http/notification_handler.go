package http

import (
	"net/http"

	"rental-marketplace-backend/internal/events"
	"rental-marketplace-backend/internal/service"
)

type NotificationHandler struct {
	notificationSvc service.NotificationService
	hub             *events.Hub
	errors          errorWriter
}

func NewNotificationHandler(notificationSvc service.NotificationService, hub *events.Hub, development bool) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc, hub: hub, errors: errorWriter{development: development}}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	notes, pagination, err := h.notificationSvc.GetNotifications(r.Context(), principal, parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, notes, pagination)
}

func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "notificationId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	if err := h.notificationSvc.MarkAsRead(r.Context(), principal, id); err != nil {
		h.errors.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamEvents upgrades to a websocket carrying the caller's domain events.
func (h *NotificationHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	h.hub.Serve(w, r, principal.UserID)
}
