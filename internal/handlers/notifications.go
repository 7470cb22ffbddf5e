package handlers

import (
	"net/http"

	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	notifications NotificationService
	ws            WebsocketServer
}

func NewNotificationHandler(notifications NotificationService, ws WebsocketServer) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, ws: ws}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.notifications.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, n)
}

// Stream upgrades to a websocket and pushes the caller's notifications
// until the client goes away.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.ws.Serve(w, r, p.UserID); err != nil {
		logrus.WithError(err).WithField("user_id", p.UserID).Warn("Websocket session failed")
		return
	}
	logrus.WithField("user_id", p.UserID).Debug("Websocket session closed")
}
