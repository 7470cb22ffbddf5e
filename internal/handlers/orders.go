package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		LineItems []models.LineItem `json:"line_items"`
		Contact   models.Contact    `json:"contact"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), p, req.LineItems, req.Contact)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
	logrus.WithFields(logrus.Fields{"order_id": order.ID, "user_id": p.UserID}).Debug("Order created")
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Get)
}

func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Reject)
}

func (h *OrderHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.orders.Finish)
}

func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeliveryTime time.Time `json:"delivery_time"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.withOrder(w, r, func(ctx context.Context, p models.Principal, id int64) (models.Order, error) {
		return h.orders.Approve(ctx, p, id, req.DeliveryTime)
	})
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.orders.Delete(r.Context(), p, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) withOrder(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.Principal, int64) (models.Order, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := fn(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
