package handlers

import (
	"net/http"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/utils"
)

type CartHandler struct {
	cart   CartService
	orders OrderService
}

func NewCartHandler(cart CartService, orders OrderService) *CartHandler {
	return &CartHandler{cart: cart, orders: orders}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	view, err := h.cart.Get(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.cart.Add(r.Context(), p, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	productID, err := idParam(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.cart.SetQuantity(r.Context(), p, productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	productID, err := idParam(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.cart.Remove(r.Context(), p, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.cart.Clear(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Contact models.Contact `json:"contact"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orders.Checkout(r.Context(), p, req.Contact)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}
