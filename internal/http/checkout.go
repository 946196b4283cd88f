package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
)

type startResponse struct {
	Items    []cart.Item `json:"items"`
	Redirect string      `json:"redirect"`
}

func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	items, err := s.Checkout.Start(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Items: items, Redirect: "/checkout"})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	v, err := s.Checkout.Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type promoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo always answers 200 with the view; the outcome is in promoResult.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	v, err := s.Checkout.ApplyPromo(r.Context(), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type deliveryRequest struct {
	Method string `json:"method"`
}

func (h *Handler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	method, err := checkout.ParseDelivery(req.Method)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "delivery"})
		return
	}

	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	s.Checkout.SetDelivery(method)
	v, err := s.Checkout.Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type submitResponse struct {
	Confirmation checkout.Confirmation `json:"confirmation"`
	Redirect     string                `json:"redirect"`
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var contact checkout.Contact
	if err := decodeJSON(r, &contact); err != nil {
		h.writeError(w, r, err)
		return
	}

	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	conf, err := s.Checkout.Submit(r.Context(), contact)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Confirmation: conf, Redirect: "/order-confirmation"})
}

func (h *Handler) OrderConfirmation(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	conf, err := checkout.LoadConfirmation(r.Context(), s.KV)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}
