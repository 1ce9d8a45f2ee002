package http

import (
	"net/http"

	"rental-marketplace-backend/internal/service"
)

type PaymentHandler struct {
	paymentSvc service.PaymentService
	errors     errorWriter
}

func NewPaymentHandler(paymentSvc service.PaymentService, development bool) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, errors: errorWriter{development: development}}
}

// CreatePaymentOrder opens a gateway checkout for one payment.
func (h *PaymentHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	order, err := h.paymentSvc.CreateOrder(r.Context(), principal, id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// CapturePaymentOrder captures an approved checkout and records it.
func (h *PaymentHandler) CapturePaymentOrder(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	var req captureOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.write(w, r, err)
		return
	}
	payment, err := h.paymentSvc.CaptureOrder(r.Context(), principal, id, req.OrderID)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "paymentId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	payment, err := h.paymentSvc.GetPayment(r.Context(), principal, id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListLeasePayments(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	leaseID, err := pathUUID(r, "leaseId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	payments, pagination, err := h.paymentSvc.ListForLease(r.Context(), principal, leaseID, r.URL.Query().Get("status"), parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, payments, pagination)
}

func (h *PaymentHandler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	payments, pagination, err := h.paymentSvc.History(r.Context(), principal, r.URL.Query().Get("status"), parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, payments, pagination)
}
