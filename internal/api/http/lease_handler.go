package http

import (
	"net/http"

	"rental-marketplace-backend/internal/service"
)

type LeaseHandler struct {
	leaseSvc service.LeaseService
	errors   errorWriter
}

func NewLeaseHandler(leaseSvc service.LeaseService, development bool) *LeaseHandler {
	return &LeaseHandler{leaseSvc: leaseSvc, errors: errorWriter{development: development}}
}

func (h *LeaseHandler) GetLease(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "leaseId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	lease, err := h.leaseSvc.GetLease(r.Context(), principal, id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}

func (h *LeaseHandler) ListLeases(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	leases, pagination, err := h.leaseSvc.ListLeases(r.Context(), principal, parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, leases, pagination)
}

func (h *LeaseHandler) TerminateLease(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "leaseId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	lease, err := h.leaseSvc.Terminate(r.Context(), principal, id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}
