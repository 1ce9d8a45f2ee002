package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type ApplicationHandler struct {
	applicationSvc service.ApplicationService
	errors         errorWriter
}

func NewApplicationHandler(applicationSvc service.ApplicationService, development bool) *ApplicationHandler {
	return &ApplicationHandler{applicationSvc: applicationSvc, errors: errorWriter{development: development}}
}

func (h *ApplicationHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	propertyID, err := pathUUID(r, "propertyId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	var req submitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.write(w, r, err)
		return
	}
	app, err := h.applicationSvc.Submit(r.Context(), principal, propertyID, req.Message)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "applicationId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	var req decideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.write(w, r, err)
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	// Lease details only matter for an approval.
	var details *domain.LeaseDetails
	if decision == domain.DecisionApprove {
		if details, err = req.LeaseDetails.toDomain(); err != nil {
			h.errors.write(w, r, err)
			return
		}
	}
	app, err := h.applicationSvc.Decide(r.Context(), principal, id, decision, details)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "applicationId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	app, err := h.applicationSvc.GetApplication(r.Context(), principal, id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) CheckApplicationStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	propertyID, err := pathUUID(r, "propertyId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	check, err := h.applicationSvc.CheckStatus(r.Context(), principal, propertyID)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *ApplicationHandler) ListTenantApplications(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	apps, pagination, err := h.applicationSvc.ListForTenant(r.Context(), principal, parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, apps, pagination)
}

func (h *ApplicationHandler) ListLandlordApplications(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	apps, pagination, err := h.applicationSvc.ListForLandlord(r.Context(), principal, r.URL.Query().Get("status"), parsePage(r))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, apps, pagination)
}
