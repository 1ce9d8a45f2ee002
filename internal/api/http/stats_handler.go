package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type StatsHandler struct {
	statsSvc service.StatsService
	errors   errorWriter
}

func NewStatsHandler(statsSvc service.StatsService, development bool) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc, errors: errorWriter{development: development}}
}

// GetOverview returns the dashboard for the caller's role.
func (h *StatsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	var overview any
	switch principal.Role {
	case domain.RoleAdmin:
		overview, err = h.statsSvc.AdminOverview(r.Context(), principal)
	case domain.RoleLandlord:
		overview, err = h.statsSvc.LandlordOverview(r.Context(), principal)
	default:
		overview, err = h.statsSvc.TenantOverview(r.Context(), principal)
	}
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
