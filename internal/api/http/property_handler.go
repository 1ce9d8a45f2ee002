package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type PropertyHandler struct {
	propertySvc service.PropertyService
	errors      errorWriter
}

func NewPropertyHandler(propertySvc service.PropertyService, development bool) *PropertyHandler {
	return &PropertyHandler{propertySvc: propertySvc, errors: errorWriter{development: development}}
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	var req createPropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.write(w, r, err)
		return
	}
	property, err := h.propertySvc.CreateProperty(r.Context(), principal, req.Name, req.MonthlyRent, req.Deposit)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, property)
}

func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "propertyId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	property, err := h.propertySvc.GetProperty(r.Context(), id)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// ListProperties accepts available=true|false, q (name search),
// min_rent, max_rent and mine=true for a landlord's own listings.
func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	filter, err := parsePropertyFilter(r, principal)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	page := parsePage(r)
	properties, pagination, err := h.propertySvc.ListProperties(r.Context(), principal, filter, page)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeList(w, properties, pagination)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	id, err := pathUUID(r, "propertyId")
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	var req updatePropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errors.write(w, r, err)
		return
	}
	property, err := h.propertySvc.UpdateProperty(r.Context(), principal, id, req.toDomain())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func parsePropertyFilter(r *http.Request, principal domain.Principal) (domain.PropertyFilter, error) {
	q := r.URL.Query()
	filter := domain.PropertyFilter{Search: q.Get("q")}

	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return filter, domain.NewValidationError("invalid available filter %q", v)
		}
		filter.Available = &available
	}

	if q.Get("mine") == "true" {
		if principal.Role != domain.RoleLandlord {
			return filter, domain.NewValidationError("mine=true is only meaningful for landlords")
		}
		filter.LandlordID = &principal.UserID
	}

	for name, dst := range map[string]**decimal.Decimal{"min_rent": &filter.MinRent, "max_rent": &filter.MaxRent} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, domain.NewValidationError("invalid %s %q", name, raw)
		}
		*dst = &d
	}
	return filter, nil
}
