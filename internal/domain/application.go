package domain

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further decision may be taken.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

type Application struct {
	ID          uuid.UUID         `json:"id"`
	PropertyID  uuid.UUID         `json:"property_id"`
	TenantID    uuid.UUID         `json:"tenant_id"`
	LeaseID     *uuid.UUID        `json:"lease_id,omitempty"`
	Status      ApplicationStatus `json:"status"`
	Message     string            `json:"message"`
	SubmittedAt time.Time         `json:"submitted_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Decision is the landlord's verdict on a pending application.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ParseDecision accepts both verbs and the target status names.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "APPROVE", "approve", string(ApplicationStatusApproved), "Approved":
		return DecisionApprove, nil
	case "REJECT", "reject", string(ApplicationStatusRejected), "Rejected":
		return DecisionReject, nil
	}
	return "", NewValidationError("invalid application decision %q", s)
}

// ApplicationStatusCheck answers whether a tenant already applied for a property.
type ApplicationStatusCheck struct {
	HasApplied  bool         `json:"has_applied"`
	Application *Application `json:"application"`
}
