package domain

import "github.com/shopspring/decimal"

type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	TotalProperties     int `json:"total_properties"`
	AvailableProperties int `json:"available_properties"`
	TotalLeases         int `json:"total_leases"`
	ActiveLeases        int `json:"active_leases"`
	TotalPayments       int `json:"total_payments"`
	OverduePayments     int `json:"overdue_payments"`
	TotalApplications   int `json:"total_applications"`
	PendingApplications int `json:"pending_applications"`
}

// TenantStats.UpcomingPayments counts PENDING payments not yet due.
type TenantStats struct {
	ActiveLeases        int             `json:"active_leases"`
	UpcomingPayments    int             `json:"upcoming_payments"`
	OverduePayments     int             `json:"overdue_payments"`
	PendingApplications int             `json:"pending_applications"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
}

type LandlordStats struct {
	TotalProperties     int             `json:"total_properties"`
	OccupiedProperties  int             `json:"occupied_properties"`
	VacantProperties    int             `json:"vacant_properties"`
	PendingApplications int             `json:"pending_applications"`
	ActiveLeases        int             `json:"active_leases"`
	OpenPayments        int             `json:"open_payments"`
	OverduePayments     int             `json:"overdue_payments"`
	TotalCollected      decimal.Decimal `json:"total_collected"`
	CollectedThisMonth  decimal.Decimal `json:"collected_this_month"`
}
