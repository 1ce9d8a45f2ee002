package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rental-marketplace-backend/internal/events"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"
)

// Services are the dependencies the REST surface dispatches to.
type Services struct {
	User         service.UserService
	Property     service.PropertyService
	Application  service.ApplicationService
	Lease        service.LeaseService
	Payment      service.PaymentService
	Notification service.NotificationService
	Stats        service.StatsService
	Hub          *events.Hub
}

// NewRouter registers every route under /api/v1. Route names key the
// security table in the config package.
func NewRouter(svcs Services, tm security.TokenManager, development bool) *mux.Router {
	ew := errorWriter{development: development}
	properties := NewPropertyHandler(svcs.Property, development)
	applications := NewApplicationHandler(svcs.Application, development)
	leases := NewLeaseHandler(svcs.Lease, development)
	payments := NewPaymentHandler(svcs.Payment, development)
	notifications := NewNotificationHandler(svcs.Notification, svcs.Hub, development)
	stats := NewStatsHandler(svcs.Stats, development)

	router := mux.NewRouter()
	router.Use(requestContext, ew.recovery)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found", Code: "NOT_FOUND"})
	})

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("Health")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthMiddleware(tm, svcs.User, development).Handler)

	api.HandleFunc("/properties", properties.CreateProperty).Methods(http.MethodPost).Name("CreateProperty")
	api.HandleFunc("/properties", properties.ListProperties).Methods(http.MethodGet).Name("ListProperties")
	api.HandleFunc("/properties/{propertyId}", properties.GetProperty).Methods(http.MethodGet).Name("GetProperty")
	api.HandleFunc("/properties/{propertyId}", properties.UpdateProperty).Methods(http.MethodPut).Name("UpdateProperty")
	api.HandleFunc("/properties/{propertyId}/applications", applications.SubmitApplication).Methods(http.MethodPost).Name("SubmitApplication")
	api.HandleFunc("/properties/{propertyId}/application-status", applications.CheckApplicationStatus).Methods(http.MethodGet).Name("CheckApplicationStatus")

	api.HandleFunc("/applications", applications.ListTenantApplications).Methods(http.MethodGet).Name("ListTenantApplications")
	api.HandleFunc("/landlord/applications", applications.ListLandlordApplications).Methods(http.MethodGet).Name("ListLandlordApplications")
	api.HandleFunc("/applications/{applicationId}", applications.GetApplication).Methods(http.MethodGet).Name("GetApplication")
	api.HandleFunc("/applications/{applicationId}/decision", applications.DecideApplication).Methods(http.MethodPut).Name("DecideApplication")

	api.HandleFunc("/leases", leases.ListLeases).Methods(http.MethodGet).Name("ListLeases")
	api.HandleFunc("/leases/{leaseId}", leases.GetLease).Methods(http.MethodGet).Name("GetLease")
	api.HandleFunc("/leases/{leaseId}/terminate", leases.TerminateLease).Methods(http.MethodPut).Name("TerminateLease")
	api.HandleFunc("/leases/{leaseId}/payments", payments.ListLeasePayments).Methods(http.MethodGet).Name("ListLeasePayments")

	api.HandleFunc("/payments/history", payments.GetPaymentHistory).Methods(http.MethodGet).Name("GetPaymentHistory")
	api.HandleFunc("/payments/{paymentId}", payments.GetPayment).Methods(http.MethodGet).Name("GetPayment")
	api.HandleFunc("/payments/{paymentId}/orders", payments.CreatePaymentOrder).Methods(http.MethodPost).Name("CreatePaymentOrder")
	api.HandleFunc("/payments/{paymentId}/capture", payments.CapturePaymentOrder).Methods(http.MethodPost).Name("CapturePaymentOrder")

	api.HandleFunc("/notifications", notifications.GetNotifications).Methods(http.MethodGet).Name("GetNotifications")
	api.HandleFunc("/notifications/{notificationId}/read", notifications.MarkNotificationRead).Methods(http.MethodPut).Name("MarkNotificationRead")
	api.HandleFunc("/events", notifications.StreamEvents).Methods(http.MethodGet).Name("StreamEvents")

	api.HandleFunc("/stats/overview", stats.GetOverview).Methods(http.MethodGet).Name("GetStatsOverview")

	return router
}
