package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/metrics"
)

// NewRouter wires every engine operation under /api/v1. metricsPath may be
// empty to disable the Prometheus endpoint.
func NewRouter(h *Handler, metricsPath string) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	if metricsPath != "" {
		r.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/status", h.GetBookingStatus).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/approve", h.bookingAction(h.ApproveBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/reject", h.bookingAction(h.RejectBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", h.bookingAction(h.CancelBooking)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payment", h.bookingAction(h.MarkBookingAsPaid)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/condition", h.bookingAction(h.SubmitConditionReport)).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/deposit", h.bookingAction(h.PayDeposit)).Methods(http.MethodPost)
	api.HandleFunc("/rentals", h.list(h.ListRentals)).Methods(http.MethodGet)
	api.HandleFunc("/lendings", h.list(h.ListLendings)).Methods(http.MethodGet)
	api.HandleFunc("/wallet", h.GetWallet).Methods(http.MethodGet)
	api.HandleFunc("/wallet/earnings", h.GetEarnings).Methods(http.MethodGet)
	api.HandleFunc("/wallet/payouts", h.RequestPayout).Methods(http.MethodPost)
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPLatency.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		logger.Debug("HTTP request", "method", r.Method, "route", route, "status", rec.status, "duration", elapsed)
	})
}
