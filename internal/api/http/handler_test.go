package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository/memory"
	"toolrent-backend/internal/service"
)

type apiEnv struct {
	router http.Handler
	store  *memory.Store
	owner  uuid.UUID
	renter uuid.UUID
	tool   uuid.UUID
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := memory.NewStore()
	env := &apiEnv{store: store, owner: uuid.New(), renter: uuid.New(), tool: uuid.New()}
	store.AddUser(&domain.User{ID: env.owner, Name: "Owner"})
	store.AddUser(&domain.User{ID: env.renter, Name: "Renter"})
	store.AddTool(&domain.Tool{ID: env.tool, OwnerID: env.owner, Name: "Drill", PricePerDay: decimal.NewFromInt(10), Active: true})

	deps := service.Dependencies{
		Tx:      store,
		Tools:   store,
		Users:   store,
		Gateway: gateway.NewManualGateway(),
		Clock:   policy.NewFixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		Policy:  policy.Default(),
	}
	h := NewHandler(service.NewBookingService(deps), service.NewConditionService(deps), service.NewWalletService(deps))
	env.router = NewRouter(h, "/metrics")
	return env
}

func (e *apiEnv) do(t *testing.T, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != uuid.Nil {
		req.Header.Set(CallerHeader, user.String())
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBookingFlowOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/bookings", env.renter, map[string]string{
		"tool_id": env.tool.String(), "start_date": "2024-01-01", "end_date": "2024-01-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decodeBody[domain.Booking](t, rec)
	assert.Equal(t, domain.BookingStatusPending, a.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(a.TotalPrice))

	rec = env.do(t, http.MethodPost, "/api/v1/bookings", env.renter, map[string]string{
		"tool_id": env.tool.String(), "start_date": "2024-01-02", "end_date": "2024-01-04",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	b := decodeBody[domain.Booking](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/approve", a.ID), env.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/approve", b.ID), env.owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.KindConflict, decodeBody[errorResponse](t, rec).Kind)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%s/status", b.ID), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.BookingStatusPending, decodeBody[statusResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", b.ID), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", b.ID), env.renter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[domain.CancellationResult](t, rec)
	assert.Equal(t, 100, res.RefundPercentage)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", b.ID), env.renter, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/lendings?status=APPROVED", env.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[listResponse](t, rec)
	assert.Equal(t, int32(1), list.Total)
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, a.ID, list.Bookings[0].ID)
}

func TestRequestValidation(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		body   any
		want   int
	}{
		{"missing caller", http.MethodGet, "/api/v1/wallet", uuid.Nil, nil, http.StatusBadRequest},
		{"bad tool id", http.MethodPost, "/api/v1/bookings", env.renter, map[string]string{"tool_id": "x", "start_date": "2024-01-02", "end_date": "2024-01-03"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/v1/bookings", env.renter, map[string]string{"tool_id": env.tool.String(), "start_date": "02/01/2024", "end_date": "2024-01-03"}, http.StatusBadRequest},
		{"unknown tool", http.MethodPost, "/api/v1/bookings", env.renter, map[string]string{"tool_id": uuid.NewString(), "start_date": "2024-01-02", "end_date": "2024-01-03"}, http.StatusNotFound},
		{"bad booking id", http.MethodGet, "/api/v1/bookings/nope", env.renter, nil, http.StatusBadRequest},
		{"unknown status filter", http.MethodGet, "/api/v1/rentals?status=LOST", env.renter, nil, http.StatusBadRequest},
		{"bad condition", http.MethodPost, "/api/v1/bookings/" + uuid.NewString() + "/condition", env.renter, map[string]string{"condition": "MEH"}, http.StatusBadRequest},
		{"zero payout", http.MethodPost, "/api/v1/wallet/payouts", env.owner, map[string]string{"amount": "0"}, http.StatusBadRequest},
		{"payout above balance", http.MethodPost, "/api/v1/wallet/payouts", env.owner, map[string]string{"amount": "50"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.ErrBookingNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(domain.ErrDepositNotRequired))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(domain.ErrInsufficientBalance))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrInvalidPayout))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("db down")))
}

func TestHealthAndMetrics(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "toolrent_http_requests_total")
}
