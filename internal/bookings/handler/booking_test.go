package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	submitFunc     func(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error)
	getAllFunc     func(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	getByDJFunc    func(ctx context.Context, djID string, limit int, offset int64) ([]*model.Booking, int64, error)
	updateFunc     func(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	transitionFunc func(ctx context.Context, id, to string) (*model.Booking, error)
	deleteFunc     func(ctx context.Context, id string) error
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = "bk-1"
	booking.Status = "confirmed"
	return nil
}

func (m *mockBookingService) Submit(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return &model.SubmissionReceipt{Success: true}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) GetByDJ(ctx context.Context, djID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getByDJFunc != nil {
		return m.getByDJFunc(ctx, djID, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, updates)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Transition(ctx context.Context, id, to string) (*model.Booking, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, to)
	}
	return &model.Booking{ID: id, Status: to}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	h := NewBookingHandler(svc, logger.New(logger.Config{Level: "error", Output: io.Discard}))
	h.RegisterRoutes(router)
	h.RegisterPublicRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmit(t *testing.T) {
	var got *model.BookingRequest
	svc := &mockBookingService{
		submitFunc: func(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error) {
			got = req
			return &model.SubmissionReceipt{
				Success:   true,
				Message:   "Booking request submitted successfully",
				BookingID: "bk-7",
			}, nil
		},
	}

	body := `{"djId":"dj-1","venueName":"Club A","eventDate":"2025-03-14","duration":4,"rate":1200}`
	w := serve(newTestRouter(svc), http.MethodPost, "/booking-requests", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if got == nil || got.DJID != "dj-1" || got.Duration != 4 || got.Rate == nil || *got.Rate != 1200 {
		t.Errorf("unexpected decoded request %+v", got)
	}

	var resp struct {
		Data model.SubmissionReceipt `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.Success || resp.Data.BookingID != "bk-7" {
		t.Errorf("unexpected receipt %+v", resp.Data)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		expectCode int
	}{
		{name: "malformed json", body: `{"djId":`, expectCode: http.StatusBadRequest},
		{name: "validation", body: `{}`, err: apperrors.Validation("Booking request validation failed", nil), expectCode: http.StatusUnprocessableEntity},
		{name: "unknown dj", body: `{"djId":"dj-9"}`, err: apperrors.NotFoundWithID("DJ", "dj-9"), expectCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				submitFunc: func(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error) {
					return nil, tt.err
				},
			}
			w := serve(newTestRouter(svc), http.MethodPost, "/booking-requests", tt.body)
			if w.Code != tt.expectCode {
				t.Errorf("expected status %d, got %d", tt.expectCode, w.Code)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	w := serve(newTestRouter(&mockBookingService{}), http.MethodPost, "/api/v1/bookings",
		`{"dj_id":"dj-1","venue_name":"Club A","event_date":"2025-03-14"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.ID != "bk-1" || resp.Data.Status != "confirmed" || resp.Data.VenueName != "Club A" {
		t.Errorf("unexpected response %+v", resp.Data)
	}
}

func TestGetAll_Filters(t *testing.T) {
	var gotFilter model.BookingFilter
	var gotOffset int64
	svc := &mockBookingService{
		getAllFunc: func(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotFilter, gotOffset = filter, offset
			return []*model.Booking{{ID: "bk-1"}}, 1, nil
		},
	}

	w := serve(newTestRouter(svc), http.MethodGet, "/api/v1/bookings?dj_id=dj-1&venue_id=venue-2&status=pending&offset=20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotFilter.DJID != "dj-1" || gotFilter.VenueID != "venue-2" || gotFilter.Status != "pending" || gotOffset != 20 {
		t.Errorf("unexpected filter %+v offset %d", gotFilter, gotOffset)
	}

	w = serve(newTestRouter(svc), http.MethodGet, "/api/v1/bookings?limit=-", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetByDJ(t *testing.T) {
	var gotID string
	svc := &mockBookingService{
		getByDJFunc: func(ctx context.Context, djID string, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotID = djID
			return []*model.Booking{{ID: "bk-1", DJID: djID}}, 1, nil
		},
	}

	w := serve(newTestRouter(svc), http.MethodGet, "/api/v1/djs/id/dj-3/bookings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotID != "dj-3" {
		t.Errorf("expected dj-3, got %q", gotID)
	}

	var resp struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCount != 1 {
		t.Errorf("expected total_count 1, got %d", resp.TotalCount)
	}
}

func TestUpdate_RejectsStatusField(t *testing.T) {
	called := false
	svc := &mockBookingService{
		updateFunc: func(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
			called = true
			return &model.Booking{ID: id}, nil
		},
	}

	w := serve(newTestRouter(svc), http.MethodPatch, "/api/v1/bookings/id/bk-1", `{"status":"completed"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if called {
		t.Errorf("service should not be called for unknown fields")
	}

	w = serve(newTestRouter(svc), http.MethodPatch, "/api/v1/bookings/id/bk-1", `{"notes":"Bring vinyl"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		expectCode int
	}{
		{name: "legal", body: `{"status":"confirmed"}`, expectCode: http.StatusOK},
		{
			name:       "illegal",
			body:       `{"status":"pending"}`,
			err:        apperrors.InvalidTransition("booking", "completed", "pending", nil),
			expectCode: http.StatusConflict,
		},
		{name: "missing booking", body: `{"status":"confirmed"}`, err: apperrors.NotFoundWithID("Booking", "bk-1"), expectCode: http.StatusNotFound},
		{name: "unknown field", body: `{"state":"confirmed"}`, expectCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTo string
			svc := &mockBookingService{
				transitionFunc: func(ctx context.Context, id, to string) (*model.Booking, error) {
					gotTo = to
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Booking{ID: id, Status: to}, nil
				},
			}

			w := serve(newTestRouter(svc), http.MethodPatch, "/api/v1/bookings/id/bk-1/status", tt.body)
			if w.Code != tt.expectCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}
			if tt.expectCode == http.StatusOK && gotTo != "confirmed" {
				t.Errorf("expected target confirmed, got %q", gotTo)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	svc := &mockBookingService{
		deleteFunc: func(ctx context.Context, id string) error {
			if id == "bk-404" {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return nil
		},
	}
	router := newTestRouter(svc)

	if w := serve(router, http.MethodDelete, "/api/v1/bookings/id/bk-1", ""); w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if w := serve(router, http.MethodDelete, "/api/v1/bookings/id/bk-404", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
