package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInquiryService struct {
	submitFunc     func(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error)
	getAllFunc     func(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, int64, error)
	transitionFunc func(ctx context.Context, id, to string) (*model.ContactInquiry, error)
}

func (m *mockInquiryService) Submit(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, sub)
	}
	return &model.SubmissionReceipt{Success: true}, nil
}

func (m *mockInquiryService) GetByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	return &model.ContactInquiry{ID: id, Status: "new"}, nil
}

func (m *mockInquiryService) GetAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, filter, limit, offset)
	}
	return []*model.ContactInquiry{}, 0, nil
}

func (m *mockInquiryService) Transition(ctx context.Context, id, to string) (*model.ContactInquiry, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, to)
	}
	return &model.ContactInquiry{ID: id, Status: to}, nil
}

func newTestRouter(svc *mockInquiryService) *httprouter.Router {
	router := httprouter.New()
	h := NewInquiryHandler(svc, logger.Discard())
	h.RegisterRoutes(router)
	h.RegisterPublicRoutes(router)
	return router
}

func TestSubmit(t *testing.T) {
	var got *model.InquirySubmission
	svc := &mockInquiryService{
		submitFunc: func(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error) {
			got = sub
			return &model.SubmissionReceipt{Success: true, Message: "Inquiry submitted successfully", InquiryID: "inq-1"}, nil
		},
	}

	body := `{"type":"booking","name":"Maria","email":"maria@example.com","phone":"+16502530000",` +
		`"subject":"Wedding","message":"Hi","djId":"dj-1","venueName":"Club A","eventDate":"2025-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/inquiries", strings.NewReader(body))
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, "booking", got.Type)
	assert.Equal(t, "dj-1", got.DJID)
	assert.Equal(t, "Club A", got.VenueName)
	assert.Equal(t, "2025-06-01", got.EventDate)

	var resp struct {
		Data model.SubmissionReceipt `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "inq-1", resp.Data.InquiryID)
	assert.Equal(t, "Inquiry submitted successfully", resp.Data.Message)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		expectCode int
	}{
		{name: "empty body", body: "", expectCode: http.StatusBadRequest},
		{name: "invalid email", body: `{"email":"nope"}`, err: apperrors.Validation("Inquiry validation failed", nil), expectCode: http.StatusUnprocessableEntity},
		{name: "store failure", body: `{"name":"x"}`, err: apperrors.Internal("Failed to submit inquiry", nil), expectCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockInquiryService{
				submitFunc: func(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error) {
					return nil, tt.err
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/inquiries", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, req)
			assert.Equal(t, tt.expectCode, w.Code)
		})
	}
}

func TestGetAll_Filters(t *testing.T) {
	var gotFilter model.InquiryFilter
	svc := &mockInquiryService{
		getAllFunc: func(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, int64, error) {
			gotFilter = filter
			return []*model.ContactInquiry{}, 0, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inquiries?status=in_progress&type=join", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.InquiryFilter{Status: "in_progress", Type: "join"}, gotFilter)
}

func TestTransition(t *testing.T) {
	svc := &mockInquiryService{
		transitionFunc: func(ctx context.Context, id, to string) (*model.ContactInquiry, error) {
			if to == "new" {
				return nil, apperrors.InvalidTransition("contact_inquiry", "resolved", to, []string{})
			}
			return &model.ContactInquiry{ID: id, Status: to}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/inquiries/id/inq-1/status", strings.NewReader(`{"status":"resolved"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/inquiries/id/inq-1/status", strings.NewReader(`{"status":"new"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
