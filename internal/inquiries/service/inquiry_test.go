package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	inquiryerrors "djagency/internal/inquiries/errors"
	"djagency/internal/inquiries/validator"
	"djagency/pkg/config"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/metrics"
	"djagency/pkg/model"
	"djagency/pkg/notification"
	"djagency/pkg/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryInquiryRepository struct {
	mu        sync.Mutex
	nextID    int
	inquiries map[string]*model.ContactInquiry

	lastFilter model.InquiryFilter
}

func newMemoryInquiryRepository() *memoryInquiryRepository {
	return &memoryInquiryRepository{inquiries: make(map[string]*model.ContactInquiry)}
}

func (m *memoryInquiryRepository) Create(ctx context.Context, inq *model.ContactInquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	inq.ID = "inq-" + strconv.Itoa(m.nextID)
	inq.CreatedAt = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	inq.UpdatedAt = inq.CreatedAt
	stored := *inq
	m.inquiries[inq.ID] = &stored
	return nil
}

func (m *memoryInquiryRepository) FindByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inq, ok := m.inquiries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrNotFound, id)
	}
	out := *inq
	return &out, nil
}

func (m *memoryInquiryRepository) FindAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := make([]*model.ContactInquiry, 0)
	for _, inq := range m.inquiries {
		if filter.Status != "" && inq.Status != filter.Status {
			continue
		}
		if filter.Type != "" && inq.Type != filter.Type {
			continue
		}
		copied := *inq
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryInquiryRepository) Count(ctx context.Context, filter model.InquiryFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, inq := range m.inquiries {
		if (filter.Status == "" || inq.Status == filter.Status) && (filter.Type == "" || inq.Type == filter.Type) {
			n++
		}
	}
	return n, nil
}

func (m *memoryInquiryRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.ContactInquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inq, ok := m.inquiries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrNotFound, id)
	}
	if inq.Status != from {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrStatusConflict, id)
	}
	inq.Status = to
	inq.UpdatedAt = inq.UpdatedAt.Add(time.Minute)
	out := *inq
	return &out, nil
}

type fixture struct {
	repo *memoryInquiryRepository
	svc  InquiryService
}

func newFixture() *fixture {
	log := logger.Discard()
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	m := metrics.New("agency_test")
	repo := newMemoryInquiryRepository()
	notifier := notification.NewNotifier(
		notification.NewBuilder("hello@agency.test", nil),
		notification.NewLogSender(log),
		m,
		log,
	)
	return &fixture{
		repo: repo,
		svc:  NewInquiryService(repo, validator.NewInquiryValidator(), notifier, m, cfg),
	}
}

func newSubmission(inquiryType string) *model.InquirySubmission {
	return &model.InquirySubmission{
		Type:    inquiryType,
		Name:    " Maria  Lopez ",
		Email:   "Maria@Example.com ",
		Phone:   "+1 650 253 0000",
		Subject: "Wedding",
		Message: "Do you cover weddings?\r\nThanks",
	}
}

func submit(t *testing.T, f *fixture, inquiryType string) *model.ContactInquiry {
	t.Helper()
	receipt, err := f.svc.Submit(context.Background(), newSubmission(inquiryType))
	require.NoError(t, err)
	inq, err := f.svc.GetByID(context.Background(), receipt.InquiryID)
	require.NoError(t, err)
	return inq
}

func TestSubmit_AlwaysStartsNew(t *testing.T) {
	for _, inquiryType := range []string{"", "general", "booking", "join", "dj_application", "trade", "trade_request", "press"} {
		t.Run("type="+inquiryType, func(t *testing.T) {
			f := newFixture()
			inq := submit(t, f, inquiryType)
			assert.Equal(t, status.InquiryNew, inq.Status)
		})
	}
}

func TestSubmit_NormalizesFields(t *testing.T) {
	f := newFixture()

	sub := newSubmission("join")
	sub.DJID = " dj-7 "
	sub.VenueName = "Club  A"
	sub.EventDate = "next summer"
	receipt, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, "Inquiry submitted successfully", receipt.Message)
	assert.NotEmpty(t, receipt.NotificationID)

	inq := f.repo.inquiries[receipt.InquiryID]
	assert.Equal(t, model.InquiryTypeDJApplication, inq.Type)
	assert.Equal(t, "Maria Lopez", inq.Name)
	assert.Equal(t, "maria@example.com", inq.Email)
	assert.Equal(t, "+16502530000", inq.Phone)
	assert.Equal(t, "Do you cover weddings?\nThanks", inq.Message)
	assert.Equal(t, "dj-7", inq.DJID)
	assert.Equal(t, "Club A", inq.VenueName)
	assert.Equal(t, "next summer", inq.EventDate)
}

func TestSubmit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *model.InquirySubmission)
	}{
		{name: "missing name", mutate: func(s *model.InquirySubmission) { s.Name = "  " }},
		{name: "missing email", mutate: func(s *model.InquirySubmission) { s.Email = "" }},
		{name: "email without domain", mutate: func(s *model.InquirySubmission) { s.Email = "maria@" }},
		{name: "email without dot", mutate: func(s *model.InquirySubmission) { s.Email = "maria@example" }},
		{name: "missing message", mutate: func(s *model.InquirySubmission) { s.Message = "\n " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			sub := newSubmission("general")
			tt.mutate(sub)

			_, err := f.svc.Submit(context.Background(), sub)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
			assert.Empty(t, f.repo.inquiries)
		})
	}
}

func TestSubmit_UnparseablePhoneKept(t *testing.T) {
	f := newFixture()
	sub := newSubmission("general")
	sub.Phone = " call after  6pm "

	inq := submitWith(t, f, sub)
	assert.Equal(t, "call after 6pm", inq.Phone)
}

func submitWith(t *testing.T, f *fixture, sub *model.InquirySubmission) *model.ContactInquiry {
	t.Helper()
	receipt, err := f.svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	return f.repo.inquiries[receipt.InquiryID]
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{from: "new", to: "in_progress", ok: true},
		{from: "new", to: "resolved", ok: true},
		{from: "in_progress", to: "resolved", ok: true},
		{from: "new", to: "new", ok: false},
		{from: "in_progress", to: "new", ok: false},
		{from: "resolved", to: "new", ok: false},
		{from: "resolved", to: "in_progress", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			f := newFixture()
			inq := submit(t, f, "general")
			f.repo.inquiries[inq.ID].Status = tt.from

			updated, err := f.svc.Transition(context.Background(), inq.ID, tt.to)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "got %v", err)
				assert.Equal(t, tt.from, f.repo.inquiries[inq.ID].Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
			assert.True(t, updated.UpdatedAt.After(inq.UpdatedAt))
		})
	}
}

func TestTransition_ResolvedCannotReopen(t *testing.T) {
	f := newFixture()
	inq := submit(t, f, "booking")

	resolved, err := f.svc.Transition(context.Background(), inq.ID, status.InquiryResolved)
	require.NoError(t, err)
	assert.Equal(t, status.InquiryResolved, resolved.Status)

	_, err = f.svc.Transition(context.Background(), inq.ID, status.InquiryNew)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	stored, err := f.svc.GetByID(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.Equal(t, status.InquiryResolved, stored.Status)
}

func TestTransition_AcceptsHyphenatedStatus(t *testing.T) {
	f := newFixture()
	inq := submit(t, f, "general")

	updated, err := f.svc.Transition(context.Background(), inq.ID, "In-Progress")
	require.NoError(t, err)
	assert.Equal(t, status.InquiryInProgress, updated.Status)
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Transition(context.Background(), "inq-404", status.InquiryResolved)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestGetAll_Filters(t *testing.T) {
	f := newFixture()
	submit(t, f, "booking")
	submit(t, f, "join")
	submit(t, f, "general")

	inquiries, total, err := f.svc.GetAll(context.Background(), model.InquiryFilter{Type: "dj-application", Status: "NEW"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, inquiries, 1)
	assert.Equal(t, model.InquiryFilter{Type: model.InquiryTypeDJApplication, Status: status.InquiryNew}, f.repo.lastFilter)

	_, _, err = f.svc.GetAll(context.Background(), model.InquiryFilter{Type: "press"}, 0, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, _, err = f.svc.GetAll(context.Background(), model.InquiryFilter{Status: "closed"}, 0, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
