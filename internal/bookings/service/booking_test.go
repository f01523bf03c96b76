package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	bookingerrors "djagency/internal/bookings/errors"
	"djagency/internal/bookings/validator"
	"djagency/pkg/config"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/metrics"
	"djagency/pkg/model"
	"djagency/pkg/notification"
	"djagency/pkg/status"
)

// ────────────────────────────────────────────────
// In-memory repository for testing
// ────────────────────────────────────────────────

type memoryBookingRepository struct {
	mu       sync.Mutex
	nextID   int
	bookings map[string]*model.Booking

	// beforeStatusWrite runs inside UpdateStatus before the guard is checked.
	beforeStatusWrite func(b *model.Booking)
}

func newMemoryBookingRepository() *memoryBookingRepository {
	return &memoryBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (m *memoryBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = "bk-" + strconv.Itoa(m.nextID)
	b.CreatedAt = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	b.UpdatedAt = b.CreatedAt
	stored := *b
	m.bookings[b.ID] = &stored
	return nil
}

func (m *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	out := *b
	return &out, nil
}

func (m *memoryBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if filter.DJID != "" && b.DJID != filter.DJID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	found, err := m.FindAll(ctx, filter, 0, 0)
	return int64(len(found)), err
}

func (m *memoryBookingRepository) Update(ctx context.Context, id string, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	stored := *b
	stored.Status = existing.Status
	m.bookings[id] = &stored
	return nil
}

func (m *memoryBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	if m.beforeStatusWrite != nil {
		m.beforeStatusWrite(b)
	}
	if b.Status != from {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrStatusConflict, id)
	}
	b.Status = to
	b.UpdatedAt = b.UpdatedAt.Add(time.Minute)
	out := *b
	return &out, nil
}

func (m *memoryBookingRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	delete(m.bookings, id)
	return nil
}

func (m *memoryBookingRepository) DetachDJ(ctx context.Context, djID string) (int64, error) {
	return 0, nil
}

func (m *memoryBookingRepository) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	return 0, nil
}

func (m *memoryBookingRepository) DetachVenue(ctx context.Context, venueID string) (int64, error) {
	return 0, nil
}

func (m *memoryBookingRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	return 0, nil
}

type fakeDJLookup struct {
	djs map[string]*model.DJ
}

func (f *fakeDJLookup) GetByID(ctx context.Context, id string) (*model.DJ, error) {
	if id == "malformed" {
		return nil, apperrors.InvalidInput("Invalid DJ ID format")
	}
	dj, ok := f.djs[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("DJ", id)
	}
	return dj, nil
}

type fakeVenueLookup struct {
	venues map[string]*model.Venue
}

func (f *fakeVenueLookup) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	venue, ok := f.venues[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Venue", id)
	}
	return venue, nil
}

type recordingSender struct {
	sent []notification.Payload
}

func (r *recordingSender) Send(ctx context.Context, p notification.Payload) (notification.Result, error) {
	r.sent = append(r.sent, p)
	return notification.Result{Success: true, ID: "ntf-" + strconv.Itoa(len(r.sent))}, nil
}

func (r *recordingSender) Driver() string { return "recording" }
func (r *recordingSender) Close() error   { return nil }

type fixture struct {
	repo   *memoryBookingRepository
	sender *recordingSender
	svc    BookingService
}

func newFixture(adminStatus string) *fixture {
	log := logger.Discard()
	cfg := &config.Config{
		Log:                log,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		AdminBookingStatus: adminStatus,
	}
	djs := &fakeDJLookup{djs: map[string]*model.DJ{
		"dj-1": {ID: "dj-1", Name: "Ana Ruiz", StageName: "DJ Nova", BookingRate: 1500},
		"dj-2": {ID: "dj-2", Name: "Ben Ortiz", BookingRate: 900},
	}}
	venues := &fakeVenueLookup{venues: map[string]*model.Venue{
		"venue-1": {ID: "venue-1", Name: "Club A"},
	}}
	repo := newMemoryBookingRepository()
	sender := &recordingSender{}
	notifier := notification.NewNotifier(
		notification.NewBuilder("bookings@agency.test", nil),
		sender,
		metrics.New("agency_test"),
		log,
	)
	svc := NewBookingService(repo, validator.NewBookingValidator(log), djs, venues, notifier, nil, cfg)
	return &fixture{repo: repo, sender: sender, svc: svc}
}

func newRequest() *model.BookingRequest {
	return &model.BookingRequest{
		DJID:      "dj-1",
		VenueName: "  Club   Central ",
		EventDate: "2025-03-14",
		EventTime: "22:00",
		Duration:  4,
		Name:      "Maria Lopez",
		Email:     "Maria@Example.com",
	}
}

func adminBooking() *model.Booking {
	return &model.Booking{
		DJID:          "dj-1",
		VenueName:     "Club B",
		EventDate:     "2025-04-01",
		DurationHours: 3,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

// ────────────────────────────────────────────────
// Submit (public)
// ────────────────────────────────────────────────

func TestSubmit_StartsPendingWithDJRate(t *testing.T) {
	f := newFixture("")

	receipt, err := f.svc.Submit(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.Success || receipt.Message != "Booking request submitted successfully" {
		t.Errorf("unexpected receipt %+v", receipt)
	}
	if receipt.NotificationID != "ntf-1" {
		t.Errorf("expected notification id from sender, got %q", receipt.NotificationID)
	}

	stored, err := f.svc.GetByID(context.Background(), receipt.BookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != status.BookingPending {
		t.Errorf("expected pending, got %q", stored.Status)
	}
	if stored.Source != model.BookingSourcePublic {
		t.Errorf("expected public source, got %q", stored.Source)
	}
	if stored.Rate != 1500 {
		t.Errorf("expected DJ booking rate, got %d", stored.Rate)
	}
	if stored.VenueName != "Club Central" {
		t.Errorf("expected normalized venue name, got %q", stored.VenueName)
	}
	if stored.DurationHours != 4 || stored.EventDate != "2025-03-14" || stored.EventTime != "22:00" {
		t.Errorf("expected event fields to be copied, got %+v", stored)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.sender.sent))
	}
	if f.sender.sent[0].Subject != "DJ Booking Request" {
		t.Errorf("unexpected subject %q", f.sender.sent[0].Subject)
	}
}

func TestSubmit_RateOverride(t *testing.T) {
	f := newFixture("")

	req := newRequest()
	rate := int64(2200)
	req.Rate = &rate
	receipt, err := f.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.bookings[receipt.BookingID].Rate; got != 2200 {
		t.Errorf("expected overridden rate, got %d", got)
	}

	zero := int64(0)
	req = newRequest()
	req.Rate = &zero
	receipt, err = f.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.bookings[receipt.BookingID].Rate; got != 1500 {
		t.Errorf("expected zero rate to fall back to DJ rate, got %d", got)
	}
}

func TestSubmit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.BookingRequest)
		code   string
	}{
		{name: "missing dj", mutate: func(r *model.BookingRequest) { r.DJID = "" }, code: apperrors.CodeValidation},
		{name: "bad date", mutate: func(r *model.BookingRequest) { r.EventDate = "14/03/2025" }, code: apperrors.CodeValidation},
		{name: "zero duration", mutate: func(r *model.BookingRequest) { r.Duration = 0 }, code: apperrors.CodeValidation},
		{name: "missing venue", mutate: func(r *model.BookingRequest) { r.VenueName = "  " }, code: apperrors.CodeValidation},
		{name: "unknown dj", mutate: func(r *model.BookingRequest) { r.DJID = "dj-404" }, code: apperrors.CodeNotFound},
		{name: "malformed dj id", mutate: func(r *model.BookingRequest) { r.DJID = "malformed" }, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			req := newRequest()
			tt.mutate(req)

			_, err := f.svc.Submit(context.Background(), req)
			assertCode(t, err, tt.code)
			if len(f.repo.bookings) != 0 {
				t.Errorf("expected nothing persisted, got %d", len(f.repo.bookings))
			}
			if len(f.sender.sent) != 0 {
				t.Errorf("expected no notification, got %d", len(f.sender.sent))
			}
		})
	}
}

func TestSubmit_PastDateAccepted(t *testing.T) {
	f := newFixture("")
	req := newRequest()
	req.EventDate = "2001-01-01"

	if _, err := f.svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("expected past date to be accepted, got %v", err)
	}
}

// ────────────────────────────────────────────────
// Create (admin)
// ────────────────────────────────────────────────

// Public and admin entry points start bookings in different states unless
// ADMIN_BOOKING_STATUS is set to pending. This pins the default.
func TestInitialStatusDiffersByEntryPoint(t *testing.T) {
	f := newFixture("")

	receipt, err := f.svc.Submit(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	admin := adminBooking()
	if err := f.svc.Create(context.Background(), admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	public := f.repo.bookings[receipt.BookingID]
	if public.Status != status.BookingPending {
		t.Errorf("expected public booking pending, got %q", public.Status)
	}
	if admin.Status != status.BookingConfirmed {
		t.Errorf("expected admin booking confirmed by default, got %q", admin.Status)
	}
	if admin.Source != model.BookingSourceAdmin {
		t.Errorf("expected admin source, got %q", admin.Source)
	}
}

func TestCreate_AdminStatusPendingUnifiesEntryPoints(t *testing.T) {
	f := newFixture(status.BookingPending)

	admin := adminBooking()
	if err := f.svc.Create(context.Background(), admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.Status != status.BookingPending {
		t.Errorf("expected pending, got %q", admin.Status)
	}
}

func TestCreate_IgnoresClientStatusAndID(t *testing.T) {
	f := newFixture("")

	admin := adminBooking()
	admin.ID = "client-chosen"
	admin.Status = status.BookingCompleted
	if err := f.svc.Create(context.Background(), admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.ID == "client-chosen" {
		t.Errorf("expected server assigned id")
	}
	if admin.Status != status.BookingConfirmed {
		t.Errorf("expected confirmed, got %q", admin.Status)
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	f := newFixture("")

	admin := adminBooking()
	admin.VenueID = "venue-1"
	admin.EventTime = "21:30"
	admin.Notes = "Sunset set"
	if err := f.svc.Create(context.Background(), admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.GetByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != *admin {
		t.Errorf("read back %+v, want %+v", got, admin)
	}
	if got.VenueName != "Club A" {
		t.Errorf("expected venue name from venue record, got %q", got.VenueName)
	}
	if got.Rate != 1500 {
		t.Errorf("expected DJ rate default, got %d", got.Rate)
	}
}

func TestCreate_References(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *model.Booking)
		code   string
	}{
		{name: "missing dj", mutate: func(b *model.Booking) { b.DJID = "" }, code: apperrors.CodeValidation},
		{name: "unknown dj", mutate: func(b *model.Booking) { b.DJID = "dj-404" }, code: apperrors.CodeNotFound},
		{name: "unknown venue", mutate: func(b *model.Booking) { b.VenueID = "venue-404" }, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			b := adminBooking()
			tt.mutate(b)
			assertCode(t, f.svc.Create(context.Background(), b), tt.code)
			if len(f.repo.bookings) != 0 {
				t.Errorf("expected nothing persisted")
			}
		})
	}
}

// ────────────────────────────────────────────────
// Transition
// ────────────────────────────────────────────────

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{from: "pending", to: "confirmed", ok: true},
		{from: "pending", to: "cancelled", ok: true},
		{from: "confirmed", to: "completed", ok: true},
		{from: "confirmed", to: "cancelled", ok: true},
		{from: "pending", to: "completed", ok: false},
		{from: "pending", to: "pending", ok: false},
		{from: "cancelled", to: "pending", ok: false},
		{from: "cancelled", to: "confirmed", ok: false},
		{from: "completed", to: "cancelled", ok: false},
		{from: "completed", to: "confirmed", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			f := newFixture("")
			b := adminBooking()
			if err := f.svc.Create(context.Background(), b); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.repo.bookings[b.ID].Status = tt.from

			updated, err := f.svc.Transition(context.Background(), b.ID, tt.to)
			if !tt.ok {
				assertCode(t, err, apperrors.CodeInvalidTransition)
				if got := f.repo.bookings[b.ID].Status; got != tt.from {
					t.Errorf("expected status to stay %q, got %q", tt.from, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("expected %q, got %q", tt.to, updated.Status)
			}
			if !updated.UpdatedAt.After(b.UpdatedAt) {
				t.Errorf("expected updated_at to move forward")
			}
		})
	}
}

func TestTransition_NormalizesTarget(t *testing.T) {
	f := newFixture(status.BookingPending)
	b := adminBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.svc.Transition(context.Background(), b.ID, " Confirmed ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != status.BookingConfirmed {
		t.Errorf("expected confirmed, got %q", updated.Status)
	}
}

func TestTransition_Errors(t *testing.T) {
	f := newFixture("")
	b := adminBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Transition(context.Background(), "bk-404", status.BookingCompleted)
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Transition(context.Background(), b.ID, "archived")
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Transition(context.Background(), "", status.BookingCompleted)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestTransition_ConcurrentChangeIsConflict(t *testing.T) {
	f := newFixture("")
	b := adminBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.repo.beforeStatusWrite = func(stored *model.Booking) {
		stored.Status = status.BookingCancelled
	}

	_, err := f.svc.Transition(context.Background(), b.ID, status.BookingCompleted)
	assertCode(t, err, apperrors.CodeConflict)
	if got := f.repo.bookings[b.ID].Status; got != status.BookingCancelled {
		t.Errorf("expected concurrent status to be kept, got %q", got)
	}
}

// ────────────────────────────────────────────────
// Update / list / delete
// ────────────────────────────────────────────────

func TestUpdate_NeverChangesStatus(t *testing.T) {
	f := newFixture("")
	b := adminBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	date := "2025-05-02"
	venueID := "venue-1"
	updated, err := f.svc.Update(context.Background(), b.ID, &model.BookingUpdate{EventDate: &date, VenueID: &venueID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.EventDate != date || updated.VenueName != "Club A" {
		t.Errorf("expected merged fields, got %+v", updated)
	}
	if updated.Status != status.BookingConfirmed {
		t.Errorf("expected status untouched, got %q", updated.Status)
	}

	bad := "2025-13-40"
	_, err = f.svc.Update(context.Background(), b.ID, &model.BookingUpdate{EventDate: &bad})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestGetAll_InvalidStatusFilter(t *testing.T) {
	f := newFixture("")

	_, _, err := f.svc.GetAll(context.Background(), model.BookingFilter{Status: "archived"}, 10, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestGetByDJ(t *testing.T) {
	f := newFixture("")
	for _, djID := range []string{"dj-1", "dj-1", "dj-2"} {
		b := adminBooking()
		b.DJID = djID
		if err := f.svc.Create(context.Background(), b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	bookings, total, err := f.svc.GetByDJ(context.Background(), "dj-1", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(bookings) != 2 {
		t.Errorf("expected 2 bookings for dj-1, got total=%d len=%d", total, len(bookings))
	}

	_, _, err = f.svc.GetByDJ(context.Background(), "dj-404", 0, 0)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture("")
	b := adminBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCode(t, f.svc.Delete(context.Background(), b.ID), apperrors.CodeNotFound)
}
