package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	djerrors "djagency/internal/djs/errors"
	"djagency/internal/djs/validator"
	"djagency/pkg/config"
	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory repository for testing
// ────────────────────────────────────────────────

type memoryDJRepository struct {
	mu     sync.Mutex
	nextID int
	djs    map[string]*model.DJ

	countFunc   func(ctx context.Context, filter model.DJFilter) (int64, error)
	findAllFunc func(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error)
	deleteFunc  func(ctx context.Context, id string) error
}

func newMemoryDJRepository() *memoryDJRepository {
	return &memoryDJRepository{djs: make(map[string]*model.DJ)}
}

func (m *memoryDJRepository) Create(ctx context.Context, dj *model.DJ) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.djs {
		if existing.Slug == dj.Slug {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
	}
	m.nextID++
	dj.ID = "dj-" + strconv.Itoa(m.nextID)
	dj.CreatedAt = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	dj.UpdatedAt = dj.CreatedAt
	stored := *dj
	m.djs[dj.ID] = &stored
	return nil
}

func (m *memoryDJRepository) FindByID(ctx context.Context, id string) (*model.DJ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "malformed" {
		return nil, fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}
	dj, ok := m.djs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	out := *dj
	return &out, nil
}

func (m *memoryDJRepository) FindBySlug(ctx context.Context, slug string) (*model.DJ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dj := range m.djs {
		if dj.Slug == slug {
			out := *dj
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", djerrors.ErrNotFound, slug)
}

func (m *memoryDJRepository) FindAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.DJ, 0, len(m.djs))
	for _, dj := range m.djs {
		out = append(out, dj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryDJRepository) Count(ctx context.Context, filter model.DJFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.djs)), nil
}

func (m *memoryDJRepository) Update(ctx context.Context, id string, dj *model.DJ) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.djs[id]; !ok {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	for otherID, existing := range m.djs {
		if otherID != id && existing.Slug == dj.Slug {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
	}
	stored := *dj
	m.djs[id] = &stored
	return nil
}

func (m *memoryDJRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.djs[id]; !ok {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	delete(m.djs, id)
	return nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) WithinTransaction(ctx context.Context, fn db.TxFunc) error {
	f.calls++
	return fn(ctx)
}

type fakeDependent struct {
	detached []string
	deleted  []string
	err      error
}

func (f *fakeDependent) DetachDJ(ctx context.Context, djID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.detached = append(f.detached, djID)
	return 2, nil
}

func (f *fakeDependent) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, djID)
	return 2, nil
}

func testConfig(policy config.DeletePolicy) *config.Config {
	return &config.Config{
		Log:          logger.New(logger.Config{Level: "error", Output: io.Discard}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		DeletePolicy: policy,
	}
}

func newTestService(repo *memoryDJRepository, policy config.DeletePolicy, deps map[string]Dependent) (DJService, *fakeTxManager) {
	tx := &fakeTxManager{}
	return NewDJService(repo, validator.NewDJValidator(), tx, deps, testConfig(policy)), tx
}

func newDJ() *model.DJ {
	return &model.DJ{
		Name:        "  Ana   Ruiz ",
		StageName:   "DJ Nova",
		Genres:      []string{"House", "techno", "house"},
		BookingRate: 1500,
		Location:    "Berlin",
		Residencies: []string{"Club A", "Club B"},
		IsActive:    true,
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
// Create / read back
// ────────────────────────────────────────────────

func TestCreate_SanitizesAndDerivesSlug(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	dj := newDJ()
	if err := svc.Create(context.Background(), dj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dj.Name != "Ana Ruiz" {
		t.Errorf("expected normalized name, got %q", dj.Name)
	}
	if dj.Slug != "dj-nova" {
		t.Errorf("expected slug derived from stage name, got %q", dj.Slug)
	}
	if len(dj.Genres) != 2 || dj.Genres[0] != "house" || dj.Genres[1] != "techno" {
		t.Errorf("expected deduplicated lowercase genres, got %v", dj.Genres)
	}
	if dj.Availability != model.AvailabilityAvailable {
		t.Errorf("expected default availability, got %q", dj.Availability)
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	dj := newDJ()
	if err := svc.Create(context.Background(), dj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetByID(context.Background(), dj.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Name != dj.Name || got.StageName != dj.StageName || got.Slug != dj.Slug ||
		got.BookingRate != dj.BookingRate || got.Location != dj.Location || got.IsActive != dj.IsActive {
		t.Errorf("read back %+v, want %+v", got, dj)
	}
	if len(got.Residencies) != 2 || got.Residencies[0] != "Club A" || got.Residencies[1] != "Club B" {
		t.Errorf("expected residencies order to be kept, got %v", got.Residencies)
	}

	bySlug, err := svc.GetBySlug(context.Background(), " DJ-NOVA ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bySlug.ID != dj.ID {
		t.Errorf("expected slug lookup to return %s, got %s", dj.ID, bySlug.ID)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	dj := newDJ()
	dj.Genres = nil

	assertCode(t, svc.Create(context.Background(), dj), apperrors.CodeValidation)
	if len(repo.djs) != 0 {
		t.Errorf("expected nothing persisted, got %d records", len(repo.djs))
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	if err := svc.Create(context.Background(), newDJ()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCode(t, svc.Create(context.Background(), newDJ()), apperrors.CodeConflict)
}

func TestGetByID_Errors(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	tests := []struct {
		id   string
		code string
	}{
		{id: "", code: apperrors.CodeInvalidInput},
		{id: "malformed", code: apperrors.CodeInvalidInput},
		{id: "dj-404", code: apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := svc.GetByID(context.Background(), tt.id)
			assertCode(t, err, tt.code)
		})
	}
}

// ────────────────────────────────────────────────
// GetAll
// ────────────────────────────────────────────────

func TestGetAll_NormalizesPaginationAndFilter(t *testing.T) {
	repo := newMemoryDJRepository()
	var gotLimit int
	var gotOffset int64
	var gotGenre string
	repo.findAllFunc = func(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error) {
		gotLimit, gotOffset, gotGenre = limit, offset, filter.Genre
		return []*model.DJ{}, nil
	}
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	if _, _, err := svc.GetAll(context.Background(), model.DJFilter{Genre: " House "}, 0, -3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 10 {
		t.Errorf("expected default limit 10, got %d", gotLimit)
	}
	if gotOffset != 0 {
		t.Errorf("expected offset 0, got %d", gotOffset)
	}
	if gotGenre != "house" {
		t.Errorf("expected normalized genre, got %q", gotGenre)
	}
}

func TestGetAll_CountFailure(t *testing.T) {
	repo := newMemoryDJRepository()
	repo.countFunc = func(ctx context.Context, filter model.DJFilter) (int64, error) {
		return 0, errors.New("connection reset")
	}
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	_, _, err := svc.GetAll(context.Background(), model.DJFilter{}, 10, 0)
	assertCode(t, err, apperrors.CodeInternal)
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func TestUpdate_MergesPartialFields(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	dj := newDJ()
	if err := svc.Create(context.Background(), dj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rate := int64(2000)
	location := "  Lisbon "
	updated, err := svc.Update(context.Background(), dj.ID, &model.DJUpdate{
		BookingRate: &rate,
		Location:    &location,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.BookingRate != 2000 || updated.Location != "Lisbon" {
		t.Errorf("expected merged fields, got rate=%d location=%q", updated.BookingRate, updated.Location)
	}
	if updated.Name != dj.Name || updated.Slug != dj.Slug {
		t.Errorf("expected untouched fields to be kept, got %+v", updated)
	}
	if !updated.CreatedAt.Equal(dj.CreatedAt) {
		t.Errorf("expected created_at to be kept")
	}
}

func TestUpdate_EmptyGenresRejected(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	dj := newDJ()
	if err := svc.Create(context.Background(), dj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Update(context.Background(), dj.ID, &model.DJUpdate{Genres: []string{}})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, nil)

	name := "Nova"
	_, err := svc.Update(context.Background(), "dj-9", &model.DJUpdate{Name: &name})
	assertCode(t, err, apperrors.CodeNotFound)
}

// ────────────────────────────────────────────────
// Delete policy
// ────────────────────────────────────────────────

func TestDelete_AppliesPolicyToDependents(t *testing.T) {
	tests := []struct {
		policy       config.DeletePolicy
		wantDetached int
		wantDeleted  int
	}{
		{policy: config.DeletePolicyNullify, wantDetached: 1},
		{policy: config.DeletePolicyCascade, wantDeleted: 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			repo := newMemoryDJRepository()
			bookings := &fakeDependent{}
			trades := &fakeDependent{}
			svc, tx := newTestService(repo, tt.policy, map[string]Dependent{
				"bookings":       bookings,
				"trade_requests": trades,
			})

			dj := newDJ()
			if err := svc.Create(context.Background(), dj); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := svc.Delete(context.Background(), dj.ID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tx.calls != 1 {
				t.Errorf("expected one transaction, got %d", tx.calls)
			}
			for name, dep := range map[string]*fakeDependent{"bookings": bookings, "trade_requests": trades} {
				if len(dep.detached) != tt.wantDetached || len(dep.deleted) != tt.wantDeleted {
					t.Errorf("%s: detached=%v deleted=%v", name, dep.detached, dep.deleted)
				}
			}
			if _, err := svc.GetByID(context.Background(), dj.ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
				t.Errorf("expected DJ to be gone, got %v", err)
			}
		})
	}
}

func TestDelete_DependentFailureIsInternal(t *testing.T) {
	repo := newMemoryDJRepository()
	svc, _ := newTestService(repo, config.DeletePolicyNullify, map[string]Dependent{
		"bookings": &fakeDependent{err: errors.New("write conflict")},
	})

	dj := newDJ()
	if err := svc.Create(context.Background(), dj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertCode(t, svc.Delete(context.Background(), dj.ID), apperrors.CodeInternal)
}

func TestDelete_NotFoundSkipsDependents(t *testing.T) {
	repo := newMemoryDJRepository()
	bookings := &fakeDependent{}
	svc, _ := newTestService(repo, config.DeletePolicyCascade, map[string]Dependent{"bookings": bookings})

	assertCode(t, svc.Delete(context.Background(), "dj-404"), apperrors.CodeNotFound)
	if len(bookings.deleted) != 0 {
		t.Errorf("expected dependents untouched, got %v", bookings.deleted)
	}
}
