package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	venueerrors "djagency/internal/venues/errors"
	"djagency/internal/venues/validator"
	"djagency/pkg/config"
	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/logger"
	"djagency/pkg/model"
)

type mockVenueRepository struct {
	venues map[string]*model.Venue
	filter model.VenueFilter
}

func newMockVenueRepository() *mockVenueRepository {
	return &mockVenueRepository{venues: make(map[string]*model.Venue)}
}

func (m *mockVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	venue.ID = fmt.Sprintf("venue-%d", len(m.venues)+1)
	stored := *venue
	m.venues[venue.ID] = &stored
	return nil
}

func (m *mockVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	venue, ok := m.venues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	out := *venue
	return &out, nil
}

func (m *mockVenueRepository) FindAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	m.filter = filter
	return []*model.Venue{}, nil
}

func (m *mockVenueRepository) Count(ctx context.Context, filter model.VenueFilter) (int64, error) {
	return int64(len(m.venues)), nil
}

func (m *mockVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	stored := *venue
	m.venues[id] = &stored
	return nil
}

func (m *mockVenueRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.venues[id]; !ok {
		return fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	delete(m.venues, id)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn db.TxFunc) error {
	return fn(ctx)
}

type recordingDependent struct {
	detached, deleted int
}

func (r *recordingDependent) DetachVenue(ctx context.Context, venueID string) (int64, error) {
	r.detached++
	return 1, nil
}

func (r *recordingDependent) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	r.deleted++
	return 1, nil
}

func newService(repo *mockVenueRepository, policy config.DeletePolicy, dep Dependent) VenueService {
	cfg := &config.Config{
		Log:          logger.New(logger.Config{Level: "error", Output: io.Discard}),
		ReadTimeout:  5 * time.Second,
		DeletePolicy: policy,
	}
	deps := map[string]Dependent{}
	if dep != nil {
		deps["bookings"] = dep
	}
	return NewVenueService(repo, validator.NewVenueValidator(), passthroughTx{}, deps, cfg)
}

func TestCreate_NormalizesWebsiteAndLists(t *testing.T) {
	repo := newMockVenueRepository()
	svc := newService(repo, config.DeletePolicyNullify, nil)

	venue := &model.Venue{
		Name:            " Club  A ",
		Location:        "12 Harbour St",
		City:            "Lisbon",
		Capacity:        500,
		Amenities:       []string{"Sound System", "sound system", " "},
		PreferredGenres: []string{"House"},
		Website:         "http://ClubA.example/",
	}
	if err := svc.Create(context.Background(), venue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if venue.Name != "Club A" {
		t.Errorf("expected normalized name, got %q", venue.Name)
	}
	if venue.Website != "https://cluba.example" {
		t.Errorf("expected https website, got %q", venue.Website)
	}
	if len(venue.Amenities) != 1 || venue.Amenities[0] != "sound system" {
		t.Errorf("expected deduplicated amenities, got %v", venue.Amenities)
	}

	got, err := svc.GetByID(context.Background(), venue.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != venue.Name || got.City != venue.City || got.Capacity != venue.Capacity {
		t.Errorf("read back %+v, want %+v", got, venue)
	}
}

func TestCreate_MissingCity(t *testing.T) {
	repo := newMockVenueRepository()
	svc := newService(repo, config.DeletePolicyNullify, nil)

	err := svc.Create(context.Background(), &model.Venue{Name: "Club A", Location: "Harbour"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.venues) != 0 {
		t.Errorf("expected nothing persisted")
	}
}

func TestGetAll_NormalizesCity(t *testing.T) {
	repo := newMockVenueRepository()
	svc := newService(repo, config.DeletePolicyNullify, nil)

	if _, _, err := svc.GetAll(context.Background(), model.VenueFilter{City: "  New   York "}, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.filter.City != "New York" {
		t.Errorf("expected normalized city, got %q", repo.filter.City)
	}
}

func TestUpdate_CapacityOnly(t *testing.T) {
	repo := newMockVenueRepository()
	svc := newService(repo, config.DeletePolicyNullify, nil)

	venue := &model.Venue{Name: "Club A", Location: "Harbour", City: "Lisbon", Capacity: 100}
	if err := svc.Create(context.Background(), venue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	capacity := 900
	updated, err := svc.Update(context.Background(), venue.ID, &model.VenueUpdate{Capacity: &capacity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Capacity != 900 || updated.Name != "Club A" {
		t.Errorf("unexpected merge result %+v", updated)
	}
}

func TestDelete_Policy(t *testing.T) {
	for _, policy := range []config.DeletePolicy{config.DeletePolicyNullify, config.DeletePolicyCascade} {
		t.Run(string(policy), func(t *testing.T) {
			repo := newMockVenueRepository()
			dep := &recordingDependent{}
			svc := newService(repo, policy, dep)

			venue := &model.Venue{Name: "Club A", Location: "Harbour", City: "Lisbon"}
			if err := svc.Create(context.Background(), venue); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := svc.Delete(context.Background(), venue.ID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if policy == config.DeletePolicyCascade && (dep.deleted != 1 || dep.detached != 0) {
				t.Errorf("cascade: deleted=%d detached=%d", dep.deleted, dep.detached)
			}
			if policy == config.DeletePolicyNullify && (dep.detached != 1 || dep.deleted != 0) {
				t.Errorf("nullify: deleted=%d detached=%d", dep.deleted, dep.detached)
			}
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newService(newMockVenueRepository(), config.DeletePolicyNullify, &recordingDependent{})

	if err := svc.Delete(context.Background(), "venue-9"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
