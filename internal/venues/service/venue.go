package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	venueerrors "djagency/internal/venues/errors"
	"djagency/internal/venues/repository"
	"djagency/internal/venues/validator"
	"djagency/pkg/config"
	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/model"
	"djagency/pkg/sanitizer"
	"djagency/pkg/validation"
)

type VenueService interface {
	Create(ctx context.Context, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	GetAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error)
	Update(ctx context.Context, id string, updates *model.VenueUpdate) (*model.Venue, error)
	Delete(ctx context.Context, id string) error
}

// Dependent is a store whose records reference a venue by id.
type Dependent interface {
	DetachVenue(ctx context.Context, venueID string) (int64, error)
	DeleteByVenue(ctx context.Context, venueID string) (int64, error)
}

type venueService struct {
	repo       repository.VenueRepository
	validator  *validator.VenueValidator
	tx         db.TxManager
	dependents map[string]Dependent
	cfg        *config.Config
}

func NewVenueService(
	repo repository.VenueRepository,
	validator *validator.VenueValidator,
	tx db.TxManager,
	dependents map[string]Dependent,
	cfg *config.Config,
) VenueService {
	return &venueService{
		repo:       repo,
		validator:  validator,
		tx:         tx,
		dependents: dependents,
		cfg:        cfg,
	}
}

func (s *venueService) Create(ctx context.Context, venue *model.Venue) error {
	s.sanitize(venue)

	if err := s.validator.Validate(venue); err != nil {
		s.cfg.Log.Warn("Venue validation failed",
			"name", venue.Name,
			"city", venue.City,
			"error", err,
		)
		return validation.ToAppError("Venue validation failed", err)
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue",
			"name", venue.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully",
		"id", venue.ID,
		"name", venue.Name,
		"city", venue.City,
	)

	return nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id, "Failed to retrieve venue")
	}

	return venue, nil
}

func (s *venueService) GetAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter.City = sanitizer.NormalizeName(filter.City)

	var count int64
	var venues []*model.Venue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count venues", "error", err)
			errCount = apperrors.Internal("Failed to count venues", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		venues, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all venues",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve venues", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return venues, count, nil
}

func (s *venueService) Update(ctx context.Context, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id, "Failed to check venue existence")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Venue update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("Venue validation failed", err)
	}

	merged := mergeVenueUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Venue validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return nil, validation.ToAppError("Venue validation failed", err)
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapLookupError(err, id, "Failed to update venue")
	}

	s.cfg.Log.Info("Venue updated successfully",
		"id", id,
		"name", merged.Name,
	)

	return merged, nil
}

// Delete removes the venue and applies the delete policy to bookings that
// reference it, in one transaction.
func (s *venueService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}

	affected := make(map[string]int64, len(s.dependents))
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		for name, dep := range s.dependents {
			var n int64
			var err error
			if s.cfg.DeletePolicy == config.DeletePolicyCascade {
				n, err = dep.DeleteByVenue(ctx, id)
			} else {
				n, err = dep.DetachVenue(ctx, id)
			}
			if err != nil {
				return fmt.Errorf("failed to apply delete policy to %s: %w", name, err)
			}
			affected[name] = n
		}
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, id, "Failed to delete venue")
	}

	s.cfg.Log.Info("Venue deleted successfully",
		"id", id,
		"delete_policy", s.cfg.DeletePolicy,
		"dependents", affected,
	)

	return nil
}

func (s *venueService) mapLookupError(err error, id, message string) error {
	if errors.Is(err, venueerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Venue", id)
	}
	if errors.Is(err, venueerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid venue ID format")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func (s *venueService) sanitize(venue *model.Venue) {
	venue.Name = sanitizer.NormalizeName(venue.Name)
	venue.Location = sanitizer.NormalizeName(venue.Location)
	venue.City = sanitizer.NormalizeName(venue.City)
	venue.Type = sanitizer.NormalizeGenre(venue.Type)
	venue.Description = sanitizer.NormalizeText(venue.Description)
	venue.Amenities = sanitizer.NormalizeAmenities(venue.Amenities)
	venue.PreferredGenres = sanitizer.NormalizeGenres(venue.PreferredGenres)
	venue.ContactEmail = sanitizer.NormalizeEmail(venue.ContactEmail)
	venue.ContactPhone = sanitizer.NormalizeContactPhone(venue.ContactPhone)
	venue.Website = sanitizer.NormalizeURL(venue.Website)
}

func (s *venueService) sanitizeUpdate(updates *model.VenueUpdate) {
	normalize := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	normalize(updates.Name, sanitizer.NormalizeName)
	normalize(updates.Location, sanitizer.NormalizeName)
	normalize(updates.City, sanitizer.NormalizeName)
	normalize(updates.Type, sanitizer.NormalizeGenre)
	normalize(updates.Description, sanitizer.NormalizeText)
	normalize(updates.ContactEmail, sanitizer.NormalizeEmail)
	normalize(updates.ContactPhone, sanitizer.NormalizeContactPhone)
	normalize(updates.Website, sanitizer.NormalizeURL)

	if updates.Amenities != nil {
		updates.Amenities = sanitizer.NormalizeAmenities(updates.Amenities)
	}
	if updates.PreferredGenres != nil {
		updates.PreferredGenres = sanitizer.NormalizeGenres(updates.PreferredGenres)
	}
}

func mergeVenueUpdates(existing *model.Venue, updates *model.VenueUpdate) *model.Venue {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.City != nil {
		merged.City = *updates.City
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Type != nil {
		merged.Type = *updates.Type
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}
	if updates.PreferredGenres != nil {
		merged.PreferredGenres = updates.PreferredGenres
	}
	if updates.ContactEmail != nil {
		merged.ContactEmail = *updates.ContactEmail
	}
	if updates.ContactPhone != nil {
		merged.ContactPhone = *updates.ContactPhone
	}
	if updates.Website != nil {
		merged.Website = *updates.Website
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	return &merged
}
