package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	djerrors "djagency/internal/djs/errors"
	"djagency/internal/djs/repository"
	"djagency/internal/djs/validator"
	"djagency/pkg/config"
	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/model"
	"djagency/pkg/sanitizer"
	"djagency/pkg/validation"
)

type DJService interface {
	Create(ctx context.Context, dj *model.DJ) error
	GetByID(ctx context.Context, id string) (*model.DJ, error)
	GetBySlug(ctx context.Context, slug string) (*model.DJ, error)
	GetAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, int64, error)
	Update(ctx context.Context, id string, updates *model.DJUpdate) (*model.DJ, error)
	Delete(ctx context.Context, id string) error
}

// Dependent is a store whose records reference a DJ by id. Deleting a DJ
// either detaches or deletes them, depending on the delete policy.
type Dependent interface {
	DetachDJ(ctx context.Context, djID string) (int64, error)
	DeleteByDJ(ctx context.Context, djID string) (int64, error)
}

type djService struct {
	repo       repository.DJRepository
	validator  *validator.DJValidator
	tx         db.TxManager
	dependents map[string]Dependent
	cfg        *config.Config
}

func NewDJService(
	repo repository.DJRepository,
	validator *validator.DJValidator,
	tx db.TxManager,
	dependents map[string]Dependent,
	cfg *config.Config,
) DJService {
	return &djService{
		repo:       repo,
		validator:  validator,
		tx:         tx,
		dependents: dependents,
		cfg:        cfg,
	}
}

func (s *djService) Create(ctx context.Context, dj *model.DJ) error {
	s.sanitize(dj)
	s.applyDefaults(dj)

	if err := s.validator.Validate(dj); err != nil {
		s.cfg.Log.Warn("DJ validation failed",
			"name", dj.Name,
			"slug", dj.Slug,
			"error", err,
		)
		return validation.ToAppError("DJ validation failed", err)
	}

	if err := s.repo.Create(ctx, dj); err != nil {
		if errors.Is(err, djerrors.ErrDuplicateSlug) {
			return apperrors.Conflict(fmt.Sprintf("A DJ with slug %q already exists", dj.Slug))
		}
		s.cfg.Log.Error("Failed to create DJ",
			"name", dj.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create DJ", err)
	}

	s.cfg.Log.Info("DJ created successfully",
		"id", dj.ID,
		"name", dj.Name,
		"slug", dj.Slug,
	)

	return nil
}

func (s *djService) GetByID(ctx context.Context, id string) (*model.DJ, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("DJ ID cannot be empty")
	}

	dj, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id, "Failed to retrieve DJ")
	}

	return dj, nil
}

func (s *djService) GetBySlug(ctx context.Context, slug string) (*model.DJ, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperrors.InvalidInput("DJ slug cannot be empty")
	}

	dj, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, djerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("DJ", slug)
		}
		s.cfg.Log.Error("Failed to get DJ by slug",
			"slug", slug,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve DJ", err)
	}

	return dj, nil
}

func (s *djService) GetAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter.Genre = sanitizer.NormalizeGenre(filter.Genre)

	var count int64
	var djs []*model.DJ
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
			s.cfg.Log.Error("Failed to count DJs", "error", err)
			errCount = apperrors.Internal("Failed to count DJs", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		djs, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all DJs",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve DJs", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return djs, count, nil
}

func (s *djService) Update(ctx context.Context, id string, updates *model.DJUpdate) (*model.DJ, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("DJ ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id, "Failed to check DJ existence")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("DJ update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("DJ validation failed", err)
	}

	merged := s.mergeDJUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("DJ validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return nil, validation.ToAppError("DJ validation failed", err)
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, djerrors.ErrDuplicateSlug) {
			return nil, apperrors.Conflict(fmt.Sprintf("A DJ with slug %q already exists", merged.Slug))
		}
		if errors.Is(err, djerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("DJ", id)
		}
		s.cfg.Log.Error("Failed to update DJ",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update DJ", err)
	}

	s.cfg.Log.Info("DJ updated successfully",
		"id", id,
		"name", merged.Name,
	)

	return merged, nil
}

// Delete removes the DJ and applies the delete policy to bookings and trade
// requests that reference it, all in one transaction.
func (s *djService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("DJ ID cannot be empty")
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
				n, err = dep.DeleteByDJ(ctx, id)
			} else {
				n, err = dep.DetachDJ(ctx, id)
			}
			if err != nil {
				return fmt.Errorf("failed to apply delete policy to %s: %w", name, err)
			}
			affected[name] = n
		}
		return nil
	})
	if err != nil {
		return s.mapLookupError(err, id, "Failed to delete DJ")
	}

	s.cfg.Log.Info("DJ deleted successfully",
		"id", id,
		"delete_policy", s.cfg.DeletePolicy,
		"dependents", affected,
	)

	return nil
}

func (s *djService) mapLookupError(err error, id, message string) error {
	if errors.Is(err, djerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("DJ", id)
	}
	if errors.Is(err, djerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid DJ ID format")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func (s *djService) sanitize(dj *model.DJ) {
	dj.Name = sanitizer.NormalizeName(dj.Name)
	dj.StageName = sanitizer.NormalizeName(dj.StageName)
	dj.Slug = sanitizer.Slugify(dj.Slug)
	dj.Genres = sanitizer.NormalizeGenres(dj.Genres)
	dj.Location = sanitizer.NormalizeName(dj.Location)
	dj.Residencies = sanitizer.NormalizeResidencies(dj.Residencies)
	dj.Bio = sanitizer.NormalizeText(dj.Bio)
	dj.Experience = sanitizer.NormalizeName(dj.Experience)
	dj.Equipment = sanitizer.NormalizeEquipment(dj.Equipment)
	dj.SocialMedia = sanitizeSocialMedia(dj.SocialMedia)
	dj.Email = sanitizer.NormalizeEmail(dj.Email)
	dj.Phone = sanitizer.NormalizeContactPhone(dj.Phone)
	dj.Availability = strings.ToLower(strings.TrimSpace(dj.Availability))
}

func (s *djService) sanitizeUpdate(updates *model.DJUpdate) {
	normalize := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	normalize(updates.Name, sanitizer.NormalizeName)
	normalize(updates.StageName, sanitizer.NormalizeName)
	normalize(updates.Slug, sanitizer.Slugify)
	normalize(updates.Location, sanitizer.NormalizeName)
	normalize(updates.Bio, sanitizer.NormalizeText)
	normalize(updates.Experience, sanitizer.NormalizeName)
	normalize(updates.Email, sanitizer.NormalizeEmail)
	normalize(updates.Phone, sanitizer.NormalizeContactPhone)
	normalize(updates.Availability, func(v string) string { return strings.ToLower(strings.TrimSpace(v)) })

	if updates.Genres != nil {
		if len(updates.Genres) == 0 {
			s.cfg.Log.Warn("Attempted to update genres with empty array")
		}
		updates.Genres = sanitizer.NormalizeGenres(updates.Genres)
	}
	if updates.Residencies != nil {
		updates.Residencies = sanitizer.NormalizeResidencies(updates.Residencies)
	}
	if updates.Equipment != nil {
		updates.Equipment = sanitizer.NormalizeEquipment(updates.Equipment)
	}
	if updates.SocialMedia != nil {
		sm := sanitizeSocialMedia(*updates.SocialMedia)
		updates.SocialMedia = &sm
	}
}

func sanitizeSocialMedia(sm model.SocialMedia) model.SocialMedia {
	return model.SocialMedia{
		Instagram:  sanitizer.NormalizeHandle(sm.Instagram),
		SoundCloud: sanitizer.NormalizeHandle(sm.SoundCloud),
		Spotify:    sanitizer.NormalizeHandle(sm.Spotify),
	}
}

// applyDefaults derives the slug from the display name when none was given.
func (s *djService) applyDefaults(dj *model.DJ) {
	if dj.Slug == "" {
		dj.Slug = sanitizer.Slugify(dj.DisplayName())
	}
	if dj.Availability == "" {
		dj.Availability = model.AvailabilityAvailable
	}
	if dj.Genres == nil {
		dj.Genres = []string{}
	}
	if dj.Residencies == nil {
		dj.Residencies = []string{}
	}
}

func (s *djService) mergeDJUpdates(existing *model.DJ, updates *model.DJUpdate) *model.DJ {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.StageName != nil {
		merged.StageName = *updates.StageName
	}
	if updates.Slug != nil {
		merged.Slug = *updates.Slug
	}
	if updates.Genres != nil {
		merged.Genres = updates.Genres
	}
	if updates.BookingRate != nil {
		merged.BookingRate = *updates.BookingRate
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.Residencies != nil {
		merged.Residencies = updates.Residencies
	}
	if updates.Bio != nil {
		merged.Bio = *updates.Bio
	}
	if updates.Experience != nil {
		merged.Experience = *updates.Experience
	}
	if updates.Equipment != nil {
		merged.Equipment = updates.Equipment
	}
	if updates.SocialMedia != nil {
		merged.SocialMedia = *updates.SocialMedia
	}
	if updates.Email != nil {
		merged.Email = *updates.Email
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.Availability != nil {
		merged.Availability = *updates.Availability
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	return &merged
}
