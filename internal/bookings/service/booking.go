package service

import (
	"context"
	"errors"
	"sync"

	bookingerrors "djagency/internal/bookings/errors"
	"djagency/internal/bookings/repository"
	"djagency/internal/bookings/validator"
	"djagency/pkg/config"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/metrics"
	"djagency/pkg/model"
	"djagency/pkg/notification"
	"djagency/pkg/sanitizer"
	"djagency/pkg/status"
	"djagency/pkg/validation"
)

const submissionKind = "booking_request"

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	Submit(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	GetByDJ(ctx context.Context, djID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Transition(ctx context.Context, id, to string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type DJLookup interface {
	GetByID(ctx context.Context, id string) (*model.DJ, error)
}

type VenueLookup interface {
	GetByID(ctx context.Context, id string) (*model.Venue, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	djs       DJLookup
	venues    VenueLookup
	notifier  *notification.Notifier
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	djs DJLookup,
	venues VenueLookup,
	notifier *notification.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		djs:       djs,
		venues:    venues,
		notifier:  notifier,
		metrics:   m,
		cfg:       cfg,
	}
}

// Create stores a booking entered by an admin. Its initial status comes from
// configuration (confirmed unless ADMIN_BOOKING_STATUS says otherwise).
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = ""
	booking.Source = model.BookingSourceAdmin
	booking.Status = s.adminInitialStatus()
	s.sanitize(booking)

	if booking.DJID == "" {
		return apperrors.Validation("Booking validation failed", validation.Field("dj_id", "dj_id is required").Details())
	}
	dj, err := s.lookupDJ(ctx, booking.DJID)
	if err != nil {
		return err
	}
	if booking.VenueID != "" {
		venue, err := s.lookupVenue(ctx, booking.VenueID)
		if err != nil {
			return err
		}
		booking.VenueName = venue.Name
	}
	if booking.Rate == 0 {
		booking.Rate = dj.BookingRate
	}

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"dj_id", booking.DJID,
			"event_date", booking.EventDate,
			"error", err,
		)
		return validation.ToAppError("Booking validation failed", err)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"dj_id", booking.DJID,
			"error", err,
		)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"dj_id", booking.DJID,
		"event_date", booking.EventDate,
		"status", booking.Status,
		"source", booking.Source,
	)

	return nil
}

// Submit handles the public booking form. Public requests always start as
// pending and the rate falls back to the DJ's booking rate.
func (s *bookingService) Submit(ctx context.Context, req *model.BookingRequest) (*model.SubmissionReceipt, error) {
	s.sanitizeRequest(req)

	if err := s.validator.ValidateRequest(req); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		s.cfg.Log.Warn("Booking request validation failed",
			"dj_id", req.DJID,
			"error", err,
		)
		return nil, validation.ToAppError("Booking request validation failed", err)
	}

	dj, err := s.lookupDJ(ctx, req.DJID)
	if err != nil {
		s.metrics.Submission(submissionKind, outcomeFor(err))
		return nil, err
	}

	booking := &model.Booking{
		DJID:          dj.ID,
		VenueName:     req.VenueName,
		EventDate:     req.EventDate,
		EventTime:     req.EventTime,
		DurationHours: req.Duration,
		Rate:          dj.BookingRate,
		Status:        status.Booking.Initial(),
		Source:        model.BookingSourcePublic,
		Notes:         req.Notes,
		ContactName:   req.Name,
		ContactEmail:  req.Email,
		ContactPhone:  req.Phone,
	}
	if req.Rate != nil && *req.Rate > 0 {
		booking.Rate = *req.Rate
	}

	if err := s.validator.Validate(booking); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		s.cfg.Log.Warn("Booking request validation failed", "dj_id", req.DJID, "error", err)
		return nil, validation.ToAppError("Booking request validation failed", err)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeFailure)
		s.cfg.Log.Error("Failed to store booking request",
			"dj_id", booking.DJID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to submit booking request", err)
	}
	s.metrics.Submission(submissionKind, metrics.OutcomeSuccess)

	notificationID := s.notifier.Notify(ctx, func(b *notification.Builder) (notification.Payload, error) {
		return b.ForBookingRequest(*booking, dj.DisplayName())
	})

	s.cfg.Log.Info("Booking request submitted",
		"id", booking.ID,
		"dj_id", booking.DJID,
		"event_date", booking.EventDate,
		"notification_id", notificationID,
	)

	return &model.SubmissionReceipt{
		Success:        true,
		Message:        "Booking request submitted successfully",
		BookingID:      booking.ID,
		NotificationID: notificationID,
	}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" {
		filter.Status = status.Normalize(filter.Status)
		if !status.Booking.IsValid(filter.Status) {
			return nil, 0, apperrors.InvalidInput("invalid status filter: " + filter.Status)
		}
	}

	var count int64
	var bookings []*model.Booking
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
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		bookings, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// GetByDJ is the DJ's schedule: every booking that still references the DJ.
func (s *bookingService) GetByDJ(ctx context.Context, djID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if djID == "" {
		return nil, 0, apperrors.InvalidInput("DJ ID cannot be empty")
	}
	if _, err := s.djs.GetByID(ctx, djID); err != nil {
		return nil, 0, err
	}

	return s.GetAll(ctx, model.BookingFilter{DJID: djID}, limit, offset)
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to check booking existence")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError("Booking validation failed", err)
	}

	merged := mergeBookingUpdates(existing, updates)
	if updates.VenueID != nil && *updates.VenueID != "" {
		venue, err := s.lookupVenue(ctx, *updates.VenueID)
		if err != nil {
			return nil, err
		}
		merged.VenueName = venue.Name
	}

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"id", id,
			"error", err,
		)
		return nil, validation.ToAppError("Booking validation failed", err)
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update booking")
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"event_date", merged.EventDate,
	)

	return merged, nil
}

// Transition moves the booking to status to if the lifecycle allows it. The
// write only succeeds if nobody changed the status since it was read.
func (s *bookingService) Transition(ctx context.Context, id, to string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	to = status.Normalize(to)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}

	if err := status.Booking.Transition(existing.Status, to); err != nil {
		s.cfg.Log.Warn("Rejected booking status change",
			"id", id,
			"from", existing.Status,
			"to", to,
			"error", err,
		)
		return nil, status.ToAppError(err)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, existing.Status, to)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update booking status")
	}

	s.metrics.Transition(string(status.KindBooking), existing.Status, to)
	s.cfg.Log.Info("Booking status changed",
		"id", id,
		"from", existing.Status,
		"to", to,
	)

	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)

	return nil
}

func (s *bookingService) adminInitialStatus() string {
	if s.cfg.AdminBookingStatus == status.BookingPending {
		return status.BookingPending
	}
	return status.BookingConfirmed
}

// lookupDJ resolves a referenced DJ. A malformed id cannot reference anything,
// so it is reported as not found rather than as bad input.
func (s *bookingService) lookupDJ(ctx context.Context, id string) (*model.DJ, error) {
	dj, err := s.djs.GetByID(ctx, id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			return nil, apperrors.NotFoundWithID("DJ", id)
		}
		return nil, err
	}
	return dj, nil
}

func (s *bookingService) lookupVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.venues.GetByID(ctx, id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		return nil, err
	}
	return venue, nil
}

func (s *bookingService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingerrors.ErrStatusConflict):
		return apperrors.Conflict("Booking status was changed by another request; reload and retry")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func outcomeFor(err error) string {
	if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeValidation) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailure
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.DJID = sanitizer.TrimAndNormalize(b.DJID)
	b.VenueID = sanitizer.TrimAndNormalize(b.VenueID)
	b.VenueName = sanitizer.NormalizeName(b.VenueName)
	b.EventDate = sanitizer.TrimAndNormalize(b.EventDate)
	b.EventTime = sanitizer.TrimAndNormalize(b.EventTime)
	b.Notes = sanitizer.NormalizeText(b.Notes)
	b.ContactName = sanitizer.NormalizeName(b.ContactName)
	b.ContactEmail = sanitizer.NormalizeEmail(b.ContactEmail)
	b.ContactPhone = sanitizer.NormalizeContactPhone(b.ContactPhone)
}

func (s *bookingService) sanitizeRequest(req *model.BookingRequest) {
	req.DJID = sanitizer.TrimAndNormalize(req.DJID)
	req.VenueName = sanitizer.NormalizeName(req.VenueName)
	req.EventDate = sanitizer.TrimAndNormalize(req.EventDate)
	req.EventTime = sanitizer.TrimAndNormalize(req.EventTime)
	req.Notes = sanitizer.NormalizeText(req.Notes)
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.Phone = sanitizer.NormalizeContactPhone(req.Phone)
}

func (s *bookingService) sanitizeUpdate(updates *model.BookingUpdate) {
	normalize := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	normalize(updates.VenueID, sanitizer.TrimAndNormalize)
	normalize(updates.VenueName, sanitizer.NormalizeName)
	normalize(updates.EventDate, sanitizer.TrimAndNormalize)
	normalize(updates.EventTime, sanitizer.TrimAndNormalize)
	normalize(updates.Notes, sanitizer.NormalizeText)
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.VenueID != nil {
		merged.VenueID = *updates.VenueID
	}
	if updates.VenueName != nil {
		merged.VenueName = *updates.VenueName
	}
	if updates.EventDate != nil {
		merged.EventDate = *updates.EventDate
	}
	if updates.EventTime != nil {
		merged.EventTime = *updates.EventTime
	}
	if updates.DurationHours != nil {
		merged.DurationHours = *updates.DurationHours
	}
	if updates.Rate != nil {
		merged.Rate = *updates.Rate
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}

	merged.ID = existing.ID
	merged.Status = existing.Status
	merged.CreatedAt = existing.CreatedAt

	return &merged
}
