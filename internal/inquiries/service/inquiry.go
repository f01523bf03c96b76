package service

import (
	"context"
	"errors"
	"sync"

	inquiryerrors "djagency/internal/inquiries/errors"
	"djagency/internal/inquiries/repository"
	"djagency/internal/inquiries/validator"
	"djagency/pkg/config"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/metrics"
	"djagency/pkg/model"
	"djagency/pkg/notification"
	"djagency/pkg/sanitizer"
	"djagency/pkg/status"
	"djagency/pkg/validation"
)

const submissionKind = "inquiry"

type InquiryService interface {
	Submit(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error)
	GetByID(ctx context.Context, id string) (*model.ContactInquiry, error)
	GetAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, int64, error)
	Transition(ctx context.Context, id, to string) (*model.ContactInquiry, error)
}

type inquiryService struct {
	repo      repository.InquiryRepository
	validator *validator.InquiryValidator
	notifier  *notification.Notifier
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewInquiryService(
	repo repository.InquiryRepository,
	validator *validator.InquiryValidator,
	notifier *notification.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
) InquiryService {
	return &inquiryService{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		metrics:   m,
		cfg:       cfg,
	}
}

// Submit stores a contact form. Every inquiry starts as new whatever its type.
func (s *inquiryService) Submit(ctx context.Context, sub *model.InquirySubmission) (*model.SubmissionReceipt, error) {
	inquiry := &model.ContactInquiry{
		Type:      model.NormalizeInquiryType(sub.Type),
		Name:      sanitizer.NormalizeName(sub.Name),
		Email:     sanitizer.NormalizeEmail(sub.Email),
		Phone:     sanitizer.NormalizeContactPhone(sub.Phone),
		Subject:   sanitizer.TrimAndNormalize(sub.Subject),
		Message:   sanitizer.NormalizeText(sub.Message),
		DJID:      sanitizer.TrimAndNormalize(sub.DJID),
		VenueName: sanitizer.NormalizeName(sub.VenueName),
		EventDate: sanitizer.TrimAndNormalize(sub.EventDate),
		Status:    status.Inquiry.Initial(),
	}

	if err := s.validator.Validate(inquiry); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		s.cfg.Log.Warn("Inquiry validation failed",
			"type", inquiry.Type,
			"error", err,
		)
		return nil, validation.ToAppError("Inquiry validation failed", err)
	}

	if err := s.repo.Create(ctx, inquiry); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeFailure)
		s.cfg.Log.Error("Failed to store inquiry",
			"type", inquiry.Type,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to submit inquiry", err)
	}
	s.metrics.Submission(submissionKind, metrics.OutcomeSuccess)

	notificationID := s.notifier.Notify(ctx, func(b *notification.Builder) (notification.Payload, error) {
		return b.ForInquiry(*inquiry)
	})

	s.cfg.Log.Info("Inquiry submitted",
		"id", inquiry.ID,
		"type", inquiry.Type,
		"notification_id", notificationID,
	)

	return &model.SubmissionReceipt{
		Success:        true,
		Message:        "Inquiry submitted successfully",
		InquiryID:      inquiry.ID,
		NotificationID: notificationID,
	}, nil
}

func (s *inquiryService) GetByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Inquiry ID cannot be empty")
	}

	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve inquiry")
	}
	return inquiry, nil
}

func (s *inquiryService) GetAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" {
		filter.Status = status.Normalize(filter.Status)
		if !status.Inquiry.IsValid(filter.Status) {
			return nil, 0, apperrors.InvalidInput("invalid status filter: " + filter.Status)
		}
	}
	if filter.Type != "" {
		inquiryType, ok := model.LookupInquiryType(filter.Type)
		if !ok {
			return nil, 0, apperrors.InvalidInput("invalid type filter: " + filter.Type)
		}
		filter.Type = inquiryType
	}

	var count int64
	var inquiries []*model.ContactInquiry
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
			s.cfg.Log.Error("Failed to count inquiries", "error", err)
			errCount = apperrors.Internal("Failed to count inquiries", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		inquiries, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all inquiries",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve inquiries", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return inquiries, count, nil
}

// Transition moves an inquiry forward. Resolved inquiries are never reopened.
func (s *inquiryService) Transition(ctx context.Context, id, to string) (*model.ContactInquiry, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Inquiry ID cannot be empty")
	}
	to = status.Normalize(to)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve inquiry")
	}

	if err := status.Inquiry.Transition(existing.Status, to); err != nil {
		s.cfg.Log.Warn("Rejected inquiry status change",
			"id", id,
			"from", existing.Status,
			"to", to,
			"error", err,
		)
		return nil, status.ToAppError(err)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, existing.Status, to)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update inquiry status")
	}

	s.metrics.Transition(string(status.KindInquiry), existing.Status, to)
	s.cfg.Log.Info("Inquiry status changed",
		"id", id,
		"from", existing.Status,
		"to", to,
	)

	return updated, nil
}

func (s *inquiryService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, inquiryerrors.ErrNotFound):
		return apperrors.NotFoundWithID("ContactInquiry", id)
	case errors.Is(err, inquiryerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid inquiry ID format")
	case errors.Is(err, inquiryerrors.ErrStatusConflict):
		return apperrors.Conflict("Inquiry status was changed by another request; reload and retry")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}
