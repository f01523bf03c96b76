package service

import (
	"context"
	"errors"
	"sync"

	tradeerrors "djagency/internal/traderequests/errors"
	"djagency/internal/traderequests/repository"
	"djagency/internal/traderequests/validator"
	"djagency/pkg/config"
	apperrors "djagency/pkg/errors"
	"djagency/pkg/metrics"
	"djagency/pkg/model"
	"djagency/pkg/notification"
	"djagency/pkg/sanitizer"
	"djagency/pkg/status"
	"djagency/pkg/validation"
)

const submissionKind = "trade_request"

type TradeRequestService interface {
	Submit(ctx context.Context, sub *model.TradeRequestSubmission) (*model.SubmissionReceipt, error)
	GetByID(ctx context.Context, id string) (*model.TradeRequest, error)
	GetAll(ctx context.Context, filter model.TradeRequestFilter, limit int, offset int64) ([]*model.TradeRequest, int64, error)
	Transition(ctx context.Context, id, to string) (*model.TradeRequest, error)
	Delete(ctx context.Context, id string) error
}

type DJLookup interface {
	GetByID(ctx context.Context, id string) (*model.DJ, error)
}

type tradeRequestService struct {
	repo      repository.TradeRequestRepository
	validator *validator.TradeRequestValidator
	djs       DJLookup
	notifier  *notification.Notifier
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewTradeRequestService(
	repo repository.TradeRequestRepository,
	validator *validator.TradeRequestValidator,
	djs DJLookup,
	notifier *notification.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
) TradeRequestService {
	return &tradeRequestService{
		repo:      repo,
		validator: validator,
		djs:       djs,
		notifier:  notifier,
		metrics:   m,
		cfg:       cfg,
	}
}

// Submit stores a public trade request as pending once both DJs are known,
// then notifies the agency with both display names.
func (s *tradeRequestService) Submit(ctx context.Context, sub *model.TradeRequestSubmission) (*model.SubmissionReceipt, error) {
	s.sanitize(sub)

	if err := s.validator.ValidateSubmission(sub); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		s.cfg.Log.Warn("Trade request validation failed",
			"requesting_dj_id", sub.RequestingDJID,
			"target_dj_id", sub.TargetDJID,
			"error", err,
		)
		return nil, validation.ToAppError("Trade request validation failed", err)
	}

	requesting, err := s.lookupDJ(ctx, sub.RequestingDJID)
	if err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		return nil, err
	}
	target, err := s.lookupDJ(ctx, sub.TargetDJID)
	if err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		return nil, err
	}

	tr := &model.TradeRequest{
		RequestingDJID:  requesting.ID,
		TargetDJID:      target.ID,
		RequestingVenue: sub.RequestingVenue,
		TargetVenue:     sub.TargetVenue,
		RequestedDate:   sub.RequestedDate,
		TargetDate:      sub.TargetDate,
		Message:         sub.Message,
		Status:          status.TradeRequest.Initial(),
	}

	if err := s.validator.Validate(tr); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeInvalid)
		s.cfg.Log.Warn("Trade request validation failed", "error", err)
		return nil, validation.ToAppError("Trade request validation failed", err)
	}

	if err := s.repo.Create(ctx, tr); err != nil {
		s.metrics.Submission(submissionKind, metrics.OutcomeFailure)
		s.cfg.Log.Error("Failed to store trade request",
			"requesting_dj_id", tr.RequestingDJID,
			"target_dj_id", tr.TargetDJID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to submit trade request", err)
	}
	s.metrics.Submission(submissionKind, metrics.OutcomeSuccess)

	notificationID := s.notifier.Notify(ctx, func(b *notification.Builder) (notification.Payload, error) {
		return b.ForTradeRequest(*tr, requesting.DisplayName(), target.DisplayName())
	})

	s.cfg.Log.Info("Trade request submitted",
		"id", tr.ID,
		"requesting_dj", requesting.DisplayName(),
		"target_dj", target.DisplayName(),
		"notification_id", notificationID,
	)

	return &model.SubmissionReceipt{
		Success:        true,
		Message:        "Trade request submitted successfully",
		TradeRequestID: tr.ID,
		NotificationID: notificationID,
	}, nil
}

func (s *tradeRequestService) GetByID(ctx context.Context, id string) (*model.TradeRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Trade request ID cannot be empty")
	}

	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve trade request")
	}
	return tr, nil
}

func (s *tradeRequestService) GetAll(ctx context.Context, filter model.TradeRequestFilter, limit int, offset int64) ([]*model.TradeRequest, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" {
		filter.Status = status.Normalize(filter.Status)
		if !status.TradeRequest.IsValid(filter.Status) {
			return nil, 0, apperrors.InvalidInput("invalid status filter: " + filter.Status)
		}
	}
	filter.DJID = sanitizer.TrimAndNormalize(filter.DJID)

	var count int64
	var trades []*model.TradeRequest
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
			s.cfg.Log.Error("Failed to count trade requests", "error", err)
			errCount = apperrors.Internal("Failed to count trade requests", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		trades, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all trade requests",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve trade requests", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return trades, count, nil
}

// Transition approves or rejects a pending trade. Approved and rejected are
// final.
func (s *tradeRequestService) Transition(ctx context.Context, id, to string) (*model.TradeRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Trade request ID cannot be empty")
	}
	to = status.Normalize(to)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve trade request")
	}

	if err := status.TradeRequest.Transition(existing.Status, to); err != nil {
		s.cfg.Log.Warn("Rejected trade request status change",
			"id", id,
			"from", existing.Status,
			"to", to,
			"error", err,
		)
		return nil, status.ToAppError(err)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, existing.Status, to)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update trade request status")
	}

	s.metrics.Transition(string(status.KindTradeRequest), existing.Status, to)
	s.cfg.Log.Info("Trade request status changed",
		"id", id,
		"from", existing.Status,
		"to", to,
	)

	return updated, nil
}

func (s *tradeRequestService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Trade request ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete trade request")
	}

	s.cfg.Log.Info("Trade request deleted successfully", "id", id)
	return nil
}

func (s *tradeRequestService) lookupDJ(ctx context.Context, id string) (*model.DJ, error) {
	dj, err := s.djs.GetByID(ctx, id)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			return nil, apperrors.NotFoundWithID("DJ", id)
		}
		return nil, err
	}
	return dj, nil
}

func (s *tradeRequestService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, tradeerrors.ErrNotFound):
		return apperrors.NotFoundWithID("TradeRequest", id)
	case errors.Is(err, tradeerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid trade request ID format")
	case errors.Is(err, tradeerrors.ErrStatusConflict):
		return apperrors.Conflict("Trade request status was changed by another request; reload and retry")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func (s *tradeRequestService) sanitize(sub *model.TradeRequestSubmission) {
	sub.RequestingDJID = sanitizer.TrimAndNormalize(sub.RequestingDJID)
	sub.TargetDJID = sanitizer.TrimAndNormalize(sub.TargetDJID)
	sub.RequestingVenue = sanitizer.NormalizeName(sub.RequestingVenue)
	sub.TargetVenue = sanitizer.NormalizeName(sub.TargetVenue)
	sub.RequestedDate = sanitizer.TrimAndNormalize(sub.RequestedDate)
	sub.TargetDate = sanitizer.TrimAndNormalize(sub.TargetDate)
	sub.Message = sanitizer.NormalizeText(sub.Message)
}
