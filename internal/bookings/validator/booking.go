package validator

import (
	"djagency/pkg/logger"
	"djagency/pkg/model"
	"djagency/pkg/status"
	"djagency/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := validation.Struct(v.validate, booking); err != nil {
		return err
	}

	return v.validateBusinessRules(booking)
}

// ValidateRequest checks a public booking form before any lookup happens.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateUpdate(updates *model.BookingUpdate) error {
	return validation.Struct(v.validate, updates)
}

func (v *BookingValidator) validateBusinessRules(booking *model.Booking) error {
	var errs validation.ValidationErrors

	// New bookings start in pending or confirmed; the other states are only
	// reachable through a transition.
	if booking.ID == "" && booking.Status != status.BookingPending && booking.Status != status.BookingConfirmed {
		errs = append(errs, validation.ValidationError{
			Field:   "status",
			Message: "a new booking must start as pending or confirmed",
		})
	}
	if booking.ID == "" && booking.Source == model.BookingSourcePublic && booking.Status != status.BookingPending {
		errs = append(errs, validation.ValidationError{
			Field:   "status",
			Message: "public booking requests always start as pending",
		})
	}

	if len(errs) > 0 {
		v.logger.Debug("Booking business rules failed", "errors", errs.Error())
		return errs
	}
	return nil
}
