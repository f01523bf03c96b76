package validator

import (
	"djagency/pkg/model"
	"djagency/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type TradeRequestValidator struct {
	validate *validator.Validate
}

func NewTradeRequestValidator() *TradeRequestValidator {
	return &TradeRequestValidator{
		validate: validation.MustNew(),
	}
}

func (v *TradeRequestValidator) Validate(tr *model.TradeRequest) error {
	if err := validation.Struct(v.validate, tr); err != nil {
		return err
	}
	if tr.RequestingDJID != "" && tr.RequestingDJID == tr.TargetDJID {
		return validation.Field("target_dj_id", "a DJ cannot trade with themselves")
	}
	return nil
}

// ValidateSubmission checks the public form. A DJ trading with itself is
// rejected here, before either id is looked up.
func (v *TradeRequestValidator) ValidateSubmission(sub *model.TradeRequestSubmission) error {
	if err := validation.Struct(v.validate, sub); err != nil {
		return err
	}
	if sub.RequestingDJID == sub.TargetDJID {
		return validation.Field("targetDjId", "requesting and target DJ must be different")
	}
	return nil
}
