package validator

import (
	bookingerrors "clinicbook/internal/booking/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
	"clinicbook/pkg/validation"
)

type DraftValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewDraftValidator(log *logger.Logger) *DraftValidator {
	return &DraftValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

// Validate reports every missing or malformed field, then the time ordering.
func (v *DraftValidator) Validate(draft *model.BookingDraft) error {
	if err := v.validate.Struct(draft); err != nil {
		return err
	}

	start, _ := model.ParseTimestamp(draft.StartTime)
	end, _ := model.ParseTimestamp(draft.EndTime)
	if !end.After(start) {
		return validation.Single("EndTime", bookingerrors.ErrInvalidTimeRange.Error())
	}

	return nil
}
