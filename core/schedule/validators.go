package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/escola/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "unknown weekday"
)

// InitValidators registers the schedule validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)
}

// weekdayValidation only allows names ParseDay knows.
func weekdayValidation(fl validator.FieldLevel) bool {
	_, err := ParseDay(fl.Field().String())
	return err == nil
}

// Validate checks the request's grid fields. Grid.Cells does the cross-field checks.
func (req *GenerateRequest) Validate(validate *validator.Validate) error {
	for i := range req.Days {
		req.Days[i] = core.CleanString(req.Days[i])
	}
	for i := range req.TimeSlots {
		req.TimeSlots[i].Start = core.CleanString(req.TimeSlots[i].Start)
		req.TimeSlots[i].End = core.CleanString(req.TimeSlots[i].End)
	}
	return validate.Struct(req)
}
