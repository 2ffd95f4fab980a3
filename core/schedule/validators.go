package schedule

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecole/core"
)

var (
	weekdayTag   = "weekday"
	weekdayText  = "{0} must be one of Lundi, Mardi, Mercredi, Jeudi, Vendredi, Samedi"
	slotTimeTag  = "slottime"
	slotTimeText = "{0} must be a time between 08:00 and 17:00 on the hour"
)

func init() {
	_ = core.Validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(weekdayTag, weekdayText)
	_ = core.Validate.RegisterValidation(slotTimeTag, slotTimeValidation)
	core.RegisterCustomTranslation(slotTimeTag, slotTimeText)
}

func weekdayValidation(fl validator.FieldLevel) bool {
	return DayIndex(fl.Field().String()) >= 0
}

func slotTimeValidation(fl validator.FieldLevel) bool {
	t := fl.Field().String()
	for _, ts := range TimeSlots {
		if ts == t {
			return true
		}
	}
	return false
}
