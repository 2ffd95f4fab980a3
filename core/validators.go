package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"
	isoDayTag    = "isoday"
	isoDayText   = "{0} must be a date formatted as YYYY-MM-DD"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(notBlankTag, notBlankText)
	_ = Validate.RegisterValidation(isoDayTag, isoDayValidation)
	RegisterCustomTranslation(isoDayTag, isoDayText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// `text` may reference the field name with {0}.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct runs the struct tags of `s` and turns failures into a *ValidationError.
// `prefix` is prepended to every field name (eg. "slots[2].").
func ValidateStruct(s interface{}, prefix ...string) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	return NewValidationError(nil, FieldErrors(verrs, prefix...)...)
}

// FieldErrors translates validator errors into FieldErrors.
func FieldErrors(verrs validator.ValidationErrors, prefix ...string) []FieldError {
	var pfx string
	if len(prefix) > 0 {
		pfx = prefix[0]
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, FieldError{Field: pfx + fe.Field(), Error: fe.Translate(Translator)})
	}
	return flds
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isoDayValidation accepts "2006-01-02" dates.
func isoDayValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(ISODay, fl.Field().String())
	return err == nil
}
