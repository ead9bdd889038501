package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ISO formats accepted for dates coming from clients.
const (
	ISODateLayout     = "2006-01-02"
	ISODateTimeLayout = time.RFC3339
)

var (
	// custom validation tags & texts
	isoDateTag  = "isodate"
	isoDateText = "{0} must be an ISO date (YYYY-MM-DD) or date-time (RFC 3339)"

	orderingTag   = "ordering"
	orderingText  = "{0} must be a comma separated list of fields, optionally prefixed with '-'"
	orderingRegex = regexp.MustCompile(`^-?[a-z_]+(,-?[a-z_]+)*$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON/query tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// register custom validators
	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	RegisterCustomTranslation(validate, translator, isoDateTag, isoDateText)

	_ = validate.RegisterValidation(orderingTag, orderingValidation)
	RegisterCustomTranslation(validate, translator, orderingTag, orderingText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ParseISODate parses `s` as YYYY-MM-DD or RFC 3339. The boolean reports whether `s` was a date only.
func ParseISODate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(ISODateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(ISODateTimeLayout, s)
	return t, false, err
}

// Custom Global Validators

func isoDateValidation(fl validator.FieldLevel) bool {
	_, _, err := ParseISODate(fl.Field().String())
	return err == nil
}

func orderingValidation(fl validator.FieldLevel) bool {
	return orderingRegex.MatchString(fl.Field().String())
}
