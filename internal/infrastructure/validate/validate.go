// Package validate wraps go-playground/validator with English messages.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func lazyinit() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		en := en.New()
		uni := ut.New(en, en)
		translator, _ = uni.GetTranslator("en")

		_ = en_translations.RegisterDefaultTranslations(validate, translator)
		registerCustomTranslations()
	})
}

// Struct validates obj against its `validate` tags. The returned error message
// is already human readable.
func Struct(obj any) error {
	lazyinit()

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, e.Translate(translator))
	}
	return errors.New(strings.Join(messages, "; "))
}

func registerCustomTranslations() {
	_ = validate.RegisterTranslation("max", translator, func(ut ut.Translator) error {
		return ut.Add("max", "{0} must be at most {1} characters", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("max", fe.Field(), fe.Param())
		return t
	})

	_ = validate.RegisterTranslation("oneof", translator, func(ut ut.Translator) error {
		return ut.Add("oneof", "{0} must be one of [{1}]", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("oneof", fe.Field(), fe.Param())
		return t
	})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
