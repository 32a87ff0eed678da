package validation

import (
	"errors"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with the custom tags registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// report json names ("customer_name") instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", notBlank)

	return v
}

// notBlank fails for strings that are empty after trimming whitespace.
func notBlank(fl validatorv10.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(f.String()) != ""
}

// FirstField returns the json name of the first failing field, or "".
func FirstField(err error) string {
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Field()
	}
	return ""
}
