package httputil

import (
	"reflect"
	"strings"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports json field names and knows
// the "slug" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return domain.IsValidSlug(fl.Field().String())
	})

	return v
}
