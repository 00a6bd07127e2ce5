package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-user-cache/users"
)

// validateRequest checks a create or update payload. Field errors are keyed
// by their JSON names.
func validateRequest(req users.Request) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&req.Age, validation.Min(0), validation.Max(150)),
	)
}
