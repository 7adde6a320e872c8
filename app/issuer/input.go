package issuer

import (
	"errors"

	"github.com/gridlinecompany/LetsEcrypt/core/binder"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/core/sanitizer"
	"github.com/gridlinecompany/LetsEcrypt/core/validator"
)

// bind decodes the JSON body into v, normalizes it and validates it.
// A missing required field is reported with requiredMsg; any other rule
// failure lists the offending fields in the error details.
func bind(ctx *Context, v any, requiredMsg string) error {
	if err := binder.JSON()(ctx.Request(), v); err != nil {
		return response.ErrBadRequest.WithMessage("Invalid request body").WithError(err)
	}
	if err := sanitizer.SanitizeStruct(v); err != nil {
		return err
	}

	err := validator.ValidateStruct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		if e.Rule == "required" && requiredMsg != "" {
			return response.ErrBadRequest.WithMessage(requiredMsg)
		}
	}
	return response.ErrBadRequest.
		WithMessage(verrs[0].Field + " " + verrs[0].Message).
		WithDetails(verrs.Fields())
}
