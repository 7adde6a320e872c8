// Package validator checks request structs against `validate` struct tags.
//
//	type RegisterRequest struct {
//		Email    string `json:"email" validate:"required;email"`
//		Password string `json:"password" validate:"required;min:8"`
//	}
//
//	if err := validator.ValidateStruct(&req); err != nil {
//		var verrs validator.ValidationErrors
//		errors.As(err, &verrs)
//	}
//
// Built-in rules: required, min:N, max:N, email, in:a,b and domain.
// RegisterValidator adds more. Unknown rule names are reported as a plain
// error rather than ValidationErrors.
package validator
