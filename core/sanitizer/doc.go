// Package sanitizer normalizes user input before validation.
//
// Fields opt in with a `sanitize` tag listing sanitizers in order:
//
//	type GenerateRequest struct {
//		Domain string `json:"domain" sanitize:"hostname,max:253"`
//		Email  string `json:"email" sanitize:"trim_lower"`
//	}
//
//	if err := sanitizer.SanitizeStruct(&req); err != nil { ... }
//
// Built-in names: trim, lower, trim_lower, single_line, no_control,
// hostname, and max:N. RegisterSanitizer adds more.
package sanitizer
