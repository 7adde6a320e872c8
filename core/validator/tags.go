package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"
)

// RuleFunc checks value against the rule parameters and returns a failure
// message, or "" when the value passes.
type RuleFunc func(value reflect.Value, params []string) string

var (
	registryMu sync.RWMutex
	registry   = map[string]RuleFunc{
		"required": required,
		"min":      minRule,
		"max":      maxRule,
		"email":    email,
		"in":       in,
		"domain":   domain,
	}
)

// RegisterValidator makes fn available to struct tags under name.
func RegisterValidator(name string, fn RuleFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// ValidateStruct checks the struct v points to against its `validate`
// tags. Rules are separated by semicolons and take comma separated
// parameters after a colon: `validate:"required;max:253;domain"`.
// Fields are reported under their json name. Empty optional values skip
// every rule but required. The returned error is ValidationErrors.
func ValidateStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("validator: must pass a pointer to struct")
	}

	var errs ValidationErrors
	if err := validateStruct(rv.Elem(), "", &errs); err != nil {
		return err
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func validateStruct(rv reflect.Value, prefix string, errs *ValidationErrors) error {
	rt := rv.Type()
	for i := range rv.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("validate")
		if tag == "-" {
			continue
		}

		name := fieldName(sf)
		if prefix != "" {
			name = prefix + "." + name
		}

		field := rv.Field(i)
		if field.Kind() == reflect.Pointer && !field.IsNil() {
			field = field.Elem()
		}
		if field.Kind() == reflect.Struct && tag == "" {
			if err := validateStruct(field, name, errs); err != nil {
				return err
			}
			continue
		}
		if tag == "" {
			continue
		}
		if err := validateField(name, field, tag, errs); err != nil {
			return err
		}
	}
	return nil
}

func validateField(name string, field reflect.Value, tag string, errs *ValidationErrors) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	empty := isEmpty(field)
	for _, rule := range strings.Split(tag, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		ruleName, paramStr, _ := strings.Cut(rule, ":")
		fn, ok := registry[ruleName]
		if !ok {
			return errors.New("validator: unknown rule " + ruleName)
		}
		if empty && ruleName != "required" {
			continue
		}

		var params []string
		if paramStr != "" {
			params = strings.Split(paramStr, ",")
			for i := range params {
				params[i] = strings.TrimSpace(params[i])
			}
		}
		if msg := fn(field, params); msg != "" {
			errs.Add(ValidationError{Field: name, Rule: ruleName, Message: msg})
			if ruleName == "required" {
				return nil
			}
		}
	}
	return nil
}

func fieldName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}
