package sanitizer

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func(string) string{
		"trim":        Trim,
		"lower":       strings.ToLower,
		"trim_lower":  TrimToLower,
		"single_line": SingleLine,
		"no_control":  RemoveControlChars,
		"hostname":    Hostname,
	}
)

// RegisterSanitizer makes fn available to struct tags under name.
func RegisterSanitizer(name string, fn func(string) string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// SanitizeStruct rewrites the string fields of the struct v points to,
// following their `sanitize` tags. Sanitizers are comma separated and
// applied in order; "max:N" truncates to N runes. Nested structs are
// walked; unknown sanitizer names are an error.
func SanitizeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("sanitizer: must pass a pointer to struct")
	}
	return sanitizeStruct(rv.Elem())
}

func sanitizeStruct(rv reflect.Value) error {
	rt := rv.Type()
	for i := range rv.NumField() {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		tag := rt.Field(i).Tag.Get("sanitize")
		if tag == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if tag == "" {
				continue
			}
			s, err := apply(field.String(), tag)
			if err != nil {
				return err
			}
			field.SetString(s)
		case reflect.Struct:
			if err := sanitizeStruct(field); err != nil {
				return err
			}
		case reflect.Pointer:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				if err := sanitizeStruct(field.Elem()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func apply(s, tag string) (string, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if n, ok := strings.CutPrefix(name, "max:"); ok {
			limit, err := strconv.Atoi(n)
			if err != nil {
				return "", errors.New("sanitizer: invalid max length " + strconv.Quote(n))
			}
			s = MaxLength(s, limit)
			continue
		}
		fn, ok := registry[name]
		if !ok {
			return "", errors.New("sanitizer: unknown sanitizer " + strconv.Quote(name))
		}
		s = fn(s)
	}
	return s, nil
}
