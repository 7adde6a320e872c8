package validator

import (
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

func required(v reflect.Value, _ []string) string {
	if isEmpty(v) {
		return "is required"
	}
	return ""
}

// size is the rune count for strings, the length for collections and the
// value itself for numbers.
func size(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.String:
		return float64(len([]rune(v.String()))), true
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(v.Len()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func bound(v reflect.Value, params []string) (got, limit float64, ok bool) {
	if len(params) != 1 {
		return 0, 0, false
	}
	limit, err := strconv.ParseFloat(params[0], 64)
	if err != nil {
		return 0, 0, false
	}
	got, ok = size(v)
	return got, limit, ok
}

func minRule(v reflect.Value, params []string) string {
	got, limit, ok := bound(v, params)
	if !ok {
		return "has an invalid min rule"
	}
	if got < limit {
		if v.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", params[0])
		}
		return "must be at least " + params[0]
	}
	return ""
}

func maxRule(v reflect.Value, params []string) string {
	got, limit, ok := bound(v, params)
	if !ok {
		return "has an invalid max rule"
	}
	if got > limit {
		if v.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", params[0])
		}
		return "must be at most " + params[0]
	}
	return ""
}

func email(v reflect.Value, _ []string) string {
	if v.Kind() != reflect.String {
		return "must be a string"
	}
	s := v.String()
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		return "must be a valid email address"
	}
	return ""
}

func in(v reflect.Value, params []string) string {
	if v.Kind() != reflect.String {
		return "must be a string"
	}
	if !slices.Contains(params, v.String()) {
		return "must be one of: " + strings.Join(params, ", ")
	}
	return ""
}

// domain accepts a fully qualified hostname with an optional leading
// wildcard label.
func domain(v reflect.Value, _ []string) string {
	const msg = "must be a valid domain name"
	if v.Kind() != reflect.String {
		return msg
	}
	if !IsDomain(v.String()) {
		return msg
	}
	return ""
}

// IsDomain reports whether s is a fully qualified hostname, optionally
// prefixed with "*.".
func IsDomain(s string) bool {
	s = strings.TrimPrefix(s, "*.")
	if s == "" || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 63 || l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for _, c := range l {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	// top-level label is never all digits
	tld := labels[len(labels)-1]
	return strings.Trim(tld, "0123456789") != ""
}
