package validator

import "strings"

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failed rule of a struct.
type ValidationErrors []ValidationError

// Add appends err to the collection.
func (e *ValidationErrors) Add(err ValidationError) {
	*e = append(*e, err)
}

func (e ValidationErrors) IsEmpty() bool {
	return len(e) == 0
}

// Has reports whether a rule failed for field.
func (e ValidationErrors) Has(field, rule string) bool {
	for _, v := range e {
		if v.Field == field && (rule == "" || v.Rule == rule) {
			return true
		}
	}
	return false
}

// Fields maps field names to their first failure message.
func (e ValidationErrors) Fields() map[string]any {
	m := make(map[string]any, len(e))
	for _, v := range e {
		if _, ok := m[v.Field]; !ok {
			m[v.Field] = v.Message
		}
	}
	return m
}

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
