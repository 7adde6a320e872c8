package dnscheck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound = errors.New("dnscheck: record not found")
	ErrRecordMismatch = errors.New("dnscheck: record mismatch")
	ErrNoNameservers  = errors.New("dnscheck: no nameservers configured")
)

// NotFoundError reports that no TXT record exists at Name.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("DNS record not found: %s", e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrRecordNotFound }
func (e *NotFoundError) Unwrap() error        { return e.Err }

// MismatchError reports TXT records at Name that do not carry Expected.
type MismatchError struct {
	Name     string
	Expected string
	Found    []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("DNS record %s found but doesn't match expected value %q (found: %s)",
		e.Name, e.Expected, strings.Join(e.Found, ", "))
}

func (e *MismatchError) Is(target error) bool { return target == ErrRecordMismatch }
