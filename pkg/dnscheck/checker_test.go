package dnscheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/dnscheck"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	values, _ := args.Get(0).([]string)
	return values, args.Error(1)
}

func newChecker(r dnscheck.Resolver) *dnscheck.Checker {
	return dnscheck.New(dnscheck.WithResolver(r), dnscheck.WithRetryDelay(0))
}

func TestRecordName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "_acme-challenge.example.com", dnscheck.RecordName("example.com"))
	assert.Equal(t, "_acme-challenge.example.com", dnscheck.RecordName("*.example.com"))
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"abc":         "abc",
		`"abc"`:       "abc",
		`  "abc"  `:   "abc",
		`" abc "`:     "abc",
		`""abc""`:     `"abc"`,
		`"unbalanced`: `"unbalanced`,
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, dnscheck.Normalize(in), "input %q", in)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		found    []string
		expected string
	}{
		{name: "exact", found: []string{"abc123"}, expected: "abc123"},
		{name: "quoted record", found: []string{`"abc123"`}, expected: "abc123"},
		{name: "quoted expected", found: []string{"abc123"}, expected: ` "abc123" `},
		{name: "one of many", found: []string{"other", "abc123"}, expected: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(mockResolver)
			r.On("LookupTXT", mock.Anything, "_acme-challenge.example.com").Return(tt.found, nil).Once()

			require.NoError(t, newChecker(r).Verify(context.Background(), "example.com", tt.expected))
			r.AssertExpectations(t)
		})
	}
}

func TestVerifyNotFoundRetries(t *testing.T) {
	t.Parallel()
	r := new(mockResolver)
	r.On("LookupTXT", mock.Anything, "_acme-challenge.example.com").Return([]string(nil), nil).Times(3)

	err := newChecker(r).Verify(context.Background(), "example.com", "abc")

	var nf *dnscheck.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.ErrorIs(t, err, dnscheck.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "DNS record not found")
	r.AssertNumberOfCalls(t, "LookupTXT", 3)
}

func TestVerifyLookupErrorIsNotFound(t *testing.T) {
	t.Parallel()
	r := new(mockResolver)
	r.On("LookupTXT", mock.Anything, mock.Anything).Return(nil, errors.New("servfail"))

	err := dnscheck.New(dnscheck.WithResolver(r), dnscheck.WithRetries(0)).
		Verify(context.Background(), "example.com", "abc")
	assert.ErrorIs(t, err, dnscheck.ErrRecordNotFound)
	assert.ErrorContains(t, err, "servfail")
	r.AssertNumberOfCalls(t, "LookupTXT", 1)
}

func TestVerifyMismatch(t *testing.T) {
	t.Parallel()
	r := new(mockResolver)
	r.On("LookupTXT", mock.Anything, mock.Anything).Return([]string{"wrong"}, nil)

	err := newChecker(r).Verify(context.Background(), "example.com", "abc")

	var mm *dnscheck.MismatchError
	require.ErrorAs(t, err, &mm)
	assert.ErrorIs(t, err, dnscheck.ErrRecordMismatch)
	assert.Contains(t, err.Error(), "doesn't match expected value")
	assert.Equal(t, []string{"wrong"}, mm.Found)
}

func TestVerifySucceedsAfterPropagation(t *testing.T) {
	t.Parallel()
	r := new(mockResolver)
	r.On("LookupTXT", mock.Anything, mock.Anything).Return([]string(nil), nil).Once()
	r.On("LookupTXT", mock.Anything, mock.Anything).Return([]string{"abc"}, nil).Once()

	require.NoError(t, newChecker(r).Verify(context.Background(), "example.com", "abc"))
	r.AssertNumberOfCalls(t, "LookupTXT", 2)
}
