package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/binder"
)

type generateRequest struct {
	Domain string `json:"domain"`
	Email  string `json:"email"`
}

func newRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var got generateRequest
	err := binder.JSON()(newRequest(`{"domain":"example.com","email":"a@example.com","extra":1}`, "application/json; charset=utf-8"), &got)
	require.NoError(t, err)
	assert.Equal(t, generateRequest{Domain: "example.com", Email: "a@example.com"}, got)
}

func TestJSONEmptyBody(t *testing.T) {
	t.Parallel()

	var got generateRequest
	require.NoError(t, binder.JSON()(newRequest("", ""), &got))
	assert.Zero(t, got)
}

func TestJSONErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		want        error
	}{
		{"missing content type", `{}`, "", binder.ErrMissingContentType},
		{"wrong media type", `{}`, "text/plain", binder.ErrUnsupportedMediaType},
		{"malformed", `{"domain":`, "application/json", binder.ErrFailedToParseJSON},
		{"wrong type", `{"domain":1}`, "application/json", binder.ErrFailedToParseJSON},
		{"trailing data", `{"domain":"a"} {"domain":"b"}`, "application/json", binder.ErrFailedToParseJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got generateRequest
			err := binder.JSON()(newRequest(tt.body, tt.contentType), &got)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
