package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/core/response"
)

type testContext struct {
	w http.ResponseWriter
	r *http.Request
}

func (tc *testContext) Deadline() (time.Time, bool) { return tc.r.Context().Deadline() }
func (tc *testContext) Done() <-chan struct{} { return tc.r.Context().Done() }
func (tc *testContext) Err() error { return tc.r.Context().Err() }
func (tc *testContext) Value(key any) any { return tc.r.Context().Value(key) }
func (tc *testContext) SetValue(key, val any) {}
func (tc *testContext) Request() *http.Request { return tc.r }
func (tc *testContext) ResponseWriter() http.ResponseWriter { return tc.w }
func (tc *testContext) Param(string) string { return "" }

type teapotErr struct{}

func (teapotErr) Error() string { return "conflicting" }
func (teapotErr) StatusCode() int { return http.StatusConflict }

func TestJSONWithStatus(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := response.JSONWithStatus(map[string]string{"status": "processing"}, http.StatusAccepted)(rec, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"processing"}`, rec.Body.String())
}

func TestJSONWithStatusNilIsNoContent(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	require.NoError(t, response.JSONWithStatus(nil, 0)(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestNoStoreSetsHeaders(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	require.NoError(t, response.NoStore(response.String("ok"))(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestJSONErrorHandler(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantCause  bool
	}{
		{"http error", response.ErrBadRequest.WithMessage("Domain and email are required"), http.StatusBadRequest, "bad_request", false},
		{"status coder", teapotErr{}, http.StatusConflict, "conflict", true},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "internal_server_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ctx := &testContext{w: rec, r: httptest.NewRequest(http.MethodGet, "/", nil)}

			response.JSONErrorHandler(ctx, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, false, body["success"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantCause, hasDetails)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "example.com_1.cert.pem")
	require.NoError(t, os.WriteFile(path, []byte("PEM"), 0o644))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, response.Download(path, "example.com_certificate.pem")(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="example.com_certificate.pem"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PEM", rec.Body.String())
}

func TestDownloadMissingFile(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	err := response.Download(filepath.Join(t.TempDir(), "nope.pem"), "x.pem")(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var httpErr response.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode())
}
