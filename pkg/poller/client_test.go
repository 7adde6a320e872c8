package poller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
	"github.com/gridlinecompany/LetsEcrypt/pkg/poller"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAPI requires the cookie set by login on every other route.
func fakeAPI(t *testing.T, status *certrequest.StatusResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "__session", Value: "s1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("__session"); err != nil || c.Value != "s1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Authentication required"})
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /status", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, status)
	}))
	mux.HandleFunc("POST /check-dns", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, certrequest.CheckDNSResponse{
			Success: false,
			Message: "DNS verification failed",
			Details: []string{"The TXT record was not found."},
			Error:   "DNS record not found: _acme-challenge.example.com",
		})
	}))
	mux.HandleFunc("GET /dns-challenge-status", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, certrequest.DNSStatusResponse{
			Success: true,
			Status:  certrequest.PrepReady,
			DNSData: &certrequest.DNSData{Domain: "example.com", RecordName: "_acme-challenge.example.com", RecordValue: "abc"},
		})
	}))
	mux.HandleFunc("GET /certificates/{id}/download/{kind}", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PEM " + r.PathValue("id") + " " + r.PathValue("kind")))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientKeepsSessionCookie(t *testing.T) {
	t.Parallel()

	srv := fakeAPI(t, &certrequest.StatusResponse{Status: certrequest.StatusPending, Domain: "example.com"})
	c, err := poller.NewClient(srv.URL + "/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Status(ctx)
	var apiErr *poller.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication required", apiErr.Message)

	require.NoError(t, c.Login(ctx, "a@example.com", "secret"))
	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, certrequest.StatusPending, st.Status)
	assert.Equal(t, "example.com", st.Domain)
}

func TestClientCheckDNSFailureIsAResponse(t *testing.T) {
	t.Parallel()

	srv := fakeAPI(t, &certrequest.StatusResponse{})
	c, err := poller.NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "a@example.com", "secret"))

	resp, err := c.CheckDNS(ctx, "example.com", "")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "DNS verification failed", resp.Message)
	assert.Equal(t, []string{"The TXT record was not found."}, resp.Details)
	assert.Contains(t, resp.Error, "DNS record not found")
}

func TestClientDownload(t *testing.T) {
	t.Parallel()

	srv := fakeAPI(t, &certrequest.StatusResponse{})
	c, err := poller.NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	var buf bytes.Buffer
	err = c.Download(ctx, "abc", "cert", &buf)
	var apiErr *poller.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.NoError(t, c.Login(ctx, "a@example.com", "secret"))
	require.NoError(t, c.Download(ctx, "abc", "key", &buf))
	assert.Equal(t, "PEM abc key", buf.String())
}

func TestStatusCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status certrequest.StatusResponse
		want   poller.Update
	}{
		{
			name:   "pending",
			status: certrequest.StatusResponse{Status: certrequest.StatusPending, Domain: "example.com"},
			want:   poller.Update{Message: "Certificate generation in progress for example.com. Please wait..."},
		},
		{
			name:   "completed",
			status: certrequest.StatusResponse{Status: certrequest.StatusCompleted, Domain: "example.com", CertificateID: "c1"},
			want: poller.Update{Done: true, Value: "c1",
				Message: "Certificate for example.com has been successfully generated!"},
		},
		{
			name:   "error",
			status: certrequest.StatusResponse{Status: certrequest.StatusError, Message: "DNS verification failed", Details: []string{"d"}},
			want:   poller.Update{Failed: true, Message: "Error: DNS verification failed", Details: []string{"d"}},
		},
		{
			name:   "nothing pending",
			status: certrequest.StatusResponse{Status: certrequest.StatusNone},
			want:   poller.Update{Done: true, Message: "Certificate generation complete!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status := tt.status
			srv := fakeAPI(t, &status)
			c, err := poller.NewClient(srv.URL)
			require.NoError(t, err)
			require.NoError(t, c.Login(context.Background(), "a@example.com", "secret"))

			got, err := poller.StatusCheck(c)(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDNSReadyCheckWithPoller(t *testing.T) {
	t.Parallel()

	srv := fakeAPI(t, &certrequest.StatusResponse{})
	c, err := poller.NewClient(srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), "a@example.com", "secret"))

	p := poller.New(poller.WithInterval(time.Millisecond))
	res := await(t, p.Start(context.Background(), poller.DNSReadyCheck(c), nil))
	require.NoError(t, res.Err)
	assert.True(t, res.Update.Done)
	assert.Equal(t, "abc", res.Update.Value)
	assert.Contains(t, res.Update.Message, "_acme-challenge.example.com")
}
