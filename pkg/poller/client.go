package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the certificate API. It keeps session cookies between calls.
type Client struct {
	base *url.URL
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{base: base, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Register creates an account and logs in.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/users/register", body, nil)
}

// Login authenticates the client's session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/users/login", body, nil)
}

// Generate starts a certificate request.
func (c *Client) Generate(ctx context.Context, req certrequest.GenerateRequest) (certrequest.ProcessingResponse, error) {
	var resp certrequest.ProcessingResponse
	err := c.do(ctx, http.MethodPost, "/generate", req, &resp)
	return resp, err
}

// DNSChallengeStatus reports DNS-01 record preparation.
func (c *Client) DNSChallengeStatus(ctx context.Context) (certrequest.DNSStatusResponse, error) {
	var resp certrequest.DNSStatusResponse
	err := c.do(ctx, http.MethodGet, "/dns-challenge-status", nil, &resp)
	return resp, err
}

// CheckDNS asks the server to look up the TXT record. A failed lookup is
// reported in the response, not as an error.
func (c *Client) CheckDNS(ctx context.Context, domain, recordValue string) (certrequest.CheckDNSResponse, error) {
	var resp certrequest.CheckDNSResponse
	err := c.do(ctx, http.MethodPost, "/check-dns", certrequest.CheckDNSRequest{Domain: domain, RecordValue: recordValue}, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		resp.Success = false
		if resp.Message == "" {
			resp.Message = apiErr.Message
		}
		return resp, nil
	}
	return resp, err
}

// VerifyDNS starts CA validation of the DNS-01 challenge.
func (c *Client) VerifyDNS(ctx context.Context, domain string, useVerified bool) (certrequest.ProcessingResponse, error) {
	var resp certrequest.ProcessingResponse
	err := c.do(ctx, http.MethodPost, "/verify-dns", certrequest.VerifyDNSRequest{Domain: domain, UseVerifiedChallenge: useVerified}, &resp)
	return resp, err
}

// Status reads the request status. Reading a final status clears it.
func (c *Client) Status(ctx context.Context) (certrequest.StatusResponse, error) {
	var resp certrequest.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &resp)
	return resp, err
}

// Download writes a certificate ("cert") or key ("key") to w.
func (c *Client) Download(ctx context.Context, id, kind string, w io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/certificates/"+url.PathEscape(id)+"/download/"+url.PathEscape(kind), nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return decodeError(res, nil)
	}
	_, err = io.Copy(w, res.Body)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return decodeError(res, data, out)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError builds an APIError from an error body. out, when given,
// also receives the body.
func decodeError(res *http.Response, data []byte, out ...any) error {
	if data == nil {
		data, _ = io.ReadAll(io.LimitReader(res.Body, 1<<20))
	}
	apiErr := &APIError{StatusCode: res.StatusCode}

	var body struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Message
		_ = json.Unmarshal(body.Details, &apiErr.Details)
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	for _, o := range out {
		if o != nil {
			_ = json.Unmarshal(data, o)
		}
	}
	return apiErr
}
