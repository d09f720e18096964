package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderIdempotency   = "Idempotency-Key"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHttpClient(baseURL string, timeout time.Duration) *HttpClient {
	return &HttpClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ToString renders the response for error messages.
func (r *Response) ToString() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

// RequestOption mutates an outgoing request before it is sent.
type RequestOption func(req *http.Request)

// WithBearer attaches the session credential.
func WithBearer(token string) RequestOption {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set(HeaderAuthorization, "Bearer "+token)
		}
	}
}

// WithIdempotencyKey lets the collaborator recognise a resent request.
func WithIdempotencyKey(key string) RequestOption {
	return func(req *http.Request) {
		if key != "" {
			req.Header.Set(HeaderIdempotency, key)
		}
	}
}

func (c *HttpClient) GET(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "", opts)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(jsonData), contentTypeJSON, opts)
}

func (c *HttpClient) POSTForm(ctx context.Context, path string, form url.Values, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), contentTypeForm, opts)
}

func (c *HttpClient) do(ctx context.Context, method, path string, reqBody io.Reader, contentType string, opts []RequestOption) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set(HeaderContentType, contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(HeaderRequestID, uuid.NewString())

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

// GetErrorMessage extracts a human readable message from an error body.
// It understands {"detail": "..."} as well as {"error"|"message"|"code": "..."}.
func GetErrorMessage(resp *Response) string {
	var errResp struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Code    string          `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		return strings.TrimSpace(string(resp.Body))
	}

	if len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
			return detail
		}
		return string(errResp.Detail)
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return errResp.Code
}
