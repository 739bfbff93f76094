package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second

	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
	userAgent         = "swpa-cli/1.0"
)

// HTTPClient talks to the identity API with JSON POST requests.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
	newID      func() string
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request; zero keeps the default. A client given
// through WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			hc := *c.httpClient
			hc.Timeout = timeout
			c.httpClient = &hc
		}
	}
}

func WithLogger(log logging.Logger) Option {
	return func(c *HTTPClient) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRequestIDs replaces the uuid generator of the X-Request-ID header.
func WithRequestIDs(newID func() string) Option {
	return func(c *HTTPClient) {
		if newID != nil {
			c.newID = newID
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logging.Nop{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "api_client")
	return c
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var resp SignupResponse
	if err := c.post(ctx, "/signup", req, &resp); err != nil {
		return nil, err
	}
	if resp.Email == "" {
		resp.Email = req.Email
	}
	return &resp, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, code string) (models.Identity, error) {
	var resp userResponse
	if err := c.post(ctx, "/verify-otp", VerifyOTPRequest{Email: email, Code: code}, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string) (*AttemptsResponse, error) {
	var resp AttemptsResponse
	if err := c.post(ctx, "/resend-otp", emailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (*AttemptsResponse, error) {
	var resp AttemptsResponse
	if err := c.post(ctx, "/forgot-password", emailRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, req ChangePasswordRequest) (time.Time, error) {
	var resp changePasswordResponse
	if err := c.post(ctx, "/change-password", req, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.LastPasswordChangedAt, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (models.Identity, error) {
	var resp userResponse
	if err := c.post(ctx, "/update-profile", req, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, result any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result)
}

// doRequest sends body as JSON and decodes a 2xx reply into result.
// Non-2xx replies become *APIError; transport failures wrap ErrUnavailable.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := c.newID()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerUserAgent, userAgent)
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	log := c.log.With("op", path, "request_id", requestID)
	log.Debug(ctx, "api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn(ctx, "api request failed", "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn(ctx, "api response unreadable", "error", err)
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := parseError(resp.StatusCode, respBody)
		log.Info(ctx, "api request rejected", "status", resp.StatusCode, "error", apiErr)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			log.Warn(ctx, "api response malformed", "error", err)
			return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
		}
	}

	return nil
}
