package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method    string
	path      string
	requestID string
	agent     string
	body      map[string]any
}

func newTestServer(t *testing.T, status int, reply string) (*HTTPClient, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.requestID = r.Header.Get(headerRequestID)
		rec.agent = r.Header.Get(headerUserAgent)
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return NewHTTPClient(srv.URL+"/api"), rec
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient("http://localhost:5000/api")

	assert.Equal(t, "http://localhost:5000/api", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.NoError(t, c.Close())
}

func TestNewHTTPClient_Options(t *testing.T) {
	hc := &http.Client{}
	c := NewHTTPClient("http://x", WithHTTPClient(hc))

	assert.Same(t, hc, c.httpClient)
}

func TestWithTimeout_LeavesCallerClientAlone(t *testing.T) {
	tr := &http.Transport{}
	hc := &http.Client{Transport: tr, Timeout: time.Minute}
	c := NewHTTPClient("http://x", WithHTTPClient(hc), WithTimeout(5*time.Second))

	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Equal(t, time.Minute, hc.Timeout)
	assert.NotSame(t, hc, c.httpClient)
	assert.Same(t, tr, c.httpClient.Transport)
}

func TestLogin_SendsCredentialsAndDecodesUser(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{
		"user": {"_id":"u1","name":"Ada Lovelace","email":"ada@example.com","phone":"9876543210","isEmailVerified":true},
		"isEmailVerified": true
	}`)

	resp, err := c.Login(context.Background(), "ada@example.com", "analytical1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/login", rec.path)
	assert.Equal(t, map[string]any{"email": "ada@example.com", "password": "analytical1"}, rec.body)
	_, err = uuid.Parse(rec.requestID)
	assert.NoError(t, err, "X-Request-ID must be a uuid")
	assert.Equal(t, userAgent, rec.agent)

	assert.True(t, resp.IsEmailVerified)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "Ada Lovelace", resp.User.Name)
	assert.True(t, resp.User.EmailVerified)
}

func TestLogin_ServerMessageBecomesAPIError(t *testing.T) {
	c, _ := newTestServer(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)

	_, err := c.Login(context.Background(), "ada@example.com", "wrongpass1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestSignup_FallsBackToRequestEmail(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated, `{"message":"OTP sent"}`)

	resp, err := c.Signup(context.Background(), SignupRequest{
		Name: "Ada Lovelace", Email: "ada@example.com", Phone: "9876543210", Password: "analytical1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/signup", rec.path)
	assert.Equal(t, "9876543210", rec.body["phone"])
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, "OTP sent", resp.Message)
}

func TestVerifyOTP_UsesEmailOtpField(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"user":{"_id":"u1","email":"ada@example.com","isEmailVerified":true}}`)

	id, err := c.VerifyOTP(context.Background(), "ada@example.com", "482913")
	require.NoError(t, err)

	assert.Equal(t, "/api/verify-otp", rec.path)
	assert.Equal(t, map[string]any{"email": "ada@example.com", "emailOtp": "482913"}, rec.body)
	assert.True(t, id.EmailVerified)
}

func TestResendAndForgot_DecodeAttemptsLeft(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"attemptleft":2}`)

	resp, err := c.ResendOTP(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "/api/resend-otp", rec.path)
	require.NotNil(t, resp.AttemptsLeft)
	assert.Equal(t, 2, *resp.AttemptsLeft)

	resp, err = c.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "/api/forgot-password", rec.path)
	require.NotNil(t, resp.AttemptsLeft)
	assert.Equal(t, 2, *resp.AttemptsLeft)
}

func TestResendOTP_NoBudgetReported(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{}`)

	resp, err := c.ResendOTP(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, resp.AttemptsLeft)
}

func TestChangePassword_ReturnsTimestamp(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"lastPasswordChangedAt":"2026-10-19T10:15:00Z"}`)

	at, err := c.ChangePassword(context.Background(), ChangePasswordRequest{
		Email: "ada@example.com", OldPassword: "analytical1", NewPassword: "difference2",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/change-password", rec.path)
	assert.Equal(t, "difference2", rec.body["newPassword"])
	assert.True(t, at.Equal(time.Date(2026, 10, 19, 10, 15, 0, 0, time.UTC)))
}

func TestUpdateProfile_OmitsUnchangedFields(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `{"user":{"_id":"u1","name":"Augusta","email":"ada@example.com"}}`)

	name := "Augusta"
	id, err := c.UpdateProfile(context.Background(), UpdateProfileRequest{Email: "ada@example.com", Name: &name})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"email": "ada@example.com", "name": "Augusta"}, rec.body)
	assert.Equal(t, "Augusta", id.Name)
}

func TestDoRequest_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url)
	_, err := c.Login(context.Background(), "ada@example.com", "analytical1")

	assert.ErrorIs(t, err, ErrUnavailable)
	_, ok := ServerMessage(err)
	assert.False(t, ok)
}

func TestDoRequest_MalformedReplyIsUnavailable(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `<html>`)

	_, err := c.Login(context.Background(), "ada@example.com", "analytical1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDoRequest_CancelledContext(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ResendOTP(ctx, "ada@example.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDoRequest_CustomRequestIDs(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.requestID = r.Header.Get(headerRequestID)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, WithRequestIDs(func() string { return "req-1" }))
	_, err := c.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "req-1", rec.requestID)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "flat message", body: `{"message":"User already exists"}`, want: "User already exists"},
		{name: "nested error", body: `{"error":{"code":"limit","message":"Resend limit reached"}}`, want: "Resend limit reached"},
		{name: "error string", body: `{"error":"Invalid OTP"}`, want: "Invalid OTP"},
		{name: "not json", body: `Bad Gateway`, want: ""},
		{name: "empty", body: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(http.StatusBadRequest, []byte(tt.body))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		})
	}
}

func TestAPIError_ErrorFallsBackToStatusText(t *testing.T) {
	assert.Equal(t, "Bad Gateway", (&APIError{StatusCode: http.StatusBadGateway}).Error())
	assert.Equal(t, "nope", (&APIError{StatusCode: 400, Message: "nope"}).Error())
}
