package authflow

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/services"
)

// fakeAuth records calls. When gate is set, every call blocks until it is
// closed, after signalling on entered.
type fakeAuth struct {
	mu    sync.Mutex
	calls []string

	gate    chan struct{}
	entered chan struct{}

	loginRes  services.LoginResult
	loginErr  error
	signupErr error
	verifyRet models.Identity
	verifyErr error
	resend    []*int
	resendErr error
	forgot    *int
	forgotErr error

	lastSignup services.SignupRequest
}

func (f *fakeAuth) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
}

func (f *fakeAuth) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (services.LoginResult, error) {
	f.record("login:" + email)
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Signup(ctx context.Context, req services.SignupRequest) (models.PendingVerification, error) {
	f.record("signup:" + req.Email)
	f.lastSignup = req
	return models.PendingVerification{Email: req.Email}, f.signupErr
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, email, code string) (models.Identity, error) {
	f.record("verify:" + email + ":" + code)
	return f.verifyRet, f.verifyErr
}

func (f *fakeAuth) ResendOTP(ctx context.Context, email string) (*int, error) {
	f.record("resend:" + email)
	if f.resendErr != nil {
		return nil, f.resendErr
	}
	if len(f.resend) == 0 {
		return nil, nil
	}
	v := f.resend[0]
	f.resend = f.resend[1:]
	return v, nil
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, email string) (*int, error) {
	f.record("forgot:" + email)
	return f.forgot, f.forgotErr
}

func intPtr(v int) *int { return &v }

func newGatedAuth() *fakeAuth {
	return &fakeAuth{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
}
