package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/services"
)

var (
	ErrInvalidVerificationRequest = errors.New("invalid verification request")
	ErrResendExhausted            = errors.New("otp resend limit reached")
)

// Display text for the sentinels above.
const (
	MsgInvalidVerification = "Invalid verification request"
	MsgResendExhausted     = "Resend limit reached. Try again tomorrow."
)

// OTPStep completes a pending verification for one email.
type OTPStep struct {
	auth  Authenticator
	email string

	mu          sync.Mutex
	resendsLeft *int
	inFlight    bool
	closed      bool
}

// NewOTPStep fails with ErrInvalidVerificationRequest when email is empty.
// A known resend budget, if any, can be carried over from the login step.
func NewOTPStep(auth Authenticator, email string, resendsLeft *int) (*OTPStep, error) {
	if email == "" {
		return nil, ErrInvalidVerificationRequest
	}
	return &OTPStep{auth: auth, email: email, resendsLeft: cloneInt(resendsLeft)}, nil
}

func (s *OTPStep) Email() string { return s.email }

// ResendsLeft is the last budget the server reported, nil if none yet.
func (s *OTPStep) ResendsLeft() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneInt(s.resendsLeft)
}

// CanResend is false once the server has reported no resends left.
func (s *OTPStep) CanResend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resendsLeft == nil || *s.resendsLeft > 0
}

func (s *OTPStep) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Verify submits code. On failure the step stays usable; no attempt is
// counted on this side.
func (s *OTPStep) Verify(ctx context.Context, code string) (models.Identity, error) {
	if err := ValidateCode(code); err != nil {
		return models.Identity{}, err
	}
	if err := s.acquire(); err != nil {
		return models.Identity{}, err
	}

	identity, err := s.auth.VerifyOTP(ctx, s.email, code)

	if err := s.release(); err != nil {
		return models.Identity{}, err
	}
	return identity, err
}

// Resend requests a fresh code and returns a message for the user.
func (s *OTPStep) Resend(ctx context.Context) (Outcome, error) {
	if !s.CanResend() {
		return Outcome{}, ErrResendExhausted
	}
	if err := s.acquire(); err != nil {
		return Outcome{}, err
	}

	left, err := s.auth.ResendOTP(ctx, s.email)

	if rerr := s.release(); rerr != nil {
		return Outcome{}, rerr
	}
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	s.resendsLeft = cloneInt(left)
	s.mu.Unlock()

	out := Outcome{Next: StepStay, Email: s.email, AttemptsLeft: left, Level: services.LevelSuccess}
	if left == nil {
		out.Message = "OTP resent to your email"
		return out, nil
	}
	if *left <= 1 {
		out.Level = services.LevelWarning
	}
	out.Message = fmt.Sprintf("OTP resent to your email. Resend attempts left today: %d", *left)
	return out, nil
}

func (s *OTPStep) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrDiscarded
	}
	if s.inFlight {
		return ErrSubmitInFlight
	}
	s.inFlight = true
	return nil
}

func (s *OTPStep) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.closed {
		return ErrDiscarded
	}
	return nil
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
