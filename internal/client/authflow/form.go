// Package authflow drives the entry screens of the client: the
// login / sign-up / forgot-password form and the email OTP step.
//
// Both validate input locally before calling the auth manager, allow one
// submission at a time, and discard outcomes that arrive after Close.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/services"
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrDiscarded      = errors.New("form closed; outcome discarded")
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
	ModeForgotPassword
)

func (m Mode) String() string {
	switch m {
	case ModeSignup:
		return "signup"
	case ModeForgotPassword:
		return "forgot-password"
	default:
		return "login"
	}
}

// Step is where the caller should go after a submission.
type Step int

const (
	StepStay Step = iota
	StepVerifyOTP
	StepDashboard
)

// Outcome of a successful submission.
type Outcome struct {
	Next Step

	// Email is set for StepVerifyOTP.
	Email string

	// AttemptsLeft is the server-reported budget, when there was one.
	AttemptsLeft *int

	Level   services.Level
	Message string
}

// Authenticator is the part of the auth manager the entry screens use.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	Signup(ctx context.Context, req services.SignupRequest) (models.PendingVerification, error)
	VerifyOTP(ctx context.Context, email, code string) (models.Identity, error)
	ResendOTP(ctx context.Context, email string) (*int, error)
	ForgotPassword(ctx context.Context, email string) (*int, error)
}

// Form is the multi-mode entry form. It starts in ModeLogin.
type Form struct {
	auth Authenticator

	mu       sync.Mutex
	mode     Mode
	inFlight bool
	closed   bool
}

func NewForm(auth Authenticator) *Form {
	return &Form{auth: auth, mode: ModeLogin}
}

func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches the form; it is refused while a submission is running.
func (f *Form) SetMode(m Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrSubmitInFlight
	}
	f.mode = m
	return nil
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Close unmounts the form. Submissions still running when it is called
// return ErrDiscarded and leave the mode alone.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Submit validates in for the current mode and runs the mode's operation.
// Validation failures are *ValidationError; remote failures are the
// manager's errors and leave the mode unchanged.
func (f *Form) Submit(ctx context.Context, in Input) (Outcome, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Outcome{}, ErrDiscarded
	}
	if f.inFlight {
		f.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	mode := f.mode
	if err := Validate(mode, in); err != nil {
		f.mu.Unlock()
		return Outcome{}, err
	}
	f.inFlight = true
	f.mu.Unlock()

	var (
		out Outcome
		err error
	)
	switch mode {
	case ModeLogin:
		out, err = f.login(ctx, in)
	case ModeSignup:
		out, err = f.signup(ctx, in)
	case ModeForgotPassword:
		out, err = f.forgotPassword(ctx, in)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if f.closed {
		return Outcome{}, ErrDiscarded
	}
	if err != nil {
		return Outcome{Next: StepStay}, err
	}
	if mode == ModeForgotPassword {
		f.mode = ModeLogin
	}
	return out, nil
}

func (f *Form) login(ctx context.Context, in Input) (Outcome, error) {
	res, err := f.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return Outcome{}, err
	}
	if res.EmailVerified {
		return Outcome{Next: StepDashboard, Level: services.LevelSuccess, Message: "Welcome back!"}, nil
	}

	// The pending verification already exists, so a failed resend still
	// leads to the OTP step where the user can retry it.
	out := Outcome{
		Next:    StepVerifyOTP,
		Email:   in.Email,
		Level:   services.LevelWarning,
		Message: "Email not verified. OTP sent again.",
	}
	left, err := f.auth.ResendOTP(ctx, in.Email)
	if err != nil {
		out.Message = "Email not verified. " + services.UserMessage(err)
		return out, nil
	}
	out.AttemptsLeft = left
	return out, nil
}

func (f *Form) signup(ctx context.Context, in Input) (Outcome, error) {
	_, err := f.auth.Signup(ctx, services.SignupRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Next:    StepVerifyOTP,
		Email:   in.Email,
		Level:   services.LevelSuccess,
		Message: "OTP sent to your email",
	}, nil
}

func (f *Form) forgotPassword(ctx context.Context, in Input) (Outcome, error) {
	left, err := f.auth.ForgotPassword(ctx, in.Email)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Next: StepStay, AttemptsLeft: left, Level: services.LevelSuccess}
	if left == nil {
		out.Message = "Password reset link sent to your email"
		return out, nil
	}
	if *left <= 1 {
		out.Level = services.LevelWarning
	}
	out.Message = fmt.Sprintf("Password reset link sent. Attempts left today: %d", *left)
	return out, nil
}
