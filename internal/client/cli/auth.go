package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/swpa/internal/client/authflow"
	"github.com/dmitrijs2005/swpa/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and submits the login form. A verified
// account lands on the dashboard; an unverified one continues with the OTP.
func (a *App) Login(ctx context.Context) error {
	if err := a.form.SetMode(authflow.ModeLogin); err != nil {
		return a.report(err)
	}

	email, err := getSimpleText(a.reader, "Enter email", a.con)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password: ", a.con)
	if err != nil {
		return err
	}

	return a.submit(ctx, authflow.Input{Email: email, Password: password})
}

// Signup collects the registration fields and, on success, asks for the
// emailed OTP.
func (a *App) Signup(ctx context.Context) error {
	if err := a.form.SetMode(authflow.ModeSignup); err != nil {
		return a.report(err)
	}

	var in authflow.Input
	var err error
	if in.Name, err = getSimpleText(a.reader, "Enter full name", a.con); err != nil {
		return err
	}
	if in.Email, err = getSimpleText(a.reader, "Enter email", a.con); err != nil {
		return err
	}
	if in.Phone, err = getSimpleText(a.reader, "Enter mobile number", a.con); err != nil {
		return err
	}
	if in.Password, err = getPassword("Enter password: ", a.con); err != nil {
		return err
	}
	if in.ConfirmPassword, err = getPassword("Confirm password: ", a.con); err != nil {
		return err
	}

	return a.submit(ctx, in)
}

// Forgot requests a password reset link.
func (a *App) Forgot(ctx context.Context) error {
	if err := a.form.SetMode(authflow.ModeForgotPassword); err != nil {
		return a.report(err)
	}

	email, err := getSimpleText(a.reader, "Enter email", a.con)
	if err != nil {
		return err
	}

	return a.submit(ctx, authflow.Input{Email: email})
}

func (a *App) submit(ctx context.Context, in authflow.Input) error {
	out, err := a.form.Submit(ctx, in)
	if err != nil {
		return a.report(err)
	}
	return a.follow(ctx, out)
}

// follow shows the outcome message and moves to the screen it names.
func (a *App) follow(ctx context.Context, out authflow.Outcome) error {
	a.con.Notify(services.Notice{Level: out.Level, Message: out.Message})

	switch out.Next {
	case authflow.StepVerifyOTP:
		return a.Verify(ctx)
	case authflow.StepDashboard:
		return a.Dashboard(ctx)
	default:
		return nil
	}
}

// Verify asks for the OTP of the pending verification and, once the email
// is confirmed, opens the dashboard.
func (a *App) Verify(ctx context.Context) error {
	step, err := a.otpStep()
	if err != nil {
		return a.report(err)
	}

	code, err := getSimpleText(a.reader, "Enter the OTP sent to "+step.Email()+" (or 'resend' for a new one)", a.con)
	if err != nil {
		return err
	}
	if code == "resend" {
		return a.Resend(ctx)
	}

	if _, err := step.Verify(ctx, code); err != nil {
		return a.report(err)
	}

	a.dropOTP()
	return a.Dashboard(ctx)
}

// Resend asks the server for a fresh OTP.
func (a *App) Resend(ctx context.Context) error {
	step, err := a.otpStep()
	if err != nil {
		return a.report(err)
	}

	out, err := step.Resend(ctx)
	if err != nil {
		return a.report(err)
	}
	a.con.Notify(services.Notice{Level: out.Level, Message: out.Message})
	return nil
}

// Logout ends the session and any pending verification.
func (a *App) Logout(ctx context.Context) error {
	a.dropOTP()
	a.auth.Logout(ctx)
	a.con.Println("Logged out.")
	return nil
}

// otpStep returns the OTP step for the current pending verification, or for
// an unverified identity, creating it on first use. Without either it fails
// with authflow.ErrInvalidVerificationRequest.
func (a *App) otpStep() (*authflow.OTPStep, error) {
	s := a.auth.Snapshot()

	var (
		email string
		left  *int
	)
	switch {
	case s.Pending != nil:
		email, left = s.Pending.Email, s.Pending.ResendsLeft
	case s.Identity != nil && !s.Identity.EmailVerified:
		email = s.Identity.Email
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp != nil && email != "" && a.otp.Email() == email {
		return a.otp, nil
	}
	if a.otp != nil {
		a.otp.Close()
		a.otp = nil
	}

	step, err := authflow.NewOTPStep(a.auth, email, left)
	if err != nil {
		return nil, err
	}
	a.otp = step
	return step, nil
}

func (a *App) dropOTP() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.otp != nil {
		a.otp.Close()
		a.otp = nil
	}
}

// report prints err for the user and returns it.
func (a *App) report(err error) error {
	if msg := describe(err); msg != "" {
		a.con.Notify(services.Notice{Level: services.LevelError, Message: msg})
	}
	return err
}

// describe maps an error to the text shown to the user.
func describe(err error) string {
	var ve *authflow.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, authflow.ErrDiscarded), errors.Is(err, io.EOF):
		return ""
	case errors.Is(err, authflow.ErrSubmitInFlight):
		return "Please wait, a request is in progress."
	case errors.Is(err, authflow.ErrInvalidVerificationRequest):
		return authflow.MsgInvalidVerification
	case errors.Is(err, authflow.ErrResendExhausted):
		return authflow.MsgResendExhausted
	default:
		return services.UserMessage(err)
	}
}
