package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/authflow"
	"github.com/dmitrijs2005/swpa/internal/client/guard"
	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/services"
)

// Dashboard is the protected screen. What it shows is decided by the route
// guard: nothing while loading, a login hint without a session, the OTP
// step for an unverified identity, the profile otherwise.
func (a *App) Dashboard(ctx context.Context) error {
	s := a.auth.Snapshot()

	switch guard.Evaluate(s) {
	case guard.Suspend:
		a.con.Println("Loading...")
	case guard.RedirectEntry:
		if s.Pending != nil {
			a.con.Printf("Email %s is not verified yet. Type 'verify' to enter the OTP.\n", s.Pending.Email)
			return nil
		}
		a.con.Println("Please login to continue.")
	case guard.RedirectVerify:
		return a.Verify(ctx)
	case guard.Allow:
		a.printProfile(s)
	}
	return nil
}

func (a *App) printProfile(s services.Snapshot) {
	id := s.Identity

	var b strings.Builder
	fmt.Fprintf(&b, "Name:   %s\n", id.Name)
	fmt.Fprintf(&b, "Email:  %s\n", id.Email)
	fmt.Fprintf(&b, "Phone:  %s\n", id.Phone)
	if id.Avatar != "" {
		fmt.Fprintf(&b, "Avatar: %s\n", id.Avatar)
	}
	if id.LastPasswordChangedAt != nil {
		fmt.Fprintf(&b, "Password last changed: %s\n", id.LastPasswordChangedAt.Local().Format(time.DateTime))
	} else {
		b.WriteString("Password last changed: never\n")
	}
	left := models.Session{Identity: *id, ExpiresAt: s.ExpiresAt}.Remaining(a.now())
	fmt.Fprintf(&b, "Session expires in %s", left.Round(time.Second))

	a.con.Println(b.String())
}

// Status prints the authentication state and, with a session, the time
// left before it expires.
func (a *App) Status(ctx context.Context) error {
	s := a.auth.Snapshot()

	switch {
	case s.Authenticated():
		left := s.ExpiresAt.Sub(a.now())
		if left < 0 {
			left = 0
		}
		a.con.Printf("State: %s as %s, session expires in %s\n", s.State, s.Identity.Email, left.Round(time.Second))
	case s.Pending != nil:
		a.con.Printf("State: %s for %s\n", s.State, s.Pending.Email)
	default:
		a.con.Printf("State: %s\n", s.State)
	}
	return nil
}

// EditProfile prompts for each editable field; an empty answer keeps the
// current value.
func (a *App) EditProfile(ctx context.Context) error {
	s := a.auth.Snapshot()
	if guard.Evaluate(s) != guard.Allow {
		return a.Dashboard(ctx)
	}

	var patch models.IdentityPatch
	for _, f := range a.fields {
		current := fieldValue(*s.Identity, f)
		v, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s] (empty keeps current)", fieldLabel(f), current), a.con)
		if err != nil {
			return err
		}
		if v == "" || v == current {
			continue
		}
		val := v
		switch f {
		case models.FieldName:
			patch.Name = &val
		case models.FieldPhone:
			patch.Phone = &val
		case models.FieldAvatar:
			patch.Avatar = &val
		}
	}

	if patch.IsEmpty() {
		a.con.Println("Nothing to update.")
		return nil
	}
	if err := authflow.ValidateProfile(patch); err != nil {
		return a.report(err)
	}
	if _, err := a.auth.UpdateProfile(ctx, patch); err != nil {
		return a.report(err)
	}
	return nil
}

// ChangePassword asks for the current password and the new one twice.
func (a *App) ChangePassword(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.Dashboard(ctx)
	}

	oldPassword, err := getPassword("Current password: ", a.con)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("New password: ", a.con)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Confirm new password: ", a.con)
	if err != nil {
		return err
	}

	if err := authflow.ValidatePasswordChange(newPassword, confirm); err != nil {
		return a.report(err)
	}
	if _, err := a.auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return a.report(err)
	}
	return nil
}

func fieldValue(id models.Identity, f models.PatchField) string {
	switch f {
	case models.FieldName:
		return id.Name
	case models.FieldPhone:
		return id.Phone
	case models.FieldAvatar:
		return id.Avatar
	default:
		return ""
	}
}

func fieldLabel(f models.PatchField) string {
	switch f {
	case models.FieldName:
		return "Full name"
	case models.FieldPhone:
		return "Mobile number"
	case models.FieldAvatar:
		return "Avatar URL"
	default:
		return string(f)
	}
}
