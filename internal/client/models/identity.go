// Package models defines client-side data models used by the SWPA CLI:
// the authenticated Identity, the Session that holds it, and the transient
// PendingVerification of an account awaiting its email OTP.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionDuration is the fixed lifetime of a freshly started session.
const SessionDuration = time.Hour

// Identity is the authenticated user's profile as known to the client.
// JSON field names follow the remote identity API.
type Identity struct {
	// ID is the server-assigned unique identifier.
	ID string `json:"_id"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	// Avatar is an optional reference (URL or asset key) to the profile image.
	Avatar string `json:"avatar,omitempty"`

	// EmailVerified is owned by the server and never patched locally.
	EmailVerified bool `json:"isEmailVerified"`

	// LastPasswordChangedAt is nil until the password has been changed once.
	LastPasswordChangedAt *time.Time `json:"lastPasswordChangedAt,omitempty"`
}

// Clone returns a deep copy of the identity.
func (i Identity) Clone() Identity {
	c := i
	if i.LastPasswordChangedAt != nil {
		t := *i.LastPasswordChangedAt
		c.LastPasswordChangedAt = &t
	}
	return c
}

// Session is the fact that an Identity is currently trusted, with an
// absolute expiry that never moves once set.
type Session struct {
	Identity  Identity
	ExpiresAt time.Time
}

// NewSession starts a session at now lasting SessionDuration.
func NewSession(identity Identity, now time.Time) Session {
	return Session{Identity: identity.Clone(), ExpiresAt: now.Add(SessionDuration)}
}

// Active reports whether the session is still valid at now.
func (s Session) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Remaining returns how long the session has left at now (zero when expired).
func (s Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// PendingVerification describes a sign-up or login waiting for the email OTP.
type PendingVerification struct {
	Email string

	// ResendsLeft is the server-reported resend budget for today;
	// nil until the server has reported one.
	ResendsLeft *int
}

// PatchField names an Identity field that may be patched from the client.
type PatchField string

const (
	FieldName   PatchField = "name"
	FieldPhone  PatchField = "phone"
	FieldAvatar PatchField = "avatar"
)

// DefaultPatchFields is the whitelist used when none is configured.
var DefaultPatchFields = []PatchField{FieldName, FieldPhone}

var ErrUnknownPatchField = errors.New("unknown profile field")

// ParsePatchFields converts configured field names into a whitelist.
// Blank entries are skipped; unknown names are rejected.
func ParsePatchFields(names []string) ([]PatchField, error) {
	fields := make([]PatchField, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		switch f := PatchField(n); f {
		case FieldName, FieldPhone, FieldAvatar:
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownPatchField, n)
		}
	}
	return fields, nil
}

// IdentityPatch carries the client-editable subset of Identity.
// A nil pointer leaves the field untouched.
type IdentityPatch struct {
	Name   *string
	Phone  *string
	Avatar *string
}

// IsEmpty reports whether the patch changes nothing.
func (p IdentityPatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Avatar == nil
}

// Restrict drops every field that is not in allowed.
func (p IdentityPatch) Restrict(allowed []PatchField) IdentityPatch {
	var out IdentityPatch
	for _, f := range allowed {
		switch f {
		case FieldName:
			out.Name = p.Name
		case FieldPhone:
			out.Phone = p.Phone
		case FieldAvatar:
			out.Avatar = p.Avatar
		}
	}
	return out
}

// Apply merges the whitelisted part of the patch into a copy of identity.
// ID, Email, EmailVerified and LastPasswordChangedAt are never touched.
func (p IdentityPatch) Apply(identity Identity, allowed []PatchField) Identity {
	out := identity.Clone()
	r := p.Restrict(allowed)
	if r.Name != nil {
		out.Name = *r.Name
	}
	if r.Phone != nil {
		out.Phone = *r.Phone
	}
	if r.Avatar != nil {
		out.Avatar = *r.Avatar
	}
	return out
}

// PatchFrom builds a patch carrying the allowed fields of a server identity.
func PatchFrom(identity Identity, allowed []PatchField) IdentityPatch {
	name, phone, avatar := identity.Name, identity.Phone, identity.Avatar
	return IdentityPatch{Name: &name, Phone: &phone, Avatar: &avatar}.Restrict(allowed)
}
