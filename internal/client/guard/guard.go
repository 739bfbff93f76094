// Package guard decides whether the protected dashboard may be shown.
package guard

import (
	"sync"

	"github.com/dmitrijs2005/swpa/internal/client/services"
)

type Decision int

const (
	// Suspend: state is still being restored or a call is outstanding.
	Suspend Decision = iota
	// RedirectEntry: no session, go to the login screen.
	RedirectEntry
	// RedirectVerify: the identity is not verified, go to the OTP step.
	RedirectVerify
	Allow
)

func (d Decision) String() string {
	switch d {
	case Suspend:
		return "suspend"
	case RedirectEntry:
		return "redirect-entry"
	case RedirectVerify:
		return "redirect-verify"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Evaluate is a pure function of the manager state.
func Evaluate(s services.Snapshot) Decision {
	switch {
	case s.State == services.StateLoading || s.Busy:
		return Suspend
	case !s.Authenticated():
		return RedirectEntry
	case !s.Identity.EmailVerified:
		return RedirectVerify
	default:
		return Allow
	}
}

// Source is what Watch observes; *services.AuthManager implements it.
type Source interface {
	Snapshot() services.Snapshot
	Subscribe(fn func(services.Snapshot)) func()
}

// Watch calls fn with the current decision and again each time the decision
// changes, timer-driven expiry included. The returned func stops watching.
//
// Listeners may be handed snapshots out of order, so every notification
// re-reads src and evaluates that. fn runs under Watch's lock and must not
// change src.
func Watch(src Source, fn func(Decision, services.Snapshot)) func() {
	var (
		mu   sync.Mutex
		last Decision
		seen bool
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		s := src.Snapshot()
		d := Evaluate(s)
		if seen && d == last {
			return
		}
		seen, last = true, d
		fn(d, s)
	}

	stop := src.Subscribe(func(services.Snapshot) { report() })
	report()
	return stop
}
