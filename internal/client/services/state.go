package services

import (
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
)

// State is the observable authentication state of the client.
type State int

const (
	// StateLoading holds until Restore has finished.
	StateLoading State = iota
	StateUnauthenticated
	StatePendingVerification
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StatePendingVerification:
		return "pending-verification"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the manager state.
type Snapshot struct {
	State State

	// Identity and ExpiresAt are set only in StateAuthenticated.
	Identity  *models.Identity
	ExpiresAt time.Time

	// Pending is set only in StatePendingVerification.
	Pending *models.PendingVerification

	// Busy is true while at least one remote call is outstanding.
	Busy bool
}

// Authenticated reports whether the snapshot holds a session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short user-facing message about a session event.
type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
