// Package services contains application services for the SWPA client.
// This file defines the auth session manager: login, sign-up with email OTP
// verification, password recovery and change, and the time-bounded session
// that ends on logout or expiry.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/client"
	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/session"
	"github.com/dmitrijs2005/swpa/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Restore: adopt a persisted, still-valid session at startup.
//   - Login / Signup / VerifyOTP: enter the authenticated or
//     pending-verification state.
//   - ResendOTP / ForgotPassword: return the server-reported attempts left.
//   - ChangePassword / UpdateProfile: require a session.
//   - Logout: end the session; never fails.
//   - Snapshot / Subscribe: read-only view of the state and its changes.
type AuthService interface {
	Restore(ctx context.Context)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Signup(ctx context.Context, req SignupRequest) (models.PendingVerification, error)
	VerifyOTP(ctx context.Context, email, code string) (models.Identity, error)
	ResendOTP(ctx context.Context, email string) (*int, error)
	ForgotPassword(ctx context.Context, email string) (*int, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (time.Time, error)
	UpdateIdentity(ctx context.Context, patch models.IdentityPatch)
	UpdateProfile(ctx context.Context, patch models.IdentityPatch) (models.Identity, error)
	Logout(ctx context.Context)
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (unsubscribe func())
	Close() error
}

type LoginResult struct {
	Identity      models.Identity
	EmailVerified bool
}

type SignupRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthManager is the single owner of the Session and the Pending
// Verification. Remote calls run without holding the lock; store writes and
// timer arming happen under it so memory and storage never disagree.
type AuthManager struct {
	client   client.Client
	store    session.Store
	timer    *session.Timer
	now      func() time.Time
	log      logging.Logger
	notifier Notifier
	fields   []models.PatchField
	duration time.Duration

	mu      sync.Mutex
	state   State
	session *models.Session
	pending *models.PendingVerification
	busy    int
	// epoch changes whenever a session starts or ends; an expiry callback
	// armed for an older epoch is ignored.
	epoch uint64

	listeners map[int]func(Snapshot)
	nextID    int
}

var _ AuthService = (*AuthManager)(nil)

type Option func(*AuthManager)

func WithStore(s session.Store) Option {
	return func(m *AuthManager) {
		if s != nil {
			m.store = s
		}
	}
}

func WithTimer(t *session.Timer) Option {
	return func(m *AuthManager) {
		if t != nil {
			m.timer = t
		}
	}
}

// WithClock replaces time.Now. The timer should share the same clock.
func WithClock(now func() time.Time) Option {
	return func(m *AuthManager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(m *AuthManager) {
		if l != nil {
			m.log = l
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *AuthManager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithPatchFields sets the profile fields the client may change.
func WithPatchFields(fields []models.PatchField) Option {
	return func(m *AuthManager) {
		if fields != nil {
			m.fields = append([]models.PatchField(nil), fields...)
		}
	}
}

// WithSessionDuration overrides models.SessionDuration.
func WithSessionDuration(d time.Duration) Option {
	return func(m *AuthManager) {
		if d > 0 {
			m.duration = d
		}
	}
}

// NewAuthManager constructs a manager in StateLoading. Call Restore before
// making any routing decision.
func NewAuthManager(c client.Client, opts ...Option) *AuthManager {
	m := &AuthManager{
		client:    c,
		store:     session.NewMemoryStore(),
		now:       time.Now,
		log:       logging.Nop{},
		notifier:  nopNotifier{},
		fields:    models.DefaultPatchFields,
		duration:  models.SessionDuration,
		state:     StateLoading,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timer == nil {
		m.timer = session.NewTimer(session.WithClock(m.now))
	}
	m.log = m.log.With("component", "auth_manager")
	return m
}

// Restore applies the startup rule: an active persisted session is adopted
// and its timer armed for the remaining time; an expired one is cleared with
// a notice; otherwise the client is unauthenticated. It runs once.
func (m *AuthManager) Restore(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateLoading {
		m.mu.Unlock()
		return
	}

	var notices []Notice
	stored, ok := m.store.Load(ctx)
	now := m.now()

	switch {
	case !ok:
		m.state = StateUnauthenticated
	case !stored.Identity.EmailVerified:
		m.log.Warn(ctx, "discarding stored session of unverified identity", "email", stored.Identity.Email)
		m.clearStoreLocked(ctx)
		m.state = StateUnauthenticated
	case stored.Active(now):
		m.adoptLocked(stored)
		m.log.Info(ctx, "session restored", "email", stored.Identity.Email, "expires_at", stored.ExpiresAt)
	default:
		m.clearStoreLocked(ctx)
		m.state = StateUnauthenticated
		notices = append(notices, Notice{Level: LevelWarning, Message: SessionExpiredMessage})
		m.log.Info(ctx, "stored session expired", "expired_at", stored.ExpiresAt)
	}
	m.mu.Unlock()

	m.publish(notices...)
}

// Login authenticates against the API. A verified account starts a new
// session; an unverified one moves to pending verification for email.
func (m *AuthManager) Login(ctx context.Context, email, password string) (LoginResult, error) {
	defer m.begin()()

	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return LoginResult{}, m.fail(ctx, "login", err)
	}

	identity := resp.User.Clone()
	res := LoginResult{Identity: identity, EmailVerified: resp.IsEmailVerified}

	m.mu.Lock()
	if resp.IsEmailVerified {
		identity.EmailVerified = true
		res.Identity = identity
		m.startSessionLocked(ctx, identity)
	} else {
		m.endSessionLocked(ctx)
		m.pending = &models.PendingVerification{Email: email}
		m.state = StatePendingVerification
	}
	m.mu.Unlock()

	m.log.Info(ctx, "login succeeded", "email", email, "verified", resp.IsEmailVerified)
	m.publish()
	return res, nil
}

// Signup registers an account; the result is the pending verification the
// OTP step completes.
func (m *AuthManager) Signup(ctx context.Context, req SignupRequest) (models.PendingVerification, error) {
	defer m.begin()()

	resp, err := m.client.Signup(ctx, client.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return models.PendingVerification{}, m.fail(ctx, "signup", err)
	}

	pending := models.PendingVerification{Email: resp.Email}

	m.mu.Lock()
	m.endSessionLocked(ctx)
	m.pending = &pending
	m.state = StatePendingVerification
	m.mu.Unlock()

	m.log.Info(ctx, "signup succeeded", "email", resp.Email)
	m.publish()
	return pending, nil
}

// VerifyOTP confirms the emailed code and starts a session with the
// identity the server returns. A reply whose identity is still unverified
// is rejected.
func (m *AuthManager) VerifyOTP(ctx context.Context, email, code string) (models.Identity, error) {
	defer m.begin()()

	identity, err := m.client.VerifyOTP(ctx, email, code)
	if err != nil {
		return models.Identity{}, m.fail(ctx, "verify-otp", err)
	}
	if !identity.EmailVerified {
		m.log.Warn(ctx, "server returned unverified identity after otp", "email", email)
		return models.Identity{}, &OpError{Op: "verify-otp", Message: GenericMessage, Err: ErrNotVerified}
	}

	m.mu.Lock()
	m.startSessionLocked(ctx, identity)
	m.mu.Unlock()

	m.log.Info(ctx, "email verified", "email", email)
	m.publish(Notice{Level: LevelSuccess, Message: "Email verified successfully!"})
	return identity.Clone(), nil
}

// ResendOTP asks for a fresh code and returns the resends left today, nil
// when the server did not say.
func (m *AuthManager) ResendOTP(ctx context.Context, email string) (*int, error) {
	defer m.begin()()

	resp, err := m.client.ResendOTP(ctx, email)
	if err != nil {
		return nil, m.fail(ctx, "resend-otp", err)
	}

	m.mu.Lock()
	if m.pending != nil && m.pending.Email == email {
		m.pending.ResendsLeft = copyInt(resp.AttemptsLeft)
	}
	m.mu.Unlock()

	m.publish()
	return copyInt(resp.AttemptsLeft), nil
}

// ForgotPassword starts password recovery for email and returns the
// attempts left today.
func (m *AuthManager) ForgotPassword(ctx context.Context, email string) (*int, error) {
	defer m.begin()()

	resp, err := m.client.ForgotPassword(ctx, email)
	if err != nil {
		return nil, m.fail(ctx, "forgot-password", err)
	}
	return copyInt(resp.AttemptsLeft), nil
}

// ChangePassword changes the password of the session's account and records
// the server's timestamp on the identity. The expiry stays as it was.
func (m *AuthManager) ChangePassword(ctx context.Context, oldPassword, newPassword string) (time.Time, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return time.Time{}, ErrNoSession
	}
	email, epoch := m.session.Identity.Email, m.epoch
	m.mu.Unlock()

	defer m.begin()()

	changedAt, err := m.client.ChangePassword(ctx, client.ChangePasswordRequest{
		Email:       email,
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		return time.Time{}, m.fail(ctx, "change-password", err)
	}

	m.mu.Lock()
	if m.session != nil && m.epoch == epoch {
		at := changedAt
		m.session.Identity.LastPasswordChangedAt = &at
		m.persistLocked(ctx)
	}
	m.mu.Unlock()

	m.publish(Notice{Level: LevelSuccess, Message: "Password updated successfully"})
	return changedAt, nil
}

// UpdateIdentity merges the whitelisted fields of patch into the session's
// identity and persists it. Without a session it does nothing.
func (m *AuthManager) UpdateIdentity(ctx context.Context, patch models.IdentityPatch) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.Identity = patch.Apply(m.session.Identity, m.fields)
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.publish()
}

// UpdateProfile sends the whitelisted fields of patch to the API and adopts
// the server's values for them.
func (m *AuthManager) UpdateProfile(ctx context.Context, patch models.IdentityPatch) (models.Identity, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return models.Identity{}, ErrNoSession
	}
	current, epoch := m.session.Identity.Clone(), m.epoch
	m.mu.Unlock()

	allowed := patch.Restrict(m.fields)
	if allowed.IsEmpty() {
		return current, nil
	}

	defer m.begin()()

	server, err := m.client.UpdateProfile(ctx, client.UpdateProfileRequest{
		Email:  current.Email,
		Name:   allowed.Name,
		Phone:  allowed.Phone,
		Avatar: allowed.Avatar,
	})
	if err != nil {
		return models.Identity{}, m.fail(ctx, "update-profile", err)
	}

	// Servers that answer without the user still accepted the request.
	applied := allowed
	if server.ID != "" {
		applied = models.PatchFrom(server, m.fields)
	}

	m.mu.Lock()
	if m.session == nil || m.epoch != epoch {
		m.mu.Unlock()
		return models.Identity{}, ErrNoSession
	}
	m.session.Identity = applied.Apply(m.session.Identity, m.fields)
	m.persistLocked(ctx)
	updated := m.session.Identity.Clone()
	m.mu.Unlock()

	m.publish(Notice{Level: LevelSuccess, Message: "Profile updated successfully"})
	return updated, nil
}

// Logout ends the session and any pending verification. Calling it with
// nothing to end changes nothing, storage included.
func (m *AuthManager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.session == nil && m.pending == nil {
		m.mu.Unlock()
		return
	}
	m.endSessionLocked(ctx)
	m.pending = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	m.log.Info(ctx, "logged out")
	m.publish()
}

func (m *AuthManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
func (m *AuthManager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Close disarms the session timer and releases the API client.
func (m *AuthManager) Close() error {
	m.timer.Cancel()
	return m.client.Close()
}

func (m *AuthManager) expire(epoch uint64) {
	ctx := context.Background()

	m.mu.Lock()
	if m.session == nil || m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	email := m.session.Identity.Email
	m.endSessionLocked(ctx)
	m.state = StateUnauthenticated
	m.mu.Unlock()

	m.log.Info(ctx, "session expired", "email", email)
	m.publish(Notice{Level: LevelWarning, Message: SessionExpiredMessage})
}

func (m *AuthManager) startSessionLocked(ctx context.Context, identity models.Identity) {
	s := models.Session{Identity: identity.Clone(), ExpiresAt: m.now().Add(m.duration)}
	if err := m.store.Save(ctx, s.Identity, s.ExpiresAt); err != nil {
		m.log.Warn(ctx, "session not persisted", "error", err)
	}
	m.adoptLocked(s)
}

func (m *AuthManager) adoptLocked(s models.Session) {
	m.epoch++
	m.session = &s
	m.pending = nil
	m.state = StateAuthenticated

	epoch := m.epoch
	m.timer.Arm(s.ExpiresAt, func() { m.expire(epoch) })
}

// endSessionLocked drops the current session, if any, without changing state.
func (m *AuthManager) endSessionLocked(ctx context.Context) {
	if m.session == nil {
		return
	}
	m.epoch++
	m.session = nil
	m.timer.Cancel()
	m.clearStoreLocked(ctx)
}

func (m *AuthManager) persistLocked(ctx context.Context) {
	if err := m.store.Save(ctx, m.session.Identity, m.session.ExpiresAt); err != nil {
		m.log.Warn(ctx, "session update not persisted", "error", err)
	}
}

func (m *AuthManager) clearStoreLocked(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "session store not cleared", "error", err)
	}
}

// begin marks a remote call as outstanding; the returned func ends it.
func (m *AuthManager) begin() func() {
	m.mu.Lock()
	m.busy++
	m.mu.Unlock()
	m.publish()

	return func() {
		m.mu.Lock()
		m.busy--
		m.mu.Unlock()
		m.publish()
	}
}

func (m *AuthManager) fail(ctx context.Context, op string, err error) error {
	opErr := newOpError(op, err)
	m.log.Info(ctx, "auth operation failed", "op", op, "error", err)
	return opErr
}

func (m *AuthManager) snapshotLocked() Snapshot {
	s := Snapshot{State: m.state, Busy: m.busy > 0}
	if m.session != nil {
		id := m.session.Identity.Clone()
		s.Identity = &id
		s.ExpiresAt = m.session.ExpiresAt
	}
	if m.pending != nil {
		p := models.PendingVerification{Email: m.pending.Email, ResendsLeft: copyInt(m.pending.ResendsLeft)}
		s.Pending = &p
	}
	return s
}

// publish delivers notices, then the current snapshot to every listener,
// outside the lock.
func (m *AuthManager) publish(notices ...Notice) {
	for _, n := range notices {
		m.notifier.Notify(n)
	}

	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
