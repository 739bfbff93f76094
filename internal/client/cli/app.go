package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/authflow"
	"github.com/dmitrijs2005/swpa/internal/client/client"
	"github.com/dmitrijs2005/swpa/internal/client/config"
	"github.com/dmitrijs2005/swpa/internal/client/guard"
	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/services"
	"github.com/dmitrijs2005/swpa/internal/client/session"
	"github.com/dmitrijs2005/swpa/internal/logging"
)

type App struct {
	config *config.Config
	auth   services.AuthService
	form   *authflow.Form
	db     *sql.DB
	log    logging.Logger
	con    *console
	reader *bufio.Reader
	fields []models.PatchField
	now    func() time.Time

	mu       sync.Mutex
	otp      *authflow.OTPStep
	decision guard.Decision
}

// NewApp opens the session database, builds the API client and the auth
// manager. When the database cannot be opened the session is kept in memory
// only and the app still starts.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	fields, err := c.PatchFields()
	if err != nil {
		return nil, err
	}

	var store session.Store
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Warn(ctx, "session database unavailable, session will not survive restart", "path", c.DatabasePath, "error", err)
		store = session.NewMemoryStore()
	} else {
		store = session.NewSQLiteStore(db, log)
	}

	apiClient := client.NewHTTPClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log),
	)

	con := newConsole(os.Stdout)
	auth := services.NewAuthManager(apiClient,
		services.WithStore(store),
		services.WithLogger(log),
		services.WithNotifier(con),
		services.WithPatchFields(fields),
		services.WithSessionDuration(c.SessionDuration),
	)

	a := newApp(auth, con, bufio.NewReader(os.Stdin))
	a.config = c
	a.db = db
	a.log = log.With("component", "cli")
	a.fields = fields
	return a, nil
}

func newApp(auth services.AuthService, con *console, reader *bufio.Reader) *App {
	return &App{
		auth:     auth,
		form:     authflow.NewForm(auth),
		log:      logging.Nop{},
		con:      con,
		reader:   reader,
		fields:   models.DefaultPatchFields,
		now:      time.Now,
		decision: guard.Suspend,
	}
}

// Run restores the saved session, starts watching route decisions and
// blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.auth.Restore(ctx)
	stop := guard.Watch(a.auth, a.onDecision)
	defer stop()

	a.con.Println("Welcome to SWPA CLI (type 'help' for commands)")
	if a.isLoggedIn() {
		_ = a.Dashboard(ctx)
	}

	runREPL(ctx, a, a.status, a.reader, a.con.Println)
}

// Close releases the auth manager and the session database.
func (a *App) Close() {
	ctx := context.Background()

	a.mu.Lock()
	if a.otp != nil {
		a.otp.Close()
		a.otp = nil
	}
	a.mu.Unlock()
	a.form.Close()

	if err := a.auth.Close(); err != nil {
		a.log.Warn(ctx, "closing auth manager", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(ctx, "closing database", "error", err)
		}
	}
}

func (a *App) onDecision(d guard.Decision, s services.Snapshot) {
	a.mu.Lock()
	prev := a.decision
	a.decision = d
	a.mu.Unlock()

	a.log.Debug(context.Background(), "route decision", "decision", d.String(), "state", s.State.String())

	// Leaving the dashboard without a session: expiry or logout.
	if prev == guard.Allow && d == guard.RedirectEntry {
		a.con.Println("Please login to continue.")
	}
}

func (a *App) isLoggedIn() bool {
	return guard.Evaluate(a.auth.Snapshot()) == guard.Allow
}

func (a *App) isPending() bool {
	return a.auth.Snapshot().Pending != nil
}

func (a *App) status() string {
	s := a.auth.Snapshot()
	switch {
	case s.Authenticated():
		return fmt.Sprintf("(%s)", s.Identity.Email)
	case s.Pending != nil:
		return fmt.Sprintf("(%s, unverified)", s.Pending.Email)
	default:
		return ""
	}
}
