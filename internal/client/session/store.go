// Package session keeps the client's authenticated session across restarts
// and schedules its automatic end.
//
// Store persists exactly two values, the serialized identity and the absolute
// expiry instant, and always writes or clears them together. Timer arms a
// single cancelable wake-up at the expiry instant.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
	"github.com/dmitrijs2005/swpa/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/swpa/internal/dbx"
	"github.com/dmitrijs2005/swpa/internal/logging"
)

// Keys of the persisted session values.
const (
	KeyIdentity = "current-identity"
	KeyExpiry   = "session-expiry"
)

// Store is durable persistence for one session.
//
// Load never fails: missing, partial or unreadable state is reported as
// absent. Save and Clear change both values or neither.
type Store interface {
	Save(ctx context.Context, identity models.Identity, expiresAt time.Time) error
	Load(ctx context.Context) (models.Session, bool)
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the session in the metadata table of the client database.
type SQLiteStore struct {
	db  *sql.DB
	log logging.Logger
}

func NewSQLiteStore(db *sql.DB, log logging.Logger) *SQLiteStore {
	if log == nil {
		log = logging.Nop{}
	}
	return &SQLiteStore{db: db, log: log.With("component", "session_store")}
}

func (s *SQLiteStore) Save(ctx context.Context, identity models.Identity, expiresAt time.Time) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	expiry := []byte(expiresAt.UTC().Format(time.RFC3339Nano))

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyIdentity, data); err != nil {
			return err
		}
		return repo.Set(ctx, KeyExpiry, expiry)
	})
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Session, bool) {
	var rawIdentity, rawExpiry []byte

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		var err error
		if rawIdentity, err = repo.Get(ctx, KeyIdentity); err != nil {
			return err
		}
		rawExpiry, err = repo.Get(ctx, KeyExpiry)
		return err
	})
	if err != nil {
		s.log.Warn(ctx, "session storage unavailable, treating as absent", "error", err)
		return models.Session{}, false
	}
	if rawIdentity == nil || rawExpiry == nil {
		return models.Session{}, false
	}

	return s.decode(ctx, rawIdentity, rawExpiry)
}

func (s *SQLiteStore) decode(ctx context.Context, rawIdentity, rawExpiry []byte) (models.Session, bool) {
	var identity models.Identity
	if err := json.Unmarshal(rawIdentity, &identity); err != nil {
		s.log.Warn(ctx, "stored identity is unreadable", "error", err)
		return models.Session{}, false
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, string(rawExpiry))
	if err != nil {
		s.log.Warn(ctx, "stored session expiry is unreadable", "error", err)
		return models.Session{}, false
	}

	return models.Session{Identity: identity, ExpiresAt: expiresAt}, true
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, KeyIdentity, KeyExpiry)
	})
}
