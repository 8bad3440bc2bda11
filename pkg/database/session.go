package database

import (
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
)

// ErrStoreUnavailable is returned by every operation when the session holds no
// live connection pool.
var ErrStoreUnavailable = errors.New("store unavailable")

// Session owns the active connection pool. It is constructed explicitly and
// passed to the services that need it; switching environments goes through
// Reconnect.
type Session struct {
	mu  sync.RWMutex
	db  *sqlx.DB
	cfg Config

	// writer serializes write transactions inside this process.
	writer sync.Mutex
	// inflight is held shared by every running transaction. Reconnect and
	// Close take it exclusively before closing a retired pool.
	inflight sync.RWMutex
}

// Open connects using cfg and returns a ready session.
func Open(cfg Config) (*Session, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{db: db, cfg: cfg}, nil
}

// NewSession wraps an already opened pool.
func NewSession(db *sqlx.DB) *Session {
	return &Session{db: db}
}

// DB returns the active pool or ErrStoreUnavailable.
func (s *Session) DB() (*sqlx.DB, error) {
	if s == nil {
		return nil, ErrStoreUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	return s.db, nil
}

// Config returns the configuration of the last successful Open or Reconnect.
func (s *Session) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Reconnect opens a pool for cfg and swaps it in. Transactions already
// running on the previous pool finish before it is closed; on failure the
// session keeps its current pool.
func (s *Session) Reconnect(cfg Config) error {
	db, err := Connect(cfg)
	if err != nil {
		return err
	}
	s.writer.Lock()
	s.mu.Lock()
	old := s.db
	s.db = db
	s.cfg = cfg
	s.mu.Unlock()
	s.writer.Unlock()
	return s.retire(old)
}

// retire waits for in-flight transactions and closes db.
func (s *Session) retire(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	s.inflight.Lock()
	s.inflight.Unlock()
	return db.Close()
}

// Close releases the pool once running transactions finish. Later calls fail
// with ErrStoreUnavailable.
func (s *Session) Close() error {
	s.mu.Lock()
	old := s.db
	s.db = nil
	s.mu.Unlock()
	return s.retire(old)
}
