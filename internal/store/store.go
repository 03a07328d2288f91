package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"kwdetect/internal/logging"
)

// Store manages snapshot persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	now    func() time.Time
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger    *slog.Logger
	exclusive bool
	now       func() time.Time
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) { o.logger = logger }
}

// WithExclusiveLock acquires an advisory lock at <path>.lock for the life of
// the store. Open fails with ErrLocked when another process holds it.
func WithExclusiveLock() Option {
	return func(o *openOptions) { o.exclusive = true }
}

// WithClock overrides the timestamp source used for new snapshots.
func WithClock(now func() time.Time) Option {
	return func(o *openOptions) { o.now = now }
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the snapshot database at path.
func Open(path string, opts ...Option) (*Store, error) {
	options := openOptions{now: time.Now}
	for _, opt := range opts {
		opt(&options)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snapshot store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	store := &Store{
		path:   path,
		logger: logging.NewComponentLogger(options.logger, "store"),
		now:    options.now,
	}

	if options.exclusive {
		lock := flock.New(path + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire store lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
		}
		store.lock = lock
	}

	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		store.unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	store.db = db
	if err := db.Ping(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}

	if err := store.initSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}

	store.logger.Debug("snapshot store opened", logging.String("path", path), logging.Bool("exclusive", options.exclusive))
	return store, nil
}

// pragmas are applied by the driver to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func dataSourceName(path string) string {
	params := url.Values{}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	return "file:" + path + "?" + params.Encode()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and releases the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	s.unlock()
	return err
}

func (s *Store) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release store lock", logging.Error(err))
	}
	s.lock = nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
