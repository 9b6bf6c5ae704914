package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
)

const (
	// TableExt is the extension of every table file.
	TableExt = ".json"

	// DefaultLockTimeout bounds how long a mutation waits for a table lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultFileMode is used for table files.
	DefaultFileMode os.FileMode = 0o600
)

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool

	// Lenient restores the legacy read policy: a table file that cannot be
	// decoded is logged and read as empty instead of failing with
	// core.ErrCorruptTable.
	Lenient bool

	// Codec is required when Encrypted is set or EnableEncryption is used.
	Codec     *codec.Codec
	Encrypted bool

	LockTimeout time.Duration
	FileMode    os.FileMode

	// NoCache disables the decoded-table cache. Useful when other processes
	// rewrite table files within the mtime resolution of the filesystem.
	NoCache bool

	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// Store implements core.Repository with one JSON file per table.
//
// Every mutation reads the whole table, changes it in memory and rewrites
// the whole file. Mutations take a per-table lock file and replace the table
// atomically (temp file + rename). Processes that bypass the lock can still
// lose updates.
//
// A lock file holds the PID of its owner. On Unix a lock whose owner is no
// longer running is removed on the next mutation. Elsewhere, or when the
// owner ran on another host sharing the directory, a crashed writer's lock
// stays until its ".<table>.lock" file is deleted by hand.
type Store struct {
	Path   string
	config Config
	cache  *cache
	logger *slog.Logger

	mu            sync.RWMutex
	mode          core.Mode
	watcherActive bool
}

var _ core.Repository = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)

// NewStore creates a filesystem-backed store. Call Initialize before use.
func NewStore(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("%w: store path cannot be empty", core.ErrValidation)
	}
	if config.Encrypted && config.Codec == nil {
		return nil, fmt.Errorf("%w: encryption requires a codec", core.ErrValidation)
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.FileMode == 0 {
		config.FileMode = DefaultFileMode
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mode := core.ModePlain
	if config.Encrypted {
		mode = core.ModeEncrypted
	}

	return &Store{
		Path:   filepath.Clean(config.Path),
		config: config,
		cache:  newCache(!config.NoCache),
		logger: logger.With("component", "store"),
		mode:   mode,
	}, nil
}

// Initialize ensures the base directory exists.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("%w: stat %s: %v", core.ErrIO, s.Path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
		return nil
	}

	if err := os.MkdirAll(s.Path, 0o700); err != nil {
		return fmt.Errorf("%w: create store directory: %v", core.ErrIO, err)
	}
	return nil
}

// EnableEncryption makes later reads and writes treat content as ciphertext.
// Existing files are not migrated: tables written in plain mode become
// unreadable until encryption is disabled again.
func (s *Store) EnableEncryption() {
	s.setMode(core.ModeEncrypted)
}

// DisableEncryption makes later reads and writes use raw JSON content.
// Existing files are not migrated.
func (s *Store) DisableEncryption() {
	s.setMode(core.ModePlain)
}

// Encrypted reports the current runtime mode.
func (s *Store) Encrypted() bool {
	return s.Mode() == core.ModeEncrypted
}

// Mode returns the current runtime mode.
func (s *Store) Mode() core.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// WithMode returns a store over the same directory whose mode starts as m.
// Toggling either store afterwards does not affect the other.
func (s *Store) WithMode(m core.Mode) *Store {
	return &Store{
		Path:   s.Path,
		config: s.config,
		cache:  s.cache,
		logger: s.logger,
		mode:   m,
	}
}

func (s *Store) setMode(m core.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != m {
		s.logger.Debug("encryption mode changed", "mode", m.String())
	}
	s.mode = m
}

// TablePath returns the file backing a table.
func (s *Store) TablePath(table string) string {
	return filepath.Join(s.Path, table+TableExt)
}

// ValidateTableName rejects names that are empty or would escape the base
// directory. Names starting with a dot are reserved for lock and temp files.
func ValidateTableName(table string) error {
	switch {
	case table == "":
		return fmt.Errorf("%w: table name cannot be empty", core.ErrValidation)
	case strings.HasPrefix(table, "."):
		return fmt.Errorf("%w: table name %q cannot start with a dot", core.ErrValidation, table)
	case strings.ContainsAny(table, `/\`+"\x00"):
		return fmt.Errorf("%w: table name %q contains a path separator", core.ErrValidation, table)
	}
	return nil
}

func (s *Store) checkWritable() error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	return nil
}

// mutate runs fn as a read-modify-write transaction on one table. fn returns
// the new contents and whether they changed; unchanged tables are not written.
func (s *Store) mutate(ctx context.Context, table string, fn func(recs []core.Record) ([]core.Record, bool, error)) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}

	unlock, err := s.lockTable(ctx, table)
	if err != nil {
		return err
	}
	defer unlock()

	recs, err := s.load(table)
	if err != nil {
		return err
	}

	next, changed, err := fn(recs)
	if err != nil || !changed {
		return err
	}
	return s.save(table, next)
}

// snapshot validates the name and returns the decoded table.
func (s *Store) snapshot(table string) ([]core.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	return s.load(table)
}

func nextID(recs []core.Record) int64 {
	var maxID int64
	for _, r := range recs {
		if id, ok := r.ID(); ok && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func indexOf(recs []core.Record, id int64) int {
	for i, r := range recs {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
