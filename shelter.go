package shelter

import (
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/shelter/internal/platform"
	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
	"github.com/aretw0/shelter/pkg/typed"
)

// --- Types ---

// Record is an ordered mapping from field name to JSON value.
type Record = core.Record

// Store is the file-backed table store.
type Store = fs.Store

// Table binds a store to one table name.
type Table = core.Table

// Model is a typed view of one record.
type Model[T any] = typed.Model[T]

// TypedTable maps a Go type onto a table.
type TypedTable[T any] = typed.Table[T]

// PermissionIssue is a path whose mode grants access beyond its owner.
type PermissionIssue = platform.PermissionIssue

// Direction is the sort order used by OrderBy.
type Direction = core.Direction

const (
	Asc  = core.Asc
	Desc = core.Desc
)

// NewRecord builds a record from alternating key/value pairs.
func NewRecord(pairs ...any) Record {
	return core.NewRecord(pairs...)
}

// --- Configuration ---

// Option defines a functional option for configuring a store.
type Option = platform.Option

// WithLogger sets the logger used for read/write failures.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSecrets derives the codec from two secrets and turns encryption on.
func WithSecrets(secretKey, secretIV string) Option {
	return platform.WithSecrets(secretKey, secretIV)
}

// WithCodec injects a ready codec and turns encryption on.
func WithCodec(c *codec.Codec) Option {
	return platform.WithCodec(c)
}

// WithEncryption sets the initial encryption mode.
func WithEncryption(enabled bool) Option {
	return platform.WithEncryption(enabled)
}

// WithLenientReads makes undecodable tables read as empty instead of failing.
func WithLenientReads(lenient bool) Option {
	return platform.WithLenientReads(lenient)
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every mutation with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithLockTimeout bounds how long a mutation waits for a table lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithFileMode sets the permissions of table files.
func WithFileMode(mode os.FileMode) Option {
	return platform.WithFileMode(mode)
}

// WithCache enables or disables the decoded-table cache.
func WithCache(enabled bool) Option {
	return platform.WithCache(enabled)
}

// WithWatcherErrorHandler registers a callback for watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// Open returns a store over dir, creating the directory unless told otherwise.
func Open(dir string, opts ...Option) (*Store, error) {
	return platform.Open(dir, opts...)
}

// OpenTable opens the store at dir bound to one table.
func OpenTable(dir, table string, opts ...Option) (*Table, error) {
	return platform.OpenTable(dir, table, opts...)
}

// OpenTyped opens the store at dir and maps table onto T.
func OpenTyped[T any](dir, table string, opts ...Option) (*TypedTable[T], error) {
	t, err := platform.OpenTable(dir, table, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewTable[T](t), nil
}

// NewCodec derives a codec from two secrets.
func NewCodec(secretKey, secretIV string) (*codec.Codec, error) {
	return codec.New(secretKey, secretIV)
}

// --- Utils ---

// ConfigFileName marks the root of a shelter project.
const ConfigFileName = platform.ConfigFileName

// FindRoot looks upwards from startDir for a directory holding shelter.yaml.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// EnsureDir creates a data directory readable only by its owner.
func EnsureDir(dir string) error {
	return platform.EnsureDir(dir)
}

// InspectPermissions lists table files and directories open to other users.
func InspectPermissions(dir string) ([]PermissionIssue, error) {
	return platform.InspectPermissions(dir)
}

// RepairPermissions restricts what InspectPermissions reports.
func RepairPermissions(dir string) ([]PermissionIssue, error) {
	return platform.RepairPermissions(dir)
}
