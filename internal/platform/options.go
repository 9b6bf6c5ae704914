package platform

import (
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/shelter/pkg/codec"
)

// options holds the internal configuration for a shelter store.
type options struct {
	logger *slog.Logger
	codec  *codec.Codec
	config map[string]interface{}
}

// Option defines a functional option for configuring a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		config: make(map[string]interface{}),
	}
}

// WithLogger sets the logger used for read/write failures and debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSecrets derives the codec from two secrets and turns encryption on.
func WithSecrets(secretKey, secretIV string) Option {
	return func(o *options) {
		o.config["secret_key"] = secretKey
		o.config["secret_iv"] = secretIV
		if _, ok := o.config["encrypted"]; !ok {
			o.config["encrypted"] = true
		}
	}
}

// WithCodec injects a ready codec and turns encryption on.
func WithCodec(c *codec.Codec) Option {
	return func(o *options) {
		o.codec = c
		if _, ok := o.config["encrypted"]; !ok {
			o.config["encrypted"] = true
		}
	}
}

// WithEncryption sets the initial mode explicitly. Enabling it requires
// WithSecrets or WithCodec.
func WithEncryption(enabled bool) Option {
	return func(o *options) {
		o.config["encrypted"] = enabled
	}
}

// WithLenientReads restores the legacy read policy: undecodable table files
// are logged and read as empty tables.
func WithLenientReads(lenient bool) Option {
	return func(o *options) {
		o.config["lenient"] = lenient
	}
}

// WithMustExist requires the base directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Create, Update, Delete, Drop and Import return ErrReadOnly.
// 2. The base directory is never created.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithLockTimeout bounds how long a mutation waits for a table lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["lock_timeout"] = d
	}
}

// WithFileMode sets the permissions of table files (default 0600).
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.config["file_mode"] = mode
	}
}

// WithCache enables or disables the decoded-table cache (default enabled).
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.config["cache"] = enabled
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching tables, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
