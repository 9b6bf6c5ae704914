package platform

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/codec"
	"github.com/aretw0/shelter/pkg/core"
)

// Open prepares the base directory and returns a ready store.
func Open(dir string, opts ...Option) (*fs.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	config, err := storeConfig(dir, o)
	if err != nil {
		return nil, err
	}

	if !config.MustExist && !config.ReadOnly {
		if err := EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	store, err := fs.NewStore(config)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.Debug("store opened", "path", store.Path, "mode", store.Mode().String(), "read_only", config.ReadOnly)
	}
	return store, nil
}

// storeConfig translates the options into the adapter configuration.
func storeConfig(dir string, o *options) (fs.Config, error) {
	encrypted, _ := o.config["encrypted"].(bool)
	lenient, _ := o.config["lenient"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	lockTimeout, _ := o.config["lock_timeout"].(time.Duration)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	noCache := false
	if enabled, ok := o.config["cache"].(bool); ok {
		noCache = !enabled
	}

	c := o.codec
	if c == nil {
		key, _ := o.config["secret_key"].(string)
		iv, _ := o.config["secret_iv"].(string)
		if key != "" || iv != "" {
			var err error
			if c, err = codec.New(key, iv); err != nil {
				return fs.Config{}, err
			}
		}
	}
	if encrypted && c == nil {
		return fs.Config{}, fmt.Errorf("%w: encryption enabled without secrets", core.ErrValidation)
	}

	config := fs.Config{
		Path:         dir,
		MustExist:    mustExist,
		ReadOnly:     readOnly,
		Lenient:      lenient,
		Codec:        c,
		Encrypted:    encrypted,
		LockTimeout:  lockTimeout,
		NoCache:      noCache,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	}
	if mode, ok := o.config["file_mode"].(os.FileMode); ok {
		config.FileMode = mode
	}
	return config, nil
}
