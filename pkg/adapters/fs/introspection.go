package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string        `json:"path"`
	Mode          string        `json:"mode"`
	HasCodec      bool          `json:"has_codec"`
	CacheEnabled  bool          `json:"cache_enabled"`
	CacheSize     int           `json:"cache_size"`
	ReadOnly      bool          `json:"read_only"`
	Lenient       bool          `json:"lenient"`
	LockTimeout   time.Duration `json:"lock_timeout"`
	Formats       []string      `json:"formats"`
	WatcherActive bool          `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		Mode:          s.mode.String(),
		HasCodec:      s.config.Codec != nil,
		CacheEnabled:  s.cache.enabled,
		CacheSize:     s.cache.Len(),
		ReadOnly:      s.config.ReadOnly,
		Lenient:       s.config.Lenient,
		LockTimeout:   s.config.LockTimeout,
		Formats:       Formats(),
		WatcherActive: s.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
