package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/shelter/pkg/core"
)

const lockPollInterval = 10 * time.Millisecond

// LockPath returns the advisory lock file guarding a table.
func (s *Store) LockPath(table string) string {
	return filepath.Join(s.Path, "."+table+".lock")
}

// lockTable acquires the table's lock file, spinning until the configured
// timeout or ctx ends. A lock left by a process that is no longer running is
// removed and retried. The returned func releases it.
func (s *Store) lockTable(ctx context.Context, table string) (func(), error) {
	path := s.LockPath(table)
	deadline := time.Now().Add(s.config.LockTimeout)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				if err := os.Remove(path); err != nil && !isNotExist(err) {
					s.logger.Warn("failed to release table lock", "table", table, "path", path, "error", err)
				}
			}, nil
		}
		if !os.IsExist(err) {
			s.logger.Error("failed to create table lock", "table", table, "path", path, "error", err)
			return nil, fmt.Errorf("%w: create lock %s: %v", core.ErrIO, path, err)
		}

		if pid, ok := stalePID(path); ok {
			s.logger.Warn("removing stale table lock", "table", table, "path", path, "pid", pid)
			if err := os.Remove(path); err == nil || isNotExist(err) {
				continue
			}
		}

		if time.Now().After(deadline) {
			s.logger.Warn("table lock timeout", "table", table, "path", path, "timeout", s.config.LockTimeout)
			return nil, fmt.Errorf("%w: %s (held by another writer, or stale: remove %s)", core.ErrLockTimeout, table, path)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// stalePID reports the owner of a lock file whose process no longer runs.
// Empty or unreadable lock files are treated as held.
func stalePID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return 0, false
	}
	return pid, !processIsRunning(pid)
}
