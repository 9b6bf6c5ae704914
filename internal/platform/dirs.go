package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/core"
)

const (
	// DirMode is the mode EnsureDir creates and RepairPermissions restores.
	DirMode os.FileMode = 0o700
	// FileMode is the mode RepairPermissions restores on table files.
	FileMode os.FileMode = fs.DefaultFileMode
)

// PermissionIssue describes a path that group or other users can access.
type PermissionIssue struct {
	Path string
	Mode os.FileMode
	Want os.FileMode
}

func (p PermissionIssue) String() string {
	return fmt.Sprintf("%s: %04o (want %04o)", p.Path, p.Mode.Perm(), p.Want)
}

// EnsureDir creates dir with DirMode if missing. An existing path must be
// a directory.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", core.ErrValidation, dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", core.ErrIO, dir, err)
	}
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("%w: create %s: %v", core.ErrIO, dir, err)
	}
	return nil
}

// InspectPermissions reports the base directory and table files whose mode
// grants any access beyond the owner. Lock and temp files are skipped.
func InspectPermissions(dir string) ([]PermissionIssue, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", core.ErrIO, dir, err)
	}

	var issues []PermissionIssue
	if info.Mode().Perm()&0o077 != 0 {
		issues = append(issues, PermissionIssue{Path: dir, Mode: info.Mode().Perm(), Want: DirMode})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", core.ErrIO, dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fs.TableExt {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue // removed meanwhile
		}
		if fi.Mode().Perm()&0o077 != 0 {
			issues = append(issues, PermissionIssue{
				Path: filepath.Join(dir, name),
				Mode: fi.Mode().Perm(),
				Want: FileMode,
			})
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues, nil
}

// RepairPermissions restricts every path InspectPermissions reports to its
// wanted mode and returns what it changed.
func RepairPermissions(dir string) ([]PermissionIssue, error) {
	issues, err := InspectPermissions(dir)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		if err := os.Chmod(issue.Path, issue.Want); err != nil {
			return nil, fmt.Errorf("%w: chmod %s: %v", core.ErrIO, issue.Path, err)
		}
	}
	return issues, nil
}
