package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName marks a shelter data directory and holds CLI settings.
const ConfigFileName = "shelter.yaml"

// FindRoot looks upwards from startDir for a directory holding
// ConfigFileName and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
