// Package dotdir manages the .spool/ and ~/.spool directories that hold the
// spool configuration.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the spool directory.
	dirName = ".spool"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .spool/ directory.
// Order of precedence is as follows:
//  1. Provided override, created if missing
//  2. Local ./.spool/ dir
//  3. Home ~/.spool/ dir
//
// Target returns an empty string when no directory is found.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating spool directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if local, ok := m.localDir(); ok {
		return local, nil
	}

	home, err := m.homeDir()
	if err != nil {
		return "", err
	}
	if isDir(home) {
		return home, nil
	}

	return "", nil
}

// CreateHome creates ~/.spool/ and returns its path.
func (m *Manager) CreateHome() (string, error) {
	home, err := m.homeDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("creating spool directory %s: %w", home, err)
	}
	return home, nil
}

func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	return dir, isDir(dir)
}

func (m *Manager) homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
