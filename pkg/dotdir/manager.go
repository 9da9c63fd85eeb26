// Package dotdir resolves the .streamchat/ directory that holds config.toml,
// credentials.toml and the log file.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".streamchat"

	// HomeEnvVar names a directory used in place of ./.streamchat and
	// ~/.streamchat. --config-dir still wins over it.
	HomeEnvVar = "STREAMCHAT_HOME"
)

// Manager resolves the directory. The zero value is ready to use.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .streamchat/ directory, creating
// it with mode 0700 if needed. The first match wins:
//  1. overrideDir
//  2. $STREAMCHAT_HOME
//  3. ./.streamchat, if it exists
//  4. ~/.streamchat
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating streamchat directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// File returns the absolute path of name inside the resolved directory. The
// directory is created; the file is not.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("checking %s: %w", path, err)
	case info.IsDir():
		return "", fmt.Errorf("%s is a directory", path)
	}

	return path, nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	if env := os.Getenv(HomeEnvVar); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(cwd, dirName)); err == nil && info.IsDir() {
		return filepath.Join(cwd, dirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
