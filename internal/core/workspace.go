package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace represents a starkeep workspace.
type Workspace struct {
	Root   string
	DBPath string
}

// Dir returns the .starkeep directory for this workspace.
func (w Workspace) Dir() string {
	return filepath.Dir(w.DBPath)
}

// DiscoverWorkspace walks up from startDir to find a .starkeep directory.
func DiscoverWorkspace(startDir string) (Workspace, error) {
	current := startDir
	if current == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Workspace{}, err
		}
		current = cwd
	}
	current, err := filepath.Abs(current)
	if err != nil {
		return Workspace{}, err
	}

	for {
		skDir := filepath.Join(current, ".starkeep")
		info, err := os.Stat(skDir)
		if err == nil && info.IsDir() {
			dbPath := filepath.Join(skDir, "starkeep.db")
			if _, err := os.Stat(dbPath); err != nil {
				return Workspace{}, fmt.Errorf("starkeep database not found. Run 'starkeep init' first")
			}
			return Workspace{Root: current, DBPath: dbPath}, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Workspace{}, fmt.Errorf("not initialized. Run 'starkeep init' first")
		}
		current = parent
	}
}

// InitWorkspace initializes a new starkeep workspace at dir.
func InitWorkspace(dir string, force bool) (Workspace, error) {
	root := dir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Workspace{}, err
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, err
	}

	skDir := filepath.Join(root, ".starkeep")
	dbPath := filepath.Join(skDir, "starkeep.db")

	if info, err := os.Stat(skDir); err == nil && info.IsDir() && !force {
		return Workspace{}, fmt.Errorf("already initialized. Use --force to reinitialize")
	}

	if err := os.MkdirAll(skDir, 0o755); err != nil {
		return Workspace{}, err
	}

	if force {
		if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Workspace{}, err
		}
	}

	return Workspace{Root: root, DBPath: dbPath}, nil
}
