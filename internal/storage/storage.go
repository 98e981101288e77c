// Package storage persists the ledger document as a single JSON file that is
// rewritten as a whole after every command.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/model"
)

// Initialized reports whether the dot-directory already holds a ledger and a
// configuration document.
func Initialized(paths config.Paths) bool {
	for _, p := range []string{paths.Ledger, paths.Config} {
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Init creates the dot-directory with an empty ledger and the default
// configuration. Existing files are left alone.
func Init(paths config.Paths) error {
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return fmt.Errorf("storage error creating %s: %w", paths.Dir, err)
	}
	if _, err := os.Stat(paths.Ledger); os.IsNotExist(err) {
		if err := Save(paths.Ledger, model.NewLedger()); err != nil {
			return err
		}
	}
	if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
		if err := config.Save(paths, config.Default()); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the ledger at path. A missing file is an empty ledger.
func Load(path string) (*model.Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	doc := model.NewLedger()
	if err := json.Unmarshal(data, doc); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	if doc.Records == nil {
		doc.Records = map[string]model.Record{}
	}
	if doc.Aliases == nil {
		doc.Aliases = map[string]model.Alias{}
	}
	return doc, nil
}

// Save atomically rewrites the ledger at path.
func Save(path string, doc *model.Ledger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
