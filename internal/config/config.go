// Package config locates the litt dot-directory and reads and writes its
// configuration document.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/model"
)

// EnvDir overrides the default dot-directory.
const EnvDir = "LITT_HOME"

// DefaultOutputFormat is written on first run.
const DefaultOutputFormat = model.FormatJSON

// Paths holds every location litt reads or writes. It is derived once from the
// dot-directory and passed explicitly to whatever needs a file.
type Paths struct {
	Dir    string
	Ledger string
	Config string
	Hooks  string
	Env    string
}

// NewPaths returns the layout below dir.
func NewPaths(dir string) Paths {
	return Paths{
		Dir:    dir,
		Ledger: filepath.Join(dir, "events.json"),
		Config: filepath.Join(dir, "config.json"),
		Hooks:  filepath.Join(dir, "hooks"),
		Env:    filepath.Join(dir, ".env"),
	}
}

// ResolveDir picks the dot-directory: override if set, else $LITT_HOME, else
// ~/.litt.
func ResolveDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".litt"), nil
}

var validate = validator.New()

// Default returns the configuration written on first run.
func Default() model.Config {
	return model.Config{OutputFormat: DefaultOutputFormat}
}

// Validate checks cfg field constraints.
func Validate(cfg model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return failure.Wrap(failure.InvalidConfig, err, "invalid %s %q, want one of human, json, json-compact, yaml", verrs[0].Field(), verrs[0].Value())
		}
		return failure.Wrap(failure.InvalidConfig, err, "invalid configuration")
	}
	return nil
}

// ValidateFormat checks a single output format name.
func ValidateFormat(format string) error {
	return Validate(model.Config{OutputFormat: format})
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the configuration document. A missing file yields the defaults;
// a missing OutputFormat is filled with DefaultOutputFormat.
func Load(paths Paths) (model.Config, error) {
	data, err := os.ReadFile(paths.Config)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", paths.Config, err)
	}

	var cfg model.Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", paths.Config, err)
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if err := Validate(cfg); err != nil {
		return Default(), fmt.Errorf("config file %s: %w", paths.Config, err)
	}
	return cfg, nil
}

// Save validates cfg and writes it atomically.
func Save(paths Paths, cfg model.Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	tmp := paths.Config + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, paths.Config); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
