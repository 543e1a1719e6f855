package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Theme ordinals persisted in the settings file.
const (
	ThemeLight = 1
	ThemeDark  = 2
)

// Settings holds the persisted player preferences.
type Settings struct {
	Theme     int           `toml:"theme"`
	Directory string        `toml:"directory"`
	Volume    int           `toml:"volume"`
	Logging   LoggingConfig `toml:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Theme:     ThemeLight,
		Directory: "tracks",
		Volume:    50,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Store owns the settings file and its backup copy. All writes to the file go
// through the Store; nothing else touches it.
type Store struct {
	mu         sync.Mutex
	path       string
	backupPath string
	settings   Settings
	logger     *logrus.Logger
}

// Open loads the settings file at path, falling back to the backup copy when
// the primary is missing and writing defaults when neither exists. A fresh
// backup is taken after a successful load.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		path:       path,
		backupPath: filepath.Join(filepath.Dir(path), "backup", filepath.Base(path)),
		logger:     logger,
	}

	if err := os.MkdirAll(filepath.Dir(s.backupPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if _, berr := os.Stat(s.backupPath); berr == nil {
			if err := copyFile(s.backupPath, s.path); err != nil {
				return nil, fmt.Errorf("failed to restore settings from backup: %w", err)
			}
			logger.WithField("path", s.path).Info("Restored settings from backup")
		} else {
			s.settings = DefaultSettings()
			if err := s.save(); err != nil {
				return nil, fmt.Errorf("failed to create default settings file: %w", err)
			}
			logger.WithField("path", s.path).Info("Created default settings file")
		}
	}

	if err := s.reload(); err != nil {
		// The primary exists but cannot be parsed; fall back to the backup
		// copy when one is available.
		if _, berr := os.Stat(s.backupPath); berr != nil {
			return nil, err
		}
		logger.WithError(err).Warn("Settings file unreadable, restoring from backup")
		if cerr := copyFile(s.backupPath, s.path); cerr != nil {
			return nil, fmt.Errorf("failed to restore settings from backup: %w", cerr)
		}
		if err := s.reload(); err != nil {
			return nil, err
		}
	}

	// Back up the known-good settings on startup so a later corrupted write
	// can be rolled back.
	if err := s.Backup(); err != nil {
		logger.WithError(err).Warn("Could not back up settings file")
	}

	return s, nil
}

// reload parses the settings file into memory and normalizes invalid values.
func (s *Store) reload() error {
	cfg := DefaultSettings()
	if _, err := toml.DecodeFile(s.path, &cfg); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	if cfg.Theme != ThemeLight && cfg.Theme != ThemeDark {
		cfg.Theme = ThemeLight
	}
	if cfg.Volume < 0 {
		cfg.Volume = 0
	}
	if cfg.Volume > 100 {
		cfg.Volume = 100
	}
	if cfg.Directory == "" {
		cfg.Directory = DefaultSettings().Directory
	}

	s.settings = cfg
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetVolume persists a new volume value.
func (s *Store) SetVolume(volume int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Volume = volume
	return s.save()
}

// SetDirectory persists a new tracks directory.
func (s *Store) SetDirectory(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Directory = dir
	return s.save()
}

// SetTheme persists a new theme ordinal. Unknown ordinals are rejected.
func (s *Store) SetTheme(theme int) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("invalid theme ordinal: %d", theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Theme = theme
	return s.save()
}

// Backup writes a copy of the settings file next to the primary.
func (s *Store) Backup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyFile(s.path, s.backupPath)
}

// RestoreBackup replaces the settings file with the backup copy and reloads
// it into memory.
func (s *Store) RestoreBackup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := copyFile(s.backupPath, s.path); err != nil {
		return fmt.Errorf("failed to restore settings backup: %w", err)
	}
	return s.reload()
}

// save writes the in-memory settings to the primary file. Caller holds the
// lock.
func (s *Store) save() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer file.Close()

	header := `# RePlay player settings.
# Edit the values below or change them from inside the player.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write settings header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(s.settings); err != nil {
		return fmt.Errorf("failed to encode settings to TOML: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
