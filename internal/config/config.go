// Package config holds the two-file configuration store: secrets.json is
// read once at startup (credentials, allow-list), settings.yaml is mutable
// and can be re-read at runtime so edits take effect without a restart.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vthunder/kernel/internal/logging"
)

const (
	DefaultSecretsFile  = "secrets.json"
	DefaultSettingsFile = "settings.yaml"
)

// Store provides access to secrets (static) and settings (hot-reloadable)
type Store struct {
	secretsPath  string
	settingsPath string

	mu       sync.RWMutex
	secrets  map[string]any
	settings map[string]any
}

// Load reads both files. A missing file is a warning, not an error: the
// store simply serves defaults until the file shows up on the next reload.
func Load(secretsPath, settingsPath string) *Store {
	s := &Store{
		secretsPath:  secretsPath,
		settingsPath: settingsPath,
		secrets:      map[string]any{},
		settings:     map[string]any{},
	}

	if m, err := readJSONFile(secretsPath); err != nil {
		logging.Warn("config", "%v", err)
	} else {
		s.secrets = m
	}
	s.reloadLocked()
	return s
}

// Reload re-reads the settings file. Secrets are never reloaded.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked()
}

func (s *Store) reloadLocked() {
	m, err := readYAMLFile(s.settingsPath)
	if err != nil {
		logging.Warn("config", "%v", err)
		return
	}
	s.settings = m
}

// Secret returns a secret value, or def if absent.
func (s *Store) Secret(key string, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.secrets[key].(string); ok && v != "" {
		return v
	}
	return def
}

// SecretStrings returns a secret list value. Scalar values are wrapped in a
// one-element list so a single allowed ID can be written without brackets.
func (s *Store) SecretStrings(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toStrings(s.secrets[key])
}

// Setting returns a string setting, or def if absent or empty.
func (s *Store) Setting(key string, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.settings[key].(string); ok && v != "" {
		return v
	}
	return def
}

// SettingInt returns an integer setting, or def if absent or not a number.
func (s *Store) SettingInt(key string, def int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.settings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// SettingBool returns a boolean setting, or def if absent.
func (s *Store) SettingBool(key string, def bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.settings[key].(bool); ok {
		return v
	}
	return def
}

// UpdateSetting sets one key and persists the settings file.
func (s *Store) UpdateSetting(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.settingsPath, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func readJSONFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not found, please create it", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func readYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not found, please create it", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case float64:
		return []string{fmt.Sprintf("%.0f", val)}
	case []any:
		var out []string
		for _, item := range val {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case float64:
				out = append(out, fmt.Sprintf("%.0f", it))
			default:
				logging.Warn("config", "ignoring value of unexpected type %T in list", item)
			}
		}
		return out
	default:
		logging.Warn("config", "expected string or list, got %T", v)
		return nil
	}
}
