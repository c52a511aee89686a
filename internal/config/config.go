package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FileName is the overlay document name under the base directory.
const FileName = "config.yaml"

// Store is the layered settings document: hard-coded defaults plus a
// user-writable overlay persisted on every Set.
type Store struct {
	baseDir  string
	path     string
	overlay  map[string]any
	defaults map[string]any
}

// Load reads the overlay under baseDir, merging any missing top-level keys in
// from the defaults (rewriting the file once if it had to). A missing or
// unreadable overlay is replaced with the defaults; read failures never
// propagate to Get.
func Load(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "."
	}
	defaults := make(map[string]any)
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		path:     filepath.Join(baseDir, FileName),
		defaults: defaults,
	}

	overlay := make(map[string]any)
	dirty := false
	data, err := os.ReadFile(s.path)
	switch {
	case err != nil:
		dirty = true
	default:
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			overlay = make(map[string]any)
			dirty = true
		}
	}

	for key, value := range defaults {
		if _, ok := overlay[key]; !ok {
			overlay[key] = deepCopy(value)
			dirty = true
		}
	}
	s.overlay = overlay

	if dirty {
		if err := s.write(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// BaseDir returns the directory the config file lives in.
func (s *Store) BaseDir() string { return s.baseDir }

// DatabasePath returns the stable location of the project database.
func (s *Store) DatabasePath() string {
	return filepath.Join(s.baseDir, "db", "dataset_classifier.db")
}

// LogDir returns the directory log files are written to.
func (s *Store) LogDir() string {
	return filepath.Join(s.baseDir, "logs")
}

// EnsureDirectories creates the database and log directories.
func (s *Store) EnsureDirectories() error {
	for _, dir := range []string{filepath.Dir(s.DatabasePath()), s.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// Get reads the value at a dotted path, overlay first, defaults second.
// Returns nil when neither layer holds the key.
func (s *Store) Get(path string) any {
	if value, ok := lookup(s.overlay, path); ok {
		return value
	}
	if value, ok := lookup(s.defaults, path); ok {
		return value
	}
	return nil
}

// GetBool reads a boolean at the dotted path; missing or mistyped values are
// false.
func (s *Store) GetBool(path string) bool {
	value, _ := s.Get(path).(bool)
	return value
}

// GetString reads a string at the dotted path; missing or mistyped values are
// empty.
func (s *Store) GetString(path string) string {
	value, _ := s.Get(path).(string)
	return value
}

// GetInt reads an integer at the dotted path; missing or mistyped values are
// zero.
func (s *Store) GetInt(path string) int {
	switch value := s.Get(path).(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

// Set writes a value at a dotted path into the overlay, materializing
// intermediate maps as needed, and persists the document.
func (s *Store) Set(path string, value any) error {
	parts := strings.Split(path, ".")
	if len(parts) == 0 || parts[0] == "" {
		return fmt.Errorf("config set: empty path")
	}

	node := s.overlay
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value

	return s.write()
}

func (s *Store) write() error {
	data, err := yaml.Marshal(s.overlay)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func lookup(node map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for i, part := range parts {
		value, ok := node[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		node, ok = value.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

func deepCopy(value any) any {
	if node, ok := value.(map[string]any); ok {
		copied := make(map[string]any, len(node))
		for key, child := range node {
			copied[key] = deepCopy(child)
		}
		return copied
	}
	if list, ok := value.([]any); ok {
		copied := make([]any, len(list))
		for i, child := range list {
			copied[i] = deepCopy(child)
		}
		return copied
	}
	return value
}
