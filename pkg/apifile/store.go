// Package apifile reads and writes an API definition kept in a local YAML or
// JSON file. The file store implements the same persistence contract as the
// management client, with an ETag derived from the file contents.
package apifile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/logging"
)

// Errors returned by the file store.
var (
	ErrFileNotFound = errors.New("definition file not found")
	ErrEmptyFile    = errors.New("definition file is empty")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrConflict     = errors.New("definition file changed since it was read")
	ErrNotFound     = errors.New("api not found in definition file")
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from the file extension; anything but .yaml and
// .yml is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ETag returns the concurrency token of file contents: the quoted hex
// SHA-256 of data.
func ETag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Store keeps one API definition in a file.
type Store struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New returns a store for the definition file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the definition file path.
func (s *Store) Path() string { return s.path }

// Load reads, parses and validates the definition. The returned API carries
// the ETag of the bytes read.
func (s *Store) Load() (*api.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, _, err := s.read()
	return a, err
}

// GetAPI loads the definition and checks that it is the API named id. An
// empty id accepts whatever API the file holds.
func (s *Store) GetAPI(_ context.Context, id string) (*api.API, error) {
	a, err := s.Load()
	if err != nil {
		return nil, err
	}
	if id != "" && a.ID != id {
		return nil, fmt.Errorf("%w: %q (file holds %q)", ErrNotFound, id, a.ID)
	}
	return a, nil
}

// UpdateAPI replaces the definition in the file. A non-empty a.ETag must
// match the file as it is now, otherwise ErrConflict is returned and the file
// is left alone. The new contents are validated before they are written, and
// written through a temporary file that is renamed over the original.
func (s *Store) UpdateAPI(_ context.Context, a *api.API) (*api.API, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, data, err := s.read()
	if err != nil {
		return nil, "", err
	}
	if a.ID != current.ID {
		return nil, "", fmt.Errorf("%w: %q (file holds %q)", ErrNotFound, a.ID, current.ID)
	}
	if a.ETag != "" && a.ETag != ETag(data) {
		return nil, "", ErrConflict
	}

	out, err := Marshal(a, FormatOf(s.path))
	if err != nil {
		return nil, "", err
	}
	if _, err := Parse(out, FormatOf(s.path)); err != nil {
		return nil, "", err
	}
	if err := writeAtomic(s.path, out); err != nil {
		return nil, "", err
	}

	updated, _, err := s.read()
	if err != nil {
		return nil, "", err
	}
	s.log.Debug("definition file written", "path", s.path, "etag", updated.ETag)
	return updated, updated.ETag, nil
}

func (s *Store) read() (*api.API, []byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.path)
		}
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	a, err := Parse(data, FormatOf(s.path))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = s.path
		}
		return nil, nil, err
	}
	a.ETag = ETag(data)
	return a, data, nil
}

// Parse decodes a definition in the given format and validates it against
// the API schema.
func Parse(data []byte, format Format) (*api.API, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var doc any
	var a api.API
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		// Round trip through JSON so the schema sees JSON types.
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		doc = nil
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}

	if err := checkSchema(doc); err != nil {
		return nil, err
	}
	return &a, nil
}

// Marshal encodes a definition in the given format.
func Marshal(a *api.API, format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return nil, fmt.Errorf("failed to marshal definition: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal definition: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidateFile parses and validates the definition at path.
func ValidateFile(path string) (*api.API, error) {
	return New(path).Load()
}

// Glob expands pattern, including ** for recursive matching.
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	return matches, nil
}

func writeAtomic(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
