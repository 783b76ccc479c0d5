// File: lixenwraith/layered/io.go
package layered

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Save writes the merged view to a TOML file atomically.
// Lazy values cannot be encoded and make Save fail without touching path.
func (r *Resolver) Save(path string) error {
	var buf bytes.Buffer
	if err := r.Dump(&buf); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// SaveSource writes a single source, selected by index (negative counts from
// the end), to a TOML file atomically.
func (r *Resolver) SaveSource(path string, index int) error {
	if index < 0 {
		index += len(r.sources)
	}
	if index < 0 || index >= len(r.sources) {
		return fmt.Errorf("source index %d out of range (%d sources)", index, len(r.sources))
	}

	if key, found := findLazy(r.sources[index], ""); found {
		return fmt.Errorf("cannot encode lazy value at %q", key)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(r.sources[index]); err != nil {
		return fmt.Errorf("failed to marshal source %d to TOML: %w", index, err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// Dump writes the merged view to w in TOML format
func (r *Resolver) Dump(w io.Writer) error {
	if key, found := findLazy(r.merged, ""); found {
		return fmt.Errorf("cannot encode lazy value at %q", key)
	}
	if err := toml.NewEncoder(w).Encode(r.merged); err != nil {
		return fmt.Errorf("failed to marshal config data to TOML: %w", err)
	}
	return nil
}

// findLazy returns the path of the first deferred value under m.
func findLazy(m map[string]any, prefix string) (string, bool) {
	for _, key := range sortedKeys(m) {
		path := key
		if prefix != "" {
			path = prefix + PathSeparator + key
		}
		if _, ok := asLazy(m[key]); ok {
			return path, true
		}
		if nested, ok := m[key].(map[string]any); ok {
			if p, found := findLazy(nested, path); found {
				return p, true
			}
		}
	}
	return "", false
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
