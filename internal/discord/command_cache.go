package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
)

// HashCache stores the hashes of the last deployed command set, one file per
// scope (a guild ID or "global").
type HashCache struct {
	Dir string
}

const globalScope = "global"

func (c HashCache) path(scope string) string {
	if scope == "" {
		scope = globalScope
	}
	return filepath.Join(c.Dir, scope+".json")
}

// Load returns the cached hashes of scope. A missing file is an empty cache.
func (c HashCache) Load(scope string) (map[string]string, error) {
	out := make(map[string]string)
	data, err := os.ReadFile(c.path(scope))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read command cache: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return make(map[string]string), fmt.Errorf("parse command cache: %w", err)
	}
	return out, nil
}

func (c HashCache) Save(scope string, hashes map[string]string) error {
	path := c.path(scope)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Unchanged reports whether hashes equal the cached hashes of scope.
func (c HashCache) Unchanged(scope string, hashes map[string]string) bool {
	cached, err := c.Load(scope)
	if err != nil {
		return false
	}
	return maps.Equal(cached, hashes)
}
