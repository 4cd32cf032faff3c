package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Vault persists generated service credentials between runs so a
// re-render produces the same .env bytes. Without it every plan would
// show a credential diff and every apply would rotate passwords.
type Vault struct {
	path string

	mu     sync.Mutex
	values map[string]string
	dirty  bool
}

// OpenVault loads the credential file at path, starting empty when the
// file does not exist yet.
func OpenVault(path string) (*Vault, error) {
	v := &Vault{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential vault: %w", err)
	}
	if err := yaml.Unmarshal(data, &v.values); err != nil {
		return nil, fmt.Errorf("parse credential vault %s: %w", path, err)
	}
	return v, nil
}

// Ensure returns the stored value for key, calling generate and
// remembering the result when the key is new.
func (v *Vault) Ensure(key string, generate func() (string, error)) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if value, ok := v.values[key]; ok {
		return value, nil
	}
	value, err := generate()
	if err != nil {
		return "", err
	}
	v.values[key] = value
	v.dirty = true
	return value, nil
}

// Save writes the vault back with 0600 mode. A vault without new
// entries is left untouched.
func (v *Vault) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.dirty {
		return nil
	}
	data, err := yaml.Marshal(v.values)
	if err != nil {
		return fmt.Errorf("encode credential vault: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return err
	}
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, v.path); err != nil {
		return err
	}
	v.dirty = false
	return nil
}
