package wireguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KeySet is the persisted tunnel identity. Regenerating keys on every
// run would invalidate every device config, so they live in the config
// dir and survive between applies.
type KeySet struct {
	Server KeyPair   `yaml:"server"`
	Peers  []KeyPair `yaml:"peers,omitempty"`
}

// KeyStore persists WireGuard keypairs at a fixed path with 0600 mode.
type KeyStore struct {
	path string
}

func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path}
}

// LoadOrCreate returns the stored key set, generating the server key
// and any missing peer keys so at least n peers exist. New material is
// persisted before returning.
func (s *KeyStore) LoadOrCreate(n int) (*KeySet, error) {
	set, err := s.load()
	if err != nil {
		return nil, err
	}

	changed := false
	if set.Server.Private == "" {
		key, err := NewKeyPair()
		if err != nil {
			return nil, err
		}
		set.Server = *key
		changed = true
	}
	for len(set.Peers) < n {
		key, err := NewKeyPair()
		if err != nil {
			return nil, err
		}
		set.Peers = append(set.Peers, *key)
		changed = true
	}

	if changed {
		if err := s.save(set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s *KeyStore) load() (*KeySet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &KeySet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read key store: %w", err)
	}
	var set KeySet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse key store %s: %w", s.path, err)
	}
	return &set, nil
}

func (s *KeyStore) save(set *KeySet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode key store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
