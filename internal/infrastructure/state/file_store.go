// Package state persists what previous applies deployed so plans can
// diff against it.
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
)

// FileStore keeps deploy state in one YAML file guarded by a flock so
// concurrent invocations cannot interleave read-modify-write cycles.
type FileStore struct {
	path  string
	flock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  path,
		flock: flock.New(path + ".lock"),
	}
}

func (s *FileStore) Load(ctx context.Context) (*repository.DeployState, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.flock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return repository.NewDeployState(), nil
		}
		return nil, fmt.Errorf("reading state file %s: %w", s.path, domain.ErrStateReadFailed)
	}

	state := repository.NewDeployState()
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", s.path, domain.ErrStateCorrupt)
	}
	if state.Artifacts == nil {
		state.Artifacts = make(map[string]repository.ArtifactRecord)
	}
	return state, nil
}

func (s *FileStore) Save(ctx context.Context, state *repository.DeployState) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.flock.Unlock()

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", domain.ErrStateWriteFailed)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermPrivate); err != nil {
		return fmt.Errorf("creating state dir: %w", domain.ErrStateWriteFailed)
	}

	// Temp file plus rename keeps a crashed writer from truncating state.
	tmpPath := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tmpPath, data, constants.FilePermSecret); err != nil {
		return fmt.Errorf("writing temp state file %s: %w", tmpPath, domain.ErrStateWriteFailed)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming state file to %s: %w", s.path, domain.ErrStateWriteFailed)
	}
	return nil
}

func (s *FileStore) Reset(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.flock.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file %s: %w", s.path, domain.ErrStateWriteFailed)
	}
	return nil
}

func (s *FileStore) lock(ctx context.Context) error {
	ok, err := s.flock.TryLockContext(ctx, constants.LockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquiring state lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquiring state lock: %w", ctx.Err())
	}
	return nil
}

var _ repository.StateStore = (*FileStore)(nil)
