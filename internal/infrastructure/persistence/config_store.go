// Package persistence stores settings, survey answers and scan results
// as YAML files under the config directory.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/repository"
)

const (
	settingsFile = "config.yaml"
	answersFile  = "answers.yaml"
	profileFile  = "profile.yaml"

	backupTimeFormat = "20060102-150405"
)

type FileConfigStore struct {
	dir string
	// now is swappable so tests get deterministic backup names.
	now func() time.Time
}

func NewFileConfigStore(dir string) *FileConfigStore {
	return &FileConfigStore{dir: dir, now: time.Now}
}

func (s *FileConfigStore) LoadSettings(ctx context.Context) (*entity.Settings, error) {
	return loadYAML[entity.Settings](filepath.Join(s.dir, settingsFile))
}

func (s *FileConfigStore) SaveSettings(ctx context.Context, settings *entity.Settings) error {
	return s.saveYAML(settingsFile, settings)
}

func (s *FileConfigStore) LoadAnswers(ctx context.Context) (*entity.Answers, error) {
	answers, err := loadYAML[entity.Answers](filepath.Join(s.dir, answersFile))
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			return nil, fmt.Errorf("%s: %w", answersFile, domain.ErrAnswersNotFound)
		}
		return nil, err
	}
	return answers, nil
}

func (s *FileConfigStore) SaveAnswers(ctx context.Context, answers *entity.Answers) error {
	return s.saveYAML(answersFile, answers)
}

func (s *FileConfigStore) LoadProfile(ctx context.Context) (*entity.HostProfile, error) {
	return loadYAML[entity.HostProfile](filepath.Join(s.dir, profileFile))
}

func (s *FileConfigStore) SaveProfile(ctx context.Context, profile *entity.HostProfile) error {
	return s.saveYAML(profileFile, profile)
}

// LoadAnswersFrom reads answers from an arbitrary path, for the
// --answers flag.
func LoadAnswersFrom(path string) (*entity.Answers, error) {
	answers, err := loadYAML[entity.Answers](path)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrAnswersNotFound)
		}
		return nil, err
	}
	return answers, nil
}

func loadYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, domain.ErrConfigReadFailed, err)
	}

	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, domain.ErrConfigParseFailed, err)
	}
	return &out, nil
}

func (s *FileConfigStore) saveYAML(name string, v any) error {
	if err := os.MkdirAll(s.dir, constants.DirPermPrivate); err != nil {
		return fmt.Errorf("creating config dir %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, name)
	if err := s.backup(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	tmpPath := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmpPath, data, constants.FilePermSecret); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

// backup copies the current file aside before it is overwritten so a
// bad survey run never destroys the previous answers.
func (s *FileConfigStore) backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s for backup: %w", path, err)
	}

	backupPath := fmt.Sprintf("%s.%s.bak", path, s.now().Format(backupTimeFormat))
	if err := os.WriteFile(backupPath, data, constants.FilePermSecret); err != nil {
		return fmt.Errorf("writing backup %s: %w", backupPath, err)
	}
	return nil
}

var _ repository.ConfigStore = (*FileConfigStore)(nil)
