package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

func TestFileConfigStore_SettingsRoundTrip(t *testing.T) {
	store := NewFileConfigStore(t.TempDir())
	ctx := context.Background()

	settings := &entity.Settings{
		OutputDir: "/opt/homelab",
		Timezone:  "Europe/Berlin",
		Secrets:   []entity.Secret{{Name: "cf-token", Value: "abc"}},
	}
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	loaded, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if loaded.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want %q", loaded.Timezone, "Europe/Berlin")
	}
	if len(loaded.Secrets) != 1 || loaded.Secrets[0].Value != "abc" {
		t.Errorf("Secrets = %+v, want one entry with value abc", loaded.Secrets)
	}
}

func TestFileConfigStore_SettingsFileMode(t *testing.T) {
	dir := t.TempDir()
	store := NewFileConfigStore(dir)

	if err := store.SaveSettings(context.Background(), &entity.Settings{}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, settingsFile))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("settings mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestFileConfigStore_MissingAnswers(t *testing.T) {
	store := NewFileConfigStore(t.TempDir())

	_, err := store.LoadAnswers(context.Background())
	if !errors.Is(err, domain.ErrAnswersNotFound) {
		t.Errorf("LoadAnswers() error = %v, want ErrAnswersNotFound", err)
	}
}

func TestFileConfigStore_MissingSettings(t *testing.T) {
	store := NewFileConfigStore(t.TempDir())

	_, err := store.LoadSettings(context.Background())
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("LoadSettings() error = %v, want ErrConfigNotFound", err)
	}
}

func TestFileConfigStore_ParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, answersFile), []byte(":\tnot yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileConfigStore(dir)
	_, err := store.LoadAnswers(context.Background())
	if !errors.Is(err, domain.ErrConfigParseFailed) {
		t.Errorf("LoadAnswers() error = %v, want ErrConfigParseFailed", err)
	}
}

func TestFileConfigStore_BackupOnOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewFileConfigStore(dir)
	store.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	first := &entity.Answers{PrimaryUse: entity.UseMedia, UserCount: 2}
	if err := store.SaveAnswers(ctx, first); err != nil {
		t.Fatalf("first SaveAnswers() error = %v", err)
	}
	second := &entity.Answers{PrimaryUse: entity.UseDevelopment, UserCount: 1}
	if err := store.SaveAnswers(ctx, second); err != nil {
		t.Fatalf("second SaveAnswers() error = %v", err)
	}

	backupPath := filepath.Join(dir, answersFile+".20250601-093000.bak")
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("backup not written: %v", err)
	}

	loaded, err := store.LoadAnswers(ctx)
	if err != nil {
		t.Fatalf("LoadAnswers() error = %v", err)
	}
	if loaded.PrimaryUse != entity.UseDevelopment {
		t.Errorf("PrimaryUse = %q, want %q", loaded.PrimaryUse, entity.UseDevelopment)
	}
}

func TestFileConfigStore_ProfileRoundTrip(t *testing.T) {
	store := NewFileConfigStore(t.TempDir())
	ctx := context.Background()

	profile := &entity.HostProfile{
		OS:     entity.OSInfo{ID: "debian", Version: "12", Kernel: "6.1.0"},
		CPU:    entity.CPUInfo{Cores: 4, Model: "Intel N100"},
		Memory: entity.MemoryInfo{TotalMB: 16384, AvailableMB: 12000},
	}
	if err := store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	loaded, err := store.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if loaded.CPU.Cores != 4 {
		t.Errorf("CPU.Cores = %d, want 4", loaded.CPU.Cores)
	}
	if loaded.Memory.TotalMB != 16384 {
		t.Errorf("Memory.TotalMB = %d, want 16384", loaded.Memory.TotalMB)
	}
}

func TestLoadAnswersFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-answers.yaml")
	content := "primary_use: media\nuser_count: 3\nsecurity_level: standard\nexternal_access: none\nbackup_strategy: none\nmonitoring: basic\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	answers, err := LoadAnswersFrom(path)
	if err != nil {
		t.Fatalf("LoadAnswersFrom() error = %v", err)
	}
	if answers.PrimaryUse != entity.UseMedia {
		t.Errorf("PrimaryUse = %q, want media", answers.PrimaryUse)
	}
	if answers.UserCount != 3 {
		t.Errorf("UserCount = %d, want 3", answers.UserCount)
	}

	_, err = LoadAnswersFrom(filepath.Join(dir, "absent.yaml"))
	if !errors.Is(err, domain.ErrAnswersNotFound) {
		t.Errorf("LoadAnswersFrom(absent) error = %v, want ErrAnswersNotFound", err)
	}
}
