package repository

import (
	"context"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

// ConfigStore persists tool settings, survey answers and the last scan.
type ConfigStore interface {
	LoadSettings(ctx context.Context) (*entity.Settings, error)
	SaveSettings(ctx context.Context, s *entity.Settings) error
	LoadAnswers(ctx context.Context) (*entity.Answers, error)
	SaveAnswers(ctx context.Context, a *entity.Answers) error
	LoadProfile(ctx context.Context) (*entity.HostProfile, error)
	SaveProfile(ctx context.Context, p *entity.HostProfile) error
}
