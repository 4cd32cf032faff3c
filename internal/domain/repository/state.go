package repository

import (
	"context"
	"sort"
	"time"
)

// ArtifactRecord remembers what a previous apply wrote for one artifact.
// Key is kind/name, e.g. "stack/jellyfin" or "proxy/nginx".
type ArtifactRecord struct {
	Kind       string    `yaml:"kind"`
	Name       string    `yaml:"name"`
	Hash       string    `yaml:"hash"`
	Image      string    `yaml:"image,omitempty"`
	DeployedAt time.Time `yaml:"deployed_at"`
}

type RunRecord struct {
	ID         string    `yaml:"id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty"`
	Creates    int       `yaml:"creates"`
	Updates    int       `yaml:"updates"`
	Deletes    int       `yaml:"deletes"`
	Status     string    `yaml:"status"`
}

type DeployState struct {
	Artifacts map[string]ArtifactRecord `yaml:"artifacts"`
	Runs      []RunRecord               `yaml:"runs,omitempty"`
}

func NewDeployState() *DeployState {
	return &DeployState{Artifacts: make(map[string]ArtifactRecord)}
}

func (s *DeployState) Record(rec ArtifactRecord) {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]ArtifactRecord)
	}
	s.Artifacts[rec.Kind+"/"+rec.Name] = rec
}

func (s *DeployState) Forget(kind, name string) {
	delete(s.Artifacts, kind+"/"+name)
}

func (s *DeployState) Lookup(kind, name string) (ArtifactRecord, bool) {
	rec, ok := s.Artifacts[kind+"/"+name]
	return rec, ok
}

// DeployedServices lists service names recorded under the stack kind,
// sorted for stable output. The compose and env file records live under
// the same kind and are not services.
func (s *DeployState) DeployedServices() []string {
	var names []string
	for _, rec := range s.Artifacts {
		if rec.Kind == "stack" && rec.Name != "compose" && rec.Name != "env" {
			names = append(names, rec.Name)
		}
	}
	sort.Strings(names)
	return names
}

type StateStore interface {
	Load(ctx context.Context) (*DeployState, error)
	Save(ctx context.Context, state *DeployState) error
	Reset(ctx context.Context) error
}
