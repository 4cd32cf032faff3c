package valueobject

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

// SecretRef is either an inline value, a named secret resolved from the
// config secrets map, or an environment variable lookup. YAML accepts a
// bare string or the mapping forms {secret: name} / {env: NAME}.
type SecretRef struct {
	Plain  string `yaml:"plain,omitempty"`
	Secret string `yaml:"secret,omitempty"`
	Env    string `yaml:"env,omitempty"`
}

func NewSecretRefPlain(value string) *SecretRef {
	return &SecretRef{Plain: value}
}

func NewSecretRefSecret(name string) *SecretRef {
	return &SecretRef{Secret: name}
}

func NewSecretRefEnv(name string) *SecretRef {
	return &SecretRef{Env: name}
}

// LogValue masks the reference so secrets never reach log output.
func (s *SecretRef) LogValue() slog.Value {
	return slog.StringValue("***")
}

func (s *SecretRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var plain string
	if err := unmarshal(&plain); err == nil {
		s.Plain = plain
		return nil
	}

	type alias SecretRef
	var ref alias
	if err := unmarshal(&ref); err != nil {
		return err
	}
	s.Plain = ref.Plain
	s.Secret = ref.Secret
	s.Env = ref.Env
	return nil
}

func (s SecretRef) MarshalYAML() (interface{}, error) {
	switch {
	case s.Secret != "":
		return map[string]string{"secret": s.Secret}, nil
	case s.Env != "":
		return map[string]string{"env": s.Env}, nil
	default:
		return s.Plain, nil
	}
}

func (s *SecretRef) Resolve(secrets map[string]string) (string, error) {
	switch {
	case s.Secret != "":
		val, ok := secrets[s.Secret]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrMissingSecret, s.Secret)
		}
		return val, nil
	case s.Env != "":
		val, ok := os.LookupEnv(s.Env)
		if !ok {
			return "", fmt.Errorf("%w: $%s", domain.ErrMissingSecret, s.Env)
		}
		return val, nil
	default:
		return s.Plain, nil
	}
}

func (s *SecretRef) IsZero() bool {
	return s.Plain == "" && s.Secret == "" && s.Env == ""
}

func (s *SecretRef) Validate() error {
	if s.IsZero() {
		return domain.ErrEmptyValue
	}
	return nil
}
