package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

// Target is the machine being provisioned. A zero Host means the local
// machine; otherwise commands run over SSH.
type Target struct {
	Host     string                `yaml:"host,omitempty"`
	Port     int                   `yaml:"port,omitempty"`
	User     string                `yaml:"user,omitempty"`
	Password valueobject.SecretRef `yaml:"password,omitempty"`
	KeyFile  string                `yaml:"key_file,omitempty"`
}

func (t *Target) IsLocal() bool {
	return t.Host == ""
}

func (t *Target) Validate() error {
	if t.IsLocal() {
		return nil
	}
	if t.User == "" {
		return domain.RequiredField("target user")
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidPort, t.Port)
	}
	if t.Password.IsZero() && t.KeyFile == "" {
		return fmt.Errorf("%w: target needs a password or key_file", domain.ErrRequired)
	}
	return nil
}

func (t *Target) String() string {
	if t.IsLocal() {
		return "local"
	}
	return fmt.Sprintf("%s@%s:%d", t.User, t.Host, t.Port)
}

// ParseTarget parses the --target flag form user@host[:port].
func ParseTarget(spec string) (*Target, error) {
	if spec == "" || spec == "local" {
		return &Target{}, nil
	}

	user := ""
	rest := spec
	if at := strings.Index(spec, "@"); at >= 0 {
		user = spec[:at]
		rest = spec[at+1:]
	}
	if user == "" {
		return nil, fmt.Errorf("%w: target %q needs user@host", domain.ErrRequired, spec)
	}

	host := rest
	port := 22
	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		host = rest[:colon]
		p, err := strconv.Atoi(rest[colon+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPort, rest[colon+1:])
		}
		port = p
	}
	if host == "" {
		return nil, domain.RequiredField("target host")
	}

	return &Target{Host: host, Port: port, User: user}, nil
}
