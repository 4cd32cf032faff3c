package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/catalog"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
	"github.com/lite-lake/homelab-ops/internal/infrastructure/secrets"
)

// BuildEnv renders the .env file holding invented credentials and the
// timezone. Compose interpolates ${VAR} references in the stack from
// this file. A non-nil vault keeps credentials stable between runs;
// without one every call invents fresh values.
func BuildEnv(selections []service.Selection, timezone string, vault *secrets.Vault) (string, error) {
	if timezone == "" {
		timezone = "UTC"
	}

	generated := make(map[string]string)
	var external []string

	for _, sel := range selections {
		specs := make([]catalog.SecretSpec, 0, len(sel.Service.Secrets)+2)
		specs = append(specs, sel.Service.Secrets...)
		if sel.Service.Sidecar != nil {
			specs = append(specs, sel.Service.Sidecar.Secrets...)
		}
		for _, spec := range specs {
			if _, done := generated[spec.EnvKey]; done || containsKey(external, spec.EnvKey) {
				continue
			}
			if spec.Kind == catalog.SecretExternal {
				external = append(external, spec.EnvKey)
				continue
			}
			generate := generatorFor(spec.Kind)
			var value string
			var err error
			if vault != nil {
				value, err = vault.Ensure(spec.EnvKey, generate)
			} else {
				value, err = generate()
			}
			if err != nil {
				return "", fmt.Errorf("%w: %s: %v", domain.ErrRenderFailed, spec.EnvKey, err)
			}
			generated[spec.EnvKey] = value
		}
	}

	keys := make([]string, 0, len(generated))
	for key := range generated {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	sort.Strings(external)

	var sb strings.Builder
	sb.WriteString("# Generated credentials. Keep this file private.\n")
	sb.WriteString("TZ=" + timezone + "\n")
	for _, key := range keys {
		sb.WriteString(key + "=" + generated[key] + "\n")
	}
	if len(external) > 0 {
		sb.WriteString("\n# Fill these in before starting the stack:\n")
		for _, key := range external {
			sb.WriteString(key + "=\n")
		}
	}
	return sb.String(), nil
}

func generatorFor(kind catalog.SecretKind) func() (string, error) {
	switch kind {
	case catalog.SecretToken:
		return secrets.GenerateToken
	case catalog.SecretBase64:
		return secrets.GenerateKey
	default:
		return secrets.GeneratePassword
	}
}

func containsKey(list []string, key string) bool {
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}
