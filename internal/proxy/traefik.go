package proxy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
)

const (
	secureHeadersMiddleware = "secure-headers"
	autheliaMiddleware      = "authelia"
)

// MiddlewareRefs lists the file-provider middlewares that compose
// labels attach to every routed service.
func MiddlewareRefs(authelia bool) []string {
	refs := []string{secureHeadersMiddleware + "@file"}
	if authelia {
		refs = append(refs, autheliaMiddleware+"@file")
	}
	return refs
}

type entryPointRedirect struct {
	EntryPoint struct {
		To     string `yaml:"to"`
		Scheme string `yaml:"scheme"`
	} `yaml:"entryPoint"`
}

type entryPointHTTP struct {
	Redirections *entryPointRedirect `yaml:"redirections,omitempty"`
}

type entryPoint struct {
	Address string          `yaml:"address"`
	HTTP    *entryPointHTTP `yaml:"http,omitempty"`
}

type dockerProvider struct {
	Endpoint         string `yaml:"endpoint"`
	ExposedByDefault bool   `yaml:"exposedByDefault"`
	Network          string `yaml:"network"`
}

type fileProvider struct {
	Directory string `yaml:"directory"`
	Watch     bool   `yaml:"watch"`
}

type acmeHTTPChallenge struct {
	EntryPoint string `yaml:"entryPoint"`
}

type acmeConfig struct {
	Email         string             `yaml:"email"`
	Storage       string             `yaml:"storage"`
	HTTPChallenge *acmeHTTPChallenge `yaml:"httpChallenge,omitempty"`
}

type certResolver struct {
	ACME acmeConfig `yaml:"acme"`
}

type traefikStatic struct {
	Global struct {
		CheckNewVersion    bool `yaml:"checkNewVersion"`
		SendAnonymousUsage bool `yaml:"sendAnonymousUsage"`
	} `yaml:"global"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	EntryPoints map[string]entryPoint `yaml:"entryPoints"`
	Providers   struct {
		Docker dockerProvider `yaml:"docker"`
		File   fileProvider   `yaml:"file"`
	} `yaml:"providers"`
	CertificatesResolvers map[string]certResolver `yaml:"certificatesResolvers,omitempty"`
}

type headersMiddleware struct {
	BrowserXSSFilter        bool   `yaml:"browserXssFilter"`
	ContentTypeNosniff      bool   `yaml:"contentTypeNosniff"`
	CustomFrameOptionsValue string `yaml:"customFrameOptionsValue"`
	ReferrerPolicy          string `yaml:"referrerPolicy"`
	STSSeconds              int    `yaml:"stsSeconds,omitempty"`
	STSIncludeSubdomains    bool   `yaml:"stsIncludeSubdomains,omitempty"`
}

type forwardAuthMiddleware struct {
	Address             string   `yaml:"address"`
	TrustForwardHeader  bool     `yaml:"trustForwardHeader"`
	AuthResponseHeaders []string `yaml:"authResponseHeaders"`
}

type middleware struct {
	Headers     *headersMiddleware     `yaml:"headers,omitempty"`
	ForwardAuth *forwardAuthMiddleware `yaml:"forwardAuth,omitempty"`
}

type traefikDynamic struct {
	HTTP struct {
		Middlewares map[string]middleware `yaml:"middlewares"`
	} `yaml:"http"`
}

type TraefikGenerator struct{}

func NewTraefikGenerator() *TraefikGenerator {
	return &TraefikGenerator{}
}

// Static renders traefik.yml. Routers come from the docker provider
// via compose labels; the file provider only carries middlewares.
func (g *TraefikGenerator) Static(in Input) (string, error) {
	if in.Domain == "" {
		return "", fmt.Errorf("%w: traefik config needs a domain", domain.ErrRenderFailed)
	}

	cfg := traefikStatic{
		EntryPoints: map[string]entryPoint{
			"web":       {Address: ":80"},
			"websecure": {Address: ":443"},
		},
	}
	cfg.Log.Level = "INFO"
	cfg.Providers.Docker = dockerProvider{
		Endpoint:         "unix:///var/run/docker.sock",
		ExposedByDefault: false,
		Network:          constants.DockerNetwork,
	}
	cfg.Providers.File = fileProvider{
		Directory: "/etc/traefik/dynamic",
		Watch:     true,
	}

	// Behind a tunnel the edge owns TLS; traffic arrives on web and no
	// certificates are issued. Otherwise http redirects to https and
	// the letsencrypt resolver answers challenges on the web port.
	if in.TLS {
		web := cfg.EntryPoints["web"]
		redirect := &entryPointRedirect{}
		redirect.EntryPoint.To = "websecure"
		redirect.EntryPoint.Scheme = "https"
		web.HTTP = &entryPointHTTP{Redirections: redirect}
		cfg.EntryPoints["web"] = web

		cfg.CertificatesResolvers = map[string]certResolver{
			"letsencrypt": {ACME: acmeConfig{
				Email:         in.email(),
				Storage:       "/acme/acme.json",
				HTTPChallenge: &acmeHTTPChallenge{EntryPoint: "web"},
			}},
		}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("%w: marshal traefik static config: %v", domain.ErrRenderFailed, err)
	}
	return string(data), nil
}

// Dynamic renders the file-provider config with the shared middlewares.
func (g *TraefikGenerator) Dynamic(in Input) (string, error) {
	cfg := traefikDynamic{}
	cfg.HTTP.Middlewares = map[string]middleware{
		secureHeadersMiddleware: {Headers: &headersMiddleware{
			BrowserXSSFilter:        true,
			ContentTypeNosniff:      true,
			CustomFrameOptionsValue: "SAMEORIGIN",
			ReferrerPolicy:          "no-referrer-when-downgrade",
			STSSeconds:              stsSeconds(in.TLS),
			STSIncludeSubdomains:    in.TLS,
		}},
	}

	if in.hasService("authelia") {
		cfg.HTTP.Middlewares[autheliaMiddleware] = middleware{
			ForwardAuth: &forwardAuthMiddleware{
				Address:            "http://authelia:9091/api/verify?rd=https://auth." + in.Domain,
				TrustForwardHeader: true,
				AuthResponseHeaders: []string{
					"Remote-User", "Remote-Groups", "Remote-Name", "Remote-Email",
				},
			},
		}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("%w: marshal traefik dynamic config: %v", domain.ErrRenderFailed, err)
	}
	return string(data), nil
}

func stsSeconds(tls bool) int {
	if tls {
		return 31536000
	}
	return 0
}
