// Package proxy renders reverse proxy and tunnel ingress configuration
// for the selected stack. Nginx sites come from an embedded template,
// traefik and cloudflared configs are typed structs marshalled to YAML.
package proxy

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

// Input carries what proxy rendering needs from the earlier pipeline
// stages.
type Input struct {
	Selections []service.Selection
	Domain     string
	// TLS means the proxy terminates https itself. Behind a tunnel the
	// edge terminates TLS and the proxy serves plain http.
	TLS bool
	// ACMEEmail is the registration address for certificate issuance.
	// Empty falls back to admin@<domain>.
	ACMEEmail string
}

// routed returns the selections a proxy forwards to, skipping the
// proxy itself.
func (in *Input) routed(self string) []service.Selection {
	var out []service.Selection
	for _, sel := range in.Selections {
		if sel.Service.Route == nil || sel.Service.Name == self {
			continue
		}
		out = append(out, sel)
	}
	return out
}

func (in *Input) hasService(name string) bool {
	for _, sel := range in.Selections {
		if sel.Service.Name == name {
			return true
		}
	}
	return false
}

func (in *Input) email() string {
	if in.ACMEEmail != "" {
		return in.ACMEEmail
	}
	return "admin@" + in.Domain
}

//go:embed templates/nginx.conf.tmpl
var nginxTemplate string

var nginxTmpl = template.Must(template.New("nginx").Parse(nginxTemplate))

type nginxSite struct {
	ServerName string
	Upstream   string
	// Protected sites sit behind the authelia auth gate.
	Protected bool
}

type nginxView struct {
	TLS      bool
	CertPath string
	KeyPath  string
	AuthHost string
	Sites    []nginxSite
}

type NginxGenerator struct{}

func NewNginxGenerator() *NginxGenerator {
	return &NginxGenerator{}
}

// Generate renders the conf.d site file with one server block per
// routed service. Certificate paths follow the certs volume layout,
// /etc/nginx/certs/<domain>/.
func (g *NginxGenerator) Generate(in Input) (string, error) {
	if in.Domain == "" {
		return "", fmt.Errorf("%w: nginx sites need a domain", domain.ErrRenderFailed)
	}
	routed := in.routed("nginx")
	if len(routed) == 0 {
		return "", fmt.Errorf("%w: no routed services for nginx", domain.ErrRenderFailed)
	}

	authelia := in.hasService("authelia")
	view := nginxView{
		TLS:      in.TLS,
		CertPath: "/etc/nginx/certs/" + in.Domain + "/fullchain.pem",
		KeyPath:  "/etc/nginx/certs/" + in.Domain + "/privkey.pem",
		AuthHost: "auth." + in.Domain,
	}
	for _, sel := range routed {
		route := sel.Service.Route
		view.Sites = append(view.Sites, nginxSite{
			ServerName: route.Subdomain + "." + in.Domain,
			Upstream:   fmt.Sprintf("http://%s:%d", sel.Service.Name, route.Port),
			Protected:  authelia && sel.Service.Name != "authelia",
		})
	}

	var buf strings.Builder
	if err := nginxTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: nginx template: %v", domain.ErrRenderFailed, err)
	}
	return buf.String(), nil
}
