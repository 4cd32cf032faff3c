package proxy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
)

// TunnelName is the cloudflared tunnel the setup instructions create.
const TunnelName = "homelab"

const credentialsPath = "/etc/cloudflared/credentials.json"

type ingressRule struct {
	Hostname string `yaml:"hostname,omitempty"`
	Service  string `yaml:"service"`
}

type cloudflaredConfig struct {
	Tunnel          string        `yaml:"tunnel"`
	CredentialsFile string        `yaml:"credentials-file"`
	Ingress         []ingressRule `yaml:"ingress"`
}

type CloudflaredGenerator struct{}

func NewCloudflaredGenerator() *CloudflaredGenerator {
	return &CloudflaredGenerator{}
}

// Generate renders the cloudflared config.yml. Hostname traffic is
// handed to the reverse proxy so auth and headers apply to tunnel
// traffic too; without a proxy each rule points at its container.
func (g *CloudflaredGenerator) Generate(in Input, proxyName string) (string, error) {
	if in.Domain == "" {
		return "", fmt.Errorf("%w: tunnel ingress needs a domain", domain.ErrRenderFailed)
	}
	routed := in.routed("cloudflared")
	if len(routed) == 0 {
		return "", fmt.Errorf("%w: no routed services for the tunnel", domain.ErrRenderFailed)
	}

	cfg := cloudflaredConfig{
		Tunnel:          TunnelName,
		CredentialsFile: credentialsPath,
	}
	for _, sel := range routed {
		if sel.Service.Name == proxyName {
			continue
		}
		route := sel.Service.Route
		target := fmt.Sprintf("http://%s:%d", sel.Service.Name, route.Port)
		if proxyName != "" {
			target = "http://" + proxyName + ":80"
		}
		cfg.Ingress = append(cfg.Ingress, ingressRule{
			Hostname: route.Subdomain + "." + in.Domain,
			Service:  target,
		})
	}
	cfg.Ingress = append(cfg.Ingress, ingressRule{Service: "http_status:404"})

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("%w: marshal cloudflared config: %v", domain.ErrRenderFailed, err)
	}
	return string(data), nil
}

// SetupInstructions describe the one-time tunnel bootstrap that needs
// the operator's Cloudflare account.
func SetupInstructions(domainName string) []string {
	return []string{
		"Install cloudflared locally and run: cloudflared tunnel login",
		fmt.Sprintf("Create the tunnel: cloudflared tunnel create %s", TunnelName),
		fmt.Sprintf("Copy the generated credentials JSON to %s/cloudflared/credentials.json", constants.DeployBaseDir),
		fmt.Sprintf("Route DNS through it: cloudflared tunnel route dns %s '*.%s'", TunnelName, domainName),
		"Start the stack; the cloudflared container picks the config up",
	}
}
