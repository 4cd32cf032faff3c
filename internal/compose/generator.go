package compose

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/homelab-ops/internal/catalog"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

// Input is everything stack rendering needs from the earlier pipeline
// stages.
type Input struct {
	Selections []service.Selection
	Proxy      string // nginx, traefik or empty
	Domain     string // set when a proxy routes subdomains
	// TLS means the proxy terminates https itself. Behind a tunnel it
	// stays false and routed traffic arrives as plain http.
	TLS bool
	// Middlewares are traefik middleware references attached to every
	// routed service, e.g. secure-headers@file.
	Middlewares []string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the full docker-compose file for the selection.
func (g *Generator) Generate(in Input) (string, error) {
	if len(in.Selections) == 0 {
		return "", fmt.Errorf("%w: empty selection", domain.ErrRenderFailed)
	}

	file := File{
		Version:  constants.ComposeVersion,
		Services: make(map[string]Service, len(in.Selections)),
		Networks: map[string]Network{
			constants.DockerNetwork: {Driver: "bridge"},
		},
	}

	for _, sel := range in.Selections {
		svc := g.service(sel, in)
		file.Services[sel.Service.Name] = svc

		if side := sel.Service.Sidecar; side != nil {
			name := sel.Service.Name + "-" + side.Suffix
			file.Services[name] = Service{
				Image:         side.Image,
				ContainerName: name,
				Environment:   side.Env,
				Volumes:       side.Volumes,
				Networks:      []string{constants.DockerNetwork},
				Restart:       constants.DefaultRestartPolicy,
			}
			main := file.Services[sel.Service.Name]
			main.DependsOn = append(main.DependsOn, name)
			file.Services[sel.Service.Name] = main
		}
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return "", fmt.Errorf("%w: marshal compose: %v", domain.ErrRenderFailed, err)
	}
	return string(data), nil
}

func (g *Generator) service(sel service.Selection, in Input) Service {
	spec := sel.Service

	svc := Service{
		Image:         spec.Image,
		ContainerName: spec.Name,
		Command:       spec.Command,
		Environment:   spec.Env,
		Volumes:       spec.Volumes,
		Devices:       spec.Devices,
		CapAdd:        spec.CapAdd,
		Sysctls:       spec.Sysctls,
		Networks:      []string{constants.DockerNetwork},
		Restart:       constants.DefaultRestartPolicy,
	}

	if spec.Healthcheck != nil {
		svc.Healthcheck = &Healthcheck{
			Test:     spec.Healthcheck.Test,
			Interval: spec.Healthcheck.Interval,
			Timeout:  spec.Healthcheck.Timeout,
			Retries:  spec.Healthcheck.Retries,
		}
	}

	for _, port := range sel.Ports {
		mapping := port.String()
		// The proxy terminates external traffic for routed web ports, so
		// their host binding shrinks to loopback.
		if in.Proxy != "" && spec.Route != nil && spec.Name != in.Proxy && port.Container == spec.Route.Port {
			mapping = "127.0.0.1:" + mapping
		}
		svc.Ports = append(svc.Ports, mapping)
	}

	if in.Proxy == "traefik" && spec.Route != nil && spec.Name != "traefik" && in.Domain != "" {
		svc.Labels = traefikLabels(spec.Name, spec.Route, in)
	}

	return svc
}

func traefikLabels(name string, route *catalog.Route, in Input) map[string]string {
	host := route.Subdomain + "." + in.Domain
	prefix := "traefik.http.routers." + name
	labels := map[string]string{
		"traefik.enable": "true",
		prefix + ".rule": "Host(`" + host + "`)",
		"traefik.http.services." + name + ".loadbalancer.server.port": strconv.Itoa(route.Port),
	}
	// Without TLS, tunnel traffic arrives as plain http on the web
	// entrypoint; with it, routers live on websecure and ACME issues
	// their certificates.
	if in.TLS {
		labels[prefix+".entrypoints"] = "websecure"
		labels[prefix+".tls.certresolver"] = "letsencrypt"
	} else {
		labels[prefix+".entrypoints"] = "web"
	}
	if len(in.Middlewares) > 0 {
		labels[prefix+".middlewares"] = strings.Join(in.Middlewares, ",")
	}
	return labels
}
