// Package scripts renders the operational helpers shipped next to the
// stack: backup, update, status and the ufw baseline.
package scripts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/service"
)

//go:embed templates/*.tmpl
var scriptTemplates embed.FS

var scriptTmpl = template.Must(template.ParseFS(scriptTemplates, "templates/*.tmpl"))

const defaultRetention = 7

// lanRanges are the private networks LAN-only ports stay open to.
var lanRanges = []string{"192.168.0.0/16", "10.0.0.0/8", "172.16.0.0/12"}

type Input struct {
	Selections []service.Selection
	Proxy      string
	// Retention is how many backup archives to keep. Zero means 7.
	Retention int
	// Offsite adds the restic upload stanza to backup.sh.
	Offsite bool
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders every helper script, keyed by file name.
func (g *Generator) Generate(in Input) (map[string]string, error) {
	if len(in.Selections) == 0 {
		return nil, fmt.Errorf("%w: no services to script for", domain.ErrRenderFailed)
	}
	retention := in.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	var dataDirs []string
	for _, sel := range in.Selections {
		dataDirs = append(dataDirs, "./"+sel.Service.Name)
	}

	out := make(map[string]string, 4)
	files := map[string]any{
		"backup.sh": struct {
			Retention int
			DataDirs  []string
			Offsite   bool
		}{retention, dataDirs, in.Offsite},
		"update.sh": struct{}{},
		"status.sh": struct{}{},
		"firewall.sh": struct {
			Rules []string
		}{FirewallRules(in.Selections, in.Proxy)},
	}
	for name, view := range files {
		var buf strings.Builder
		if err := scriptTmpl.ExecuteTemplate(&buf, name+".tmpl", view); err != nil {
			return nil, fmt.Errorf("%w: render %s: %v", domain.ErrRenderFailed, name, err)
		}
		out[name] = buf.String()
	}
	return out, nil
}

// FirewallRules derives the ufw rules for the selection. Ports the
// compose file binds to loopback get no rule; LAN-only ports open to
// private ranges instead of the world.
func FirewallRules(selections []service.Selection, proxy string) []string {
	var rules []string
	for _, sel := range selections {
		ports := sel.Ports
		if len(ports) == 0 {
			ports = sel.Service.Ports
		}
		for _, port := range ports {
			if loopbackBound(sel, port.Container, proxy) {
				continue
			}
			proto := port.Proto
			if proto == "" {
				proto = "tcp"
			}
			if sel.Service.LANOnly {
				for _, cidr := range lanRanges {
					rules = append(rules, fmt.Sprintf(
						"allow from %s to any port %d proto %s", cidr, port.Host, proto))
				}
				continue
			}
			rules = append(rules, fmt.Sprintf("allow %d/%s", port.Host, proto))
		}
	}
	return rules
}

// loopbackBound mirrors the compose generator's binding rule.
func loopbackBound(sel service.Selection, containerPort int, proxy string) bool {
	return proxy != "" &&
		sel.Service.Route != nil &&
		sel.Service.Name != proxy &&
		containerPort == sel.Service.Route.Port
}
