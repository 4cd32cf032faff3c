package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/application/render"
	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

// TLSHandler issues the certificate nginx terminates with and places it
// under nginx/certs on the target. The artifact content is the SAN
// list, one name per line; traefik setups never render a tls artifact
// because its ACME resolver issues on its own.
type TLSHandler struct{}

func NewTLSHandler() *TLSHandler {
	return &TLSHandler{}
}

func (h *TLSHandler) Kind() string { return render.KindTLS }

func (h *TLSHandler) Apply(ctx context.Context, change *valueobject.Change, deps *Deps) (*Result, error) {
	if change.Type() == valueobject.ChangeTypeDelete {
		for _, p := range certPaths(change.Name()) {
			if err := deps.removeRemote(ctx, p); err != nil {
				return failed(change, err), nil
			}
		}
		return succeeded(change, "removed certificate files"), nil
	}

	if deps.SSL == nil {
		return failed(change, fmt.Errorf("%w: no certificate provider", domain.ErrCertObtainFailed)), nil
	}

	a, err := deps.artifact(change)
	if err != nil {
		return failed(change, err), nil
	}
	sans := splitSANList(string(a.Content))
	if len(sans) == 0 {
		return failed(change, fmt.Errorf("%w: empty SAN list", domain.ErrCertInvalid)), nil
	}

	cert, err := deps.SSL.ObtainCertificate(sans)
	if err != nil {
		return failed(change, fmt.Errorf("%w: %v", domain.ErrCertObtainFailed, err)), nil
	}

	paths := certPaths(change.Name())
	files := []render.Artifact{
		{Path: paths[0], Content: cert.Certificate, Mode: constants.FilePermConfig},
		{Path: paths[1], Content: cert.PrivateKey, Mode: constants.FilePermSecret},
	}
	for _, f := range files {
		if _, err := deps.upload(ctx, f); err != nil {
			return failed(change, err), nil
		}
	}

	output := fmt.Sprintf("certificate for %s via %s, valid until %s",
		change.Name(), deps.SSL.Name(), cert.NotAfter.Format("2006-01-02"))
	if change.Type() == valueobject.ChangeTypeUpdate {
		cmd := "docker restart nginx"
		if _, stderr, err := deps.Runner.Run(ctx, cmd); err != nil {
			return failed(change, fmt.Errorf("%s: %w (%s)", cmd, err, strings.TrimSpace(stderr))), nil
		}
		output += "\nrestarted nginx"
	}
	return succeeded(change, output), nil
}

// certPaths returns cert and key paths relative to the deploy dir,
// matching the mounts the nginx catalog entry declares.
func certPaths(domainName string) [2]string {
	return [2]string{
		"nginx/certs/" + domainName + ".crt",
		"nginx/certs/" + domainName + ".key",
	}
}

func splitSANList(content string) []string {
	var sans []string
	for _, line := range strings.Split(content, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			sans = append(sans, name)
		}
	}
	return sans
}
