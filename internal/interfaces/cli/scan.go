package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

func newScanCommand(ctx *Context) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Probe the target host",
		Long:  "Scan hardware, OS, network and installed software on the target, and cache the profile for the later stages.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), ctx, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw profile as JSON")

	return cmd
}

func runScan(c context.Context, ctx *Context, asJSON bool) error {
	w, err := ctx.Workflow(c)
	if err != nil {
		return err
	}
	settings, err := w.Settings(c)
	if err != nil {
		return err
	}
	r, err := ctx.Runner(settings)
	if err != nil {
		return err
	}
	defer r.Close()

	if !asJSON {
		fmt.Printf("Scanning %s...\n\n", TargetStyle.Render(r.Target()))
	}
	profile, err := w.Scan(c, r)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(formatScanReport(profile))
	return nil
}

func formatScanReport(p *entity.HostProfile) string {
	var sb strings.Builder
	host := p.Hostname
	if host == "" {
		host = "unknown"
	}
	sb.WriteString(fmt.Sprintf("[%s] Host Scan\n", host))

	osLine := p.OS.PrettyName
	if osLine == "" {
		osLine = "unknown"
	}
	if p.OS.Arch != "" {
		osLine += " (" + p.OS.Arch + ")"
	}
	sb.WriteString(fmt.Sprintf("  %-14s %s\n", "OS:", osLine))
	if p.Virtualization != "" && p.Virtualization != "none" {
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", "Virtualized:", p.Virtualization))
	}
	sb.WriteString(fmt.Sprintf("  %-14s %d cores", "CPU:", p.CPU.Cores))
	if p.CPU.Model != "" {
		sb.WriteString(" (" + p.CPU.Model + ")")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %-14s %d MB total, %d MB available\n", "Memory:", p.Memory.TotalMB, p.Memory.AvailableMB))
	for _, d := range p.Disks {
		sb.WriteString(fmt.Sprintf("  %-14s %d GB, %d GB free\n", "Disk "+d.Mount+":", d.SizeGB, d.FreeGB))
	}

	netLine := "gateway " + valueOr(p.Network.Gateway, "unknown")
	if p.Network.PublicIP != "" {
		netLine += ", public IP " + p.Network.PublicIP
	}
	if p.Network.BehindCGNAT {
		netLine += " (CGNAT)"
	} else if p.Network.BehindNAT {
		netLine += " (NAT)"
	}
	sb.WriteString(fmt.Sprintf("  %-14s %s\n", "Network:", netLine))
	if len(p.Network.ListeningPorts) > 0 {
		ports := make([]string, len(p.Network.ListeningPorts))
		for i, port := range p.Network.ListeningPorts {
			ports[i] = fmt.Sprintf("%d", port)
		}
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", "Listening:", strings.Join(ports, ", ")))
	}

	switch p.Network.Firewall {
	case "", "none":
		sb.WriteString(fmt.Sprintf("  %-14s ⚠️ none detected\n", "Firewall:"))
	default:
		sb.WriteString(fmt.Sprintf("  %-14s ✅ %s\n", "Firewall:", p.Network.Firewall))
	}

	sb.WriteString("  Software:\n")
	for _, sw := range p.Software {
		icon := "❌"
		detail := "not installed"
		if sw.Installed {
			icon = "✅"
			detail = valueOr(sw.Version, "installed")
		}
		sb.WriteString(fmt.Sprintf("    %-16s %s %s\n", sw.Name+":", icon, detail))
	}
	if p.DockerRunning {
		sb.WriteString(fmt.Sprintf("    %-16s ✅ running\n", "docker daemon:"))
	} else {
		sb.WriteString(fmt.Sprintf("    %-16s ⚠️ not running\n", "docker daemon:"))
	}
	return sb.String()
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
