// Package survey defines the interview that turns host facts and user
// intent into Answers. The question list is ordered; AskIf gates make
// the flow branch on earlier answers, so media questions never show up
// for a development box.
package survey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

type Kind int

const (
	KindSelect Kind = iota
	KindMultiSelect
	KindBool
	KindInt
	KindText
)

type Option struct {
	Value string
	Label string
}

type Question struct {
	ID      string
	Prompt  string
	Help    string
	Kind    Kind
	Options []Option
	// Default may consult the scanned profile, e.g. suggesting
	// transcoding only when the CPU can take it.
	Default func(profile *entity.HostProfile) string
	AskIf   func(a *entity.Answers) bool
	apply   func(a *entity.Answers, raw string) error
}

// Validate checks raw against the question kind without applying it.
// Multi-select answers are comma-separated option values.
func (q *Question) Validate(raw string) error {
	switch q.Kind {
	case KindSelect:
		for _, opt := range q.Options {
			if opt.Value == raw {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not an option for %s", domain.ErrInvalidAnswer, raw, q.ID)
	case KindMultiSelect:
		for _, v := range splitMulti(raw) {
			if !q.hasOption(v) {
				return fmt.Errorf("%w: %q is not an option for %s", domain.ErrInvalidAnswer, v, q.ID)
			}
		}
	case KindBool:
		if _, err := parseBool(raw); err != nil {
			return fmt.Errorf("%w: %s wants yes or no, got %q", domain.ErrInvalidAnswer, q.ID, raw)
		}
	case KindInt:
		if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%w: %s wants a number, got %q", domain.ErrInvalidAnswer, q.ID, raw)
		}
	case KindText:
		if strings.TrimSpace(raw) == "" {
			return domain.RequiredField(q.ID)
		}
	}
	return nil
}

func (q *Question) hasOption(v string) bool {
	for _, opt := range q.Options {
		if opt.Value == v {
			return true
		}
	}
	return false
}

// splitMulti parses a comma-separated multi-select answer. An empty
// answer is an empty selection, not an error.
func splitMulti(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}

func staticDefault(v string) func(*entity.HostProfile) string {
	return func(*entity.HostProfile) string { return v }
}

func boolApply(set func(*entity.Answers, bool)) func(*entity.Answers, string) error {
	return func(a *entity.Answers, raw string) error {
		v, err := parseBool(raw)
		if err != nil {
			return err
		}
		set(a, v)
		return nil
	}
}

func intApply(set func(*entity.Answers, int)) func(*entity.Answers, string) error {
	return func(a *entity.Answers, raw string) error {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		set(a, v)
		return nil
	}
}

func yesNoOptions() []Option {
	return []Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}
}

func whenUse(uses ...entity.PrimaryUse) func(*entity.Answers) bool {
	return func(a *entity.Answers) bool {
		for _, u := range uses {
			if a.PrimaryUse == u {
				return true
			}
		}
		return false
	}
}

// Questions returns the full interview in ask order.
func Questions() []Question {
	return []Question{
		{
			ID:     "primary_use",
			Prompt: "What will this server mainly do?",
			Help:   "Picks the core set of services. Mixed asks about everything.",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "media", Label: "Media streaming"},
				{Value: "development", Label: "Development (git, CI)"},
				{Value: "smart_home", Label: "Smart home hub"},
				{Value: "privacy", Label: "Privacy (passwords, DNS)"},
				{Value: "storage", Label: "File storage and sync"},
				{Value: "monitoring", Label: "Monitoring other machines"},
				{Value: "mixed", Label: "A bit of everything"},
			},
			Default: staticDefault("media"),
			apply: func(a *entity.Answers, raw string) error {
				a.PrimaryUse = entity.PrimaryUse(raw)
				return nil
			},
		},
		{
			ID:      "user_count",
			Prompt:  "How many people will use it?",
			Kind:    KindInt,
			Default: staticDefault("1"),
			apply:   intApply(func(a *entity.Answers, v int) { a.UserCount = v }),
		},
		{
			ID:     "media_types",
			Prompt: "What kinds of media will it serve?",
			Help:   "Music and photo libraries get their own apps next to the video server.",
			Kind:   KindMultiSelect,
			Options: []Option{
				{Value: "movies", Label: "Movies"},
				{Value: "tv", Label: "TV shows"},
				{Value: "music", Label: "Music"},
				{Value: "photos", Label: "Photos"},
			},
			AskIf:   whenUse(entity.UseMedia, entity.UseMixed),
			Default: staticDefault("movies,tv"),
			apply: func(a *entity.Answers, raw string) error {
				a.MediaTypes = splitMulti(raw)
				return nil
			},
		},
		{
			ID:      "transcoding",
			Prompt:  "Will you need video transcoding?",
			Help:    "Transcoding converts media on the fly for weaker clients. Needs CPU or a GPU.",
			Kind:    KindBool,
			Options: yesNoOptions(),
			AskIf:   whenUse(entity.UseMedia, entity.UseMixed),
			Default: func(p *entity.HostProfile) string {
				if p != nil && p.CPU.Cores >= 4 {
					return "yes"
				}
				return "no"
			},
			apply: boolApply(func(a *entity.Answers, v bool) { a.Transcoding = v }),
		},
		{
			ID:      "collection_gb",
			Prompt:  "How large is your media collection, in GB?",
			Kind:    KindInt,
			AskIf:   whenUse(entity.UseMedia, entity.UseMixed),
			Default: staticDefault("500"),
			apply:   intApply(func(a *entity.Answers, v int) { a.CollectionGB = v }),
		},
		{
			ID:      "dev_database",
			Prompt:  "Do your projects need a shared database?",
			Kind:    KindBool,
			Options: yesNoOptions(),
			AskIf:   whenUse(entity.UseDevelopment, entity.UseMixed),
			Default: staticDefault("yes"),
			apply:   boolApply(func(a *entity.Answers, v bool) { a.DevDatabase = v }),
		},
		{
			ID:      "mqtt_broker",
			Prompt:  "Do your devices speak MQTT?",
			Help:    "Most Zigbee and DIY sensors publish over MQTT.",
			Kind:    KindBool,
			Options: yesNoOptions(),
			AskIf:   whenUse(entity.UseSmartHome, entity.UseMixed),
			Default: staticDefault("yes"),
			apply:   boolApply(func(a *entity.Answers, v bool) { a.MQTTBroker = v }),
		},
		{
			ID:      "storage_gb",
			Prompt:  "How much space should file sync get, in GB?",
			Kind:    KindInt,
			AskIf:   whenUse(entity.UseStorage, entity.UseMixed),
			Default: staticDefault("100"),
			apply:   intApply(func(a *entity.Answers, v int) { a.StorageGB = v }),
		},
		{
			ID:     "external_access",
			Prompt: "How should it be reachable from outside your network?",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "none", Label: "LAN only"},
				{Value: "vpn", Label: "WireGuard VPN"},
				{Value: "reverse_proxy", Label: "Reverse proxy with my own domain"},
				{Value: "tunnel", Label: "Cloudflare tunnel"},
			},
			Default: staticDefault("none"),
			apply: func(a *entity.Answers, raw string) error {
				a.ExternalAccess = entity.AccessMethod(raw)
				return nil
			},
		},
		{
			ID:      "domain",
			Prompt:  "What domain will point at the server?",
			Help:    "A domain you own, like example.dev. Subdomains are created per service.",
			Kind:    KindText,
			AskIf:   func(a *entity.Answers) bool { return a.NeedsProxy() },
			Default: staticDefault(""),
			apply: func(a *entity.Answers, raw string) error {
				a.Domain = strings.ToLower(strings.TrimSpace(raw))
				return nil
			},
		},
		{
			ID:      "remote_users",
			Prompt:  "How many devices will connect over the VPN?",
			Kind:    KindInt,
			AskIf:   func(a *entity.Answers) bool { return a.ExternalAccess == entity.AccessVPN },
			Default: staticDefault("1"),
			apply:   intApply(func(a *entity.Answers, v int) { a.RemoteUsers = v }),
		},
		{
			ID:     "security_level",
			Prompt: "How locked down should it be?",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "basic", Label: "Basic: sane defaults"},
				{Value: "standard", Label: "Standard: firewall and fail2ban"},
				{Value: "hardened", Label: "Hardened: plus intrusion detection"},
				{Value: "paranoid", Label: "Paranoid: plus SSO in front of everything"},
			},
			Default: staticDefault("standard"),
			apply: func(a *entity.Answers, raw string) error {
				a.SecurityLevel = entity.SecurityLevel(raw)
				return nil
			},
		},
		{
			ID:      "vpn_full_tunnel",
			Prompt:  "Route all client traffic through the VPN?",
			Help:    "Full tunnel sends everything through your server. Split tunnel only routes homelab addresses.",
			Kind:    KindBool,
			Options: yesNoOptions(),
			// Gated on NeedsVPN, which reads security_level for tunnel
			// setups; must stay after the security_level question.
			AskIf:   func(a *entity.Answers) bool { return a.NeedsVPN() },
			Default: staticDefault("yes"),
			apply:   boolApply(func(a *entity.Answers, v bool) { a.VPNFullTunnel = v }),
		},
		{
			ID:      "ad_blocking",
			Prompt:  "Block ads for the whole network?",
			Kind:    KindBool,
			Options: yesNoOptions(),
			Default: func(p *entity.HostProfile) string { return "yes" },
			apply:   boolApply(func(a *entity.Answers, v bool) { a.AdBlocking = v }),
		},
		{
			ID:      "auto_updates",
			Prompt:  "Update containers automatically?",
			Help:    "Unattended updates keep images fresh but can break things while you sleep.",
			Kind:    KindBool,
			Options: yesNoOptions(),
			Default: staticDefault("no"),
			apply:   boolApply(func(a *entity.Answers, v bool) { a.AutoUpdates = v }),
		},
		{
			ID:     "backup_strategy",
			Prompt: "How should data be backed up?",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "none", Label: "No backups"},
				{Value: "local", Label: "To a local disk"},
				{Value: "offsite", Label: "To another machine or cloud"},
			},
			Default: staticDefault("local"),
			apply: func(a *entity.Answers, raw string) error {
				a.BackupStrategy = entity.BackupStrategy(raw)
				return nil
			},
		},
		{
			ID:     "backup_frequency",
			Prompt: "How often?",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "daily", Label: "Daily"},
				{Value: "weekly", Label: "Weekly"},
			},
			AskIf:   func(a *entity.Answers) bool { return a.BackupStrategy != entity.BackupNone },
			Default: staticDefault("daily"),
			apply: func(a *entity.Answers, raw string) error {
				a.BackupFrequency = raw
				return nil
			},
		},
		{
			ID:     "monitoring",
			Prompt: "How much monitoring do you want?",
			Kind:   KindSelect,
			Options: []Option{
				{Value: "none", Label: "None"},
				{Value: "basic", Label: "Basic: uptime checks"},
				{Value: "full", Label: "Full: metrics and dashboards"},
			},
			Default: staticDefault("basic"),
			apply: func(a *entity.Answers, raw string) error {
				a.Monitoring = entity.MonitoringLevel(raw)
				return nil
			},
		},
		{
			ID:      "alerting",
			Prompt:  "Should it notify you when something breaks?",
			Kind:    KindBool,
			Options: yesNoOptions(),
			AskIf:   func(a *entity.Answers) bool { return a.Monitoring != entity.MonitoringNone },
			Default: staticDefault("no"),
			apply:   boolApply(func(a *entity.Answers, v bool) { a.Alerting = v }),
		},
		{
			ID:      "cpu_percent",
			Prompt:  "What share of CPU may services use, in percent?",
			Kind:    KindInt,
			Default: staticDefault("50"),
			apply:   intApply(func(a *entity.Answers, v int) { a.CPUPercent = v }),
		},
		{
			ID:      "memory_percent",
			Prompt:  "What share of memory may services use, in percent?",
			Kind:    KindInt,
			Default: staticDefault("70"),
			apply:   intApply(func(a *entity.Answers, v int) { a.MemoryPercent = v }),
		},
	}
}
