package entity

import (
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/domain"
)

type PrimaryUse string

const (
	UseMedia       PrimaryUse = "media"
	UseDevelopment PrimaryUse = "development"
	UseSmartHome   PrimaryUse = "smart_home"
	UsePrivacy     PrimaryUse = "privacy"
	UseStorage     PrimaryUse = "storage"
	UseMonitoring  PrimaryUse = "monitoring"
	UseMixed       PrimaryUse = "mixed"
)

func PrimaryUses() []PrimaryUse {
	return []PrimaryUse{UseMedia, UseDevelopment, UseSmartHome, UsePrivacy, UseStorage, UseMonitoring, UseMixed}
}

type AccessMethod string

const (
	AccessNone         AccessMethod = "none"
	AccessVPN          AccessMethod = "vpn"
	AccessReverseProxy AccessMethod = "reverse_proxy"
	AccessTunnel       AccessMethod = "tunnel"
)

type SecurityLevel string

const (
	SecurityBasic    SecurityLevel = "basic"
	SecurityStandard SecurityLevel = "standard"
	SecurityHardened SecurityLevel = "hardened"
	SecurityParanoid SecurityLevel = "paranoid"
)

type BackupStrategy string

const (
	BackupNone    BackupStrategy = "none"
	BackupLocal   BackupStrategy = "local"
	BackupOffsite BackupStrategy = "offsite"
)

type MonitoringLevel string

const (
	MonitoringNone  MonitoringLevel = "none"
	MonitoringBasic MonitoringLevel = "basic"
	MonitoringFull  MonitoringLevel = "full"
)

// Answers is a completed survey. Field names double as question IDs in
// the survey flow; keep the yaml tags in sync with survey.Questions.
type Answers struct {
	PrimaryUse      PrimaryUse      `yaml:"primary_use"`
	UserCount       int             `yaml:"user_count"`
	ExternalAccess  AccessMethod    `yaml:"external_access"`
	Domain          string          `yaml:"domain,omitempty"`
	RemoteUsers     int             `yaml:"remote_users,omitempty"`
	VPNFullTunnel   bool            `yaml:"vpn_full_tunnel,omitempty"`
	SecurityLevel   SecurityLevel   `yaml:"security_level"`
	AdBlocking      bool            `yaml:"ad_blocking"`
	AutoUpdates     bool            `yaml:"auto_updates"`
	BackupStrategy  BackupStrategy  `yaml:"backup_strategy"`
	BackupFrequency string          `yaml:"backup_frequency,omitempty"`
	Monitoring      MonitoringLevel `yaml:"monitoring"`
	Alerting        bool            `yaml:"alerting,omitempty"`
	CPUPercent      int             `yaml:"cpu_percent"`
	MemoryPercent   int             `yaml:"memory_percent"`

	// Per-use extras. Only the branch matching PrimaryUse is asked.
	MediaTypes   []string `yaml:"media_types,omitempty"`   // media
	Transcoding  bool     `yaml:"transcoding,omitempty"`   // media
	CollectionGB int      `yaml:"collection_gb,omitempty"` // media
	DevDatabase  bool     `yaml:"dev_database,omitempty"`  // development
	MQTTBroker   bool     `yaml:"mqtt_broker,omitempty"`   // smart_home
	StorageGB    int      `yaml:"storage_gb,omitempty"`    // storage
}

// MediaTypeValues are the accepted media_types entries.
var MediaTypeValues = []string{"movies", "tv", "music", "photos"}

func (a *Answers) Validate() error {
	if !containsEnum(PrimaryUses(), a.PrimaryUse) {
		return fmt.Errorf("%w: primary_use %q", domain.ErrInvalidAnswer, a.PrimaryUse)
	}
	if a.UserCount < 1 {
		return fmt.Errorf("%w: user_count must be at least 1", domain.ErrInvalidAnswer)
	}
	switch a.ExternalAccess {
	case AccessNone, AccessVPN, AccessReverseProxy, AccessTunnel:
	default:
		return fmt.Errorf("%w: external_access %q", domain.ErrInvalidAnswer, a.ExternalAccess)
	}
	if (a.ExternalAccess == AccessReverseProxy || a.ExternalAccess == AccessTunnel) && a.Domain == "" {
		return domain.RequiredField("domain")
	}
	switch a.SecurityLevel {
	case SecurityBasic, SecurityStandard, SecurityHardened, SecurityParanoid:
	default:
		return fmt.Errorf("%w: security_level %q", domain.ErrInvalidAnswer, a.SecurityLevel)
	}
	switch a.BackupStrategy {
	case BackupNone, BackupLocal, BackupOffsite:
	default:
		return fmt.Errorf("%w: backup_strategy %q", domain.ErrInvalidAnswer, a.BackupStrategy)
	}
	switch a.Monitoring {
	case MonitoringNone, MonitoringBasic, MonitoringFull:
	default:
		return fmt.Errorf("%w: monitoring %q", domain.ErrInvalidAnswer, a.Monitoring)
	}
	if a.CPUPercent < 10 || a.CPUPercent > 90 {
		return fmt.Errorf("%w: cpu_percent %d outside 10-90", domain.ErrInvalidAnswer, a.CPUPercent)
	}
	if a.MemoryPercent < 10 || a.MemoryPercent > 90 {
		return fmt.Errorf("%w: memory_percent %d outside 10-90", domain.ErrInvalidAnswer, a.MemoryPercent)
	}
	if a.ExternalAccess == AccessVPN && a.RemoteUsers < 1 {
		return fmt.Errorf("%w: remote_users must be at least 1 for vpn access", domain.ErrInvalidAnswer)
	}
	for _, mt := range a.MediaTypes {
		if !containsEnum(MediaTypeValues, mt) {
			return fmt.Errorf("%w: media_types %q", domain.ErrInvalidAnswer, mt)
		}
	}
	return nil
}

// WantsMedia reports whether the library includes t. An unset
// media_types answer means the classic movies-and-tv library.
func (a *Answers) WantsMedia(t string) bool {
	if len(a.MediaTypes) == 0 {
		return t == "movies" || t == "tv"
	}
	for _, mt := range a.MediaTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// NeedsProxy reports whether the answers call for a reverse proxy.
func (a *Answers) NeedsProxy() bool {
	return a.ExternalAccess == AccessReverseProxy || a.ExternalAccess == AccessTunnel
}

func (a *Answers) NeedsVPN() bool {
	if a.ExternalAccess == AccessVPN {
		return true
	}
	return a.ExternalAccess == AccessTunnel && a.SecurityLevel == SecurityParanoid
}

func containsEnum[T comparable](valid []T, v T) bool {
	for _, x := range valid {
		if x == v {
			return true
		}
	}
	return false
}
