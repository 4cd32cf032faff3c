package constants

import (
	"os"
	"time"
)

const (
	// DeployBaseDir is where rendered artifacts live on the target host.
	DeployBaseDir = "/opt/homelab"

	ComposeFileName = "docker-compose.yml"
	EnvFileName     = ".env"
	StateFileName   = "state.yaml"

	DockerNetwork = "homelab"

	RemoteTempFileFmt = "/tmp/labops-%d"

	WireGuardSubnet   = "10.13.13.0/24"
	WireGuardPort     = 51820
	WireGuardIface    = "wg0"
	MaxWireGuardPeers = 250

	MinPortNumber = 1
	MaxPortNumber = 65535

	DefaultDNSRecordTTL = 600
	// ChallengeRecordTTL keeps ACME TXT records short-lived so stale
	// challenge values expire quickly between issuance runs.
	ChallengeRecordTTL = 120

	// Ports already taken on the host push catalog defaults up by this step.
	PortConflictStep = 1000

	DefaultRestartPolicy = "unless-stopped"
	ComposeVersion       = "3.8"
)

// LockRetryInterval is how often state lock acquisition retries while
// another invocation holds it.
const LockRetryInterval = 100 * time.Millisecond

const (
	FilePermSecret os.FileMode = 0o600
	FilePermConfig os.FileMode = 0o644
	FilePermScript os.FileMode = 0o755
	DirPermPrivate os.FileMode = 0o700
	DirPermShared  os.FileMode = 0o755
)
