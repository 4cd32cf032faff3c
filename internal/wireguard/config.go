package wireguard

import (
	"embed"
	"fmt"
	"net/netip"
	"strings"
	"text/template"

	"github.com/lite-lake/homelab-ops/internal/constants"
	"github.com/lite-lake/homelab-ops/internal/domain"
)

//go:embed templates/*.tmpl
var confTemplates embed.FS

var confTmpl = template.Must(template.ParseFS(confTemplates, "templates/*.tmpl"))

// Config describes the tunnel to generate.
type Config struct {
	// Endpoint is the address peers dial, a public IP or domain
	// without the port.
	Endpoint string
	// Peers is how many client configs to cut. Zero means one.
	Peers int
	// FullTunnel routes all client traffic through the server instead
	// of just the VPN subnet.
	FullTunnel bool
	// Keys supplies a persisted identity from a KeyStore. Nil cuts
	// fresh keypairs, which changes every device config on each run.
	Keys *KeySet
}

// Peer is one generated client with its rendered conf.
type Peer struct {
	Name      string
	IP        string
	PublicKey string
	Conf      string
}

// Bundle is the full set of rendered tunnel artifacts.
type Bundle struct {
	ServerConf      string
	ServerPublicKey string
	Peers           []Peer
}

type serverView struct {
	Address    string
	Port       int
	PrivateKey string
	Peers      []Peer
}

type peerView struct {
	PrivateKey      string
	IP              string
	DNS             string
	ServerPublicKey string
	Endpoint        string
	AllowedIPs      string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate cuts fresh keypairs and renders the server conf plus one
// conf per peer. Addresses are assigned sequentially after the server.
func (g *Generator) Generate(cfg Config) (*Bundle, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: wireguard needs a public endpoint", domain.ErrRenderFailed)
	}
	peers := cfg.Peers
	if peers <= 0 {
		peers = 1
	}
	if peers > constants.MaxWireGuardPeers {
		return nil, fmt.Errorf("%w: %d peers exceed the %s subnet",
			domain.ErrRenderFailed, peers, constants.WireGuardSubnet)
	}

	prefix, err := netip.ParsePrefix(constants.WireGuardSubnet)
	if err != nil {
		return nil, fmt.Errorf("%w: parse subnet: %v", domain.ErrRenderFailed, err)
	}
	serverIP := prefix.Addr().Next()

	serverKey, err := keyAt(cfg.Keys, -1)
	if err != nil {
		return nil, err
	}

	allowed := constants.WireGuardSubnet
	if cfg.FullTunnel {
		allowed = "0.0.0.0/0"
	}

	bundle := &Bundle{ServerPublicKey: serverKey.Public}
	ip := serverIP
	for i := 1; i <= peers; i++ {
		ip = ip.Next()
		peerKey, err := keyAt(cfg.Keys, i-1)
		if err != nil {
			return nil, err
		}

		peer := Peer{
			Name:      fmt.Sprintf("peer%d", i),
			IP:        ip.String(),
			PublicKey: peerKey.Public,
		}
		peer.Conf, err = render("peer.conf.tmpl", peerView{
			PrivateKey:      peerKey.Private,
			IP:              peer.IP,
			DNS:             serverIP.String(),
			ServerPublicKey: serverKey.Public,
			Endpoint:        fmt.Sprintf("%s:%d", cfg.Endpoint, constants.WireGuardPort),
			AllowedIPs:      allowed,
		})
		if err != nil {
			return nil, err
		}
		bundle.Peers = append(bundle.Peers, peer)
	}

	bundle.ServerConf, err = render("server.conf.tmpl", serverView{
		Address:    fmt.Sprintf("%s/%d", serverIP, prefix.Bits()),
		Port:       constants.WireGuardPort,
		PrivateKey: serverKey.Private,
		Peers:      bundle.Peers,
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// keyAt picks the stored keypair for a slot (-1 is the server, 0..n
// are peers) or generates one when the set has no entry for it. Stored
// keys missing their public half get it rederived.
func keyAt(set *KeySet, slot int) (*KeyPair, error) {
	var stored *KeyPair
	switch {
	case set == nil:
	case slot < 0:
		stored = &set.Server
	case slot < len(set.Peers):
		stored = &set.Peers[slot]
	}
	if stored == nil || stored.Private == "" {
		return NewKeyPair()
	}
	key := *stored
	if key.Public == "" {
		pub, err := PublicFromPrivate(key.Private)
		if err != nil {
			return nil, err
		}
		key.Public = pub
	}
	return &key, nil
}

func render(name string, view any) (string, error) {
	var buf strings.Builder
	if err := confTmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("%w: render %s: %v", domain.ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}
