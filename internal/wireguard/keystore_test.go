package wireguard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKeyStoreLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wireguard.yaml")
	store := NewKeyStore(path)

	set, err := store.LoadOrCreate(2)
	if err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	if set.Server.Private == "" || set.Server.Public == "" {
		t.Fatal("server keypair not generated")
	}
	if len(set.Peers) != 2 {
		t.Fatalf("peers = %d, want 2", len(set.Peers))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key store: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key store mode = %o, want 0600", info.Mode().Perm())
	}

	// A second load returns the same identity and tops up new peers
	// without touching existing ones.
	again, err := store.LoadOrCreate(3)
	if err != nil {
		t.Fatalf("second LoadOrCreate() error = %v", err)
	}
	if again.Server.Private != set.Server.Private {
		t.Error("server key regenerated on reload")
	}
	if len(again.Peers) != 3 {
		t.Fatalf("peers after top-up = %d, want 3", len(again.Peers))
	}
	for i := range set.Peers {
		if again.Peers[i].Private != set.Peers[i].Private {
			t.Errorf("peer %d key regenerated on reload", i)
		}
	}
}

func TestGenerateWithStoredKeys(t *testing.T) {
	store := NewKeyStore(filepath.Join(t.TempDir(), "wireguard.yaml"))
	set, err := store.LoadOrCreate(2)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{Endpoint: "vpn.example.dev", Peers: 2, Keys: set}
	first, err := NewGenerator().Generate(cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := NewGenerator().Generate(cfg)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}

	if first.ServerConf != second.ServerConf {
		t.Error("server conf differs across runs with stored keys")
	}
	for i := range first.Peers {
		if first.Peers[i].Conf != second.Peers[i].Conf {
			t.Errorf("peer %d conf differs across runs with stored keys", i)
		}
	}
	if first.ServerPublicKey != set.Server.Public {
		t.Errorf("server public key = %q, want stored %q", first.ServerPublicKey, set.Server.Public)
	}
	if !strings.Contains(first.Peers[0].Conf, "PrivateKey = "+set.Peers[0].Private) {
		t.Error("peer conf does not use stored private key")
	}
}

func TestKeyStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wireguard.yaml")
	if err := os.WriteFile(path, []byte("peers: [not: {a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewKeyStore(path).LoadOrCreate(1); err == nil {
		t.Error("corrupt key store accepted")
	}
}
