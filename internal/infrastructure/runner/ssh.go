package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

// SSH runs commands on a remote target over one SSH connection, with
// file operations going through SFTP.
type SSH struct {
	client *ssh.Client
	target string
	user   string
}

func Dial(target *entity.Target, secrets map[string]string) (*SSH, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	var auth []ssh.AuthMethod
	if target.KeyFile != "" {
		keyPath := expandHome(target.KeyFile)
		keyData, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, domain.WrapOp("read ssh key", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, domain.WrapOp("parse ssh key", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if !target.Password.IsZero() {
		password, err := target.Password.Resolve(secrets)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.Password(password))
	}

	hostKeyCallback, err := newHostKeyCallback()
	if err != nil {
		return nil, domain.WrapOp("host key callback", err)
	}

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
	}

	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSSHConnectFailed, addr, err)
	}

	return &SSH{client: client, target: target.String(), user: target.User}, nil
}

// newHostKeyCallback verifies against ~/.ssh/known_hosts and appends
// unknown hosts on first contact. A changed key is always an error.
func newHostKeyCallback() (ssh.HostKeyCallback, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0o600); err != nil {
			return nil, err
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err == nil {
			return nil
		}

		keyErr, ok := err.(*knownhosts.KeyError)
		if !ok {
			return err
		}
		if len(keyErr.Want) > 0 {
			return fmt.Errorf("host key mismatch for %s: possible MITM attack", hostname)
		}

		line := knownhosts.Line([]string{hostname}, key)
		f, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open known_hosts: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("append known_hosts: %w", err)
		}
		return nil
	}, nil
}

func (s *SSH) Run(ctx context.Context, cmd string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	session, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrSSHCommandFailed, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(cmd)
	return stdout.String(), stderr.String(), err
}

func (s *SSH) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSSHFileTransfer, err)
	}
	defer sftpClient.Close()

	f, err := sftpClient.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (s *SSH) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSSHFileTransfer, err)
	}
	defer sftpClient.Close()

	if err := sftpClient.MkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", domain.ErrSSHFileTransfer, filepath.Dir(path), err)
	}

	// Write then rename so a dropped connection never leaves a torn file.
	tmpPath := path + ".tmp"
	f, err := sftpClient.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrSSHFileTransfer, tmpPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrSSHFileTransfer, tmpPath, err)
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("%w: chmod %s: %v", domain.ErrSSHFileTransfer, tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrSSHFileTransfer, tmpPath, err)
	}
	if err := sftpClient.PosixRename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", domain.ErrSSHFileTransfer, path, err)
	}
	return nil
}

func (s *SSH) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSSHFileTransfer, err)
	}
	defer sftpClient.Close()

	if err := sftpClient.MkdirAll(path); err != nil {
		return err
	}
	return sftpClient.Chmod(path, perm)
}

func (s *SSH) FileExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrSSHFileTransfer, err)
	}
	defer sftpClient.Close()

	_, err = sftpClient.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SSH) Target() string { return s.target }

func (s *SSH) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
