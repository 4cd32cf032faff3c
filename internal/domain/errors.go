package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidIP       = errors.New("invalid IP address")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidCIDR     = errors.New("invalid CIDR")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrInvalidType     = errors.New("invalid type")
	ErrEmptyValue      = errors.New("empty value")
	ErrRequired        = errors.New("required field missing")
	ErrMissingSecret   = errors.New("missing secret reference")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownService  = errors.New("unknown service")
	ErrSurveyAborted   = errors.New("survey aborted")
	ErrPortConflict    = errors.New("port conflict")

	ErrProbeFailed       = errors.New("probe failed")
	ErrNetworkTimeout    = errors.New("network timeout")
	ErrPublicIPUnknown   = errors.New("public IP could not be determined")
	ErrDockerMissing     = errors.New("docker not installed")
	ErrComposeMissing    = errors.New("docker compose not installed")
	ErrTargetUnreachable = errors.New("target unreachable")

	ErrSSHConnectFailed = errors.New("SSH connection failed")
	ErrSSHCommandFailed = errors.New("SSH command execution failed")
	ErrSSHFileTransfer  = errors.New("SSH file transfer failed")

	ErrConfigReadFailed  = errors.New("config read failed")
	ErrConfigParseFailed = errors.New("config parse failed")
	ErrConfigNotFound    = errors.New("config not found")
	ErrAnswersNotFound   = errors.New("answers not found")

	ErrStateReadFailed  = errors.New("state read failed")
	ErrStateWriteFailed = errors.New("state write failed")
	ErrStateCorrupt     = errors.New("state file corrupt")

	ErrRenderFailed = errors.New("artifact render failed")
	ErrDeployFailed = errors.New("deploy failed")
	ErrNoHandler    = errors.New("no handler registered")

	ErrDNSError            = errors.New("DNS operation failed")
	ErrDNSRecordNotFound   = errors.New("DNS record not found")
	ErrDNSDomainNotFound   = errors.New("DNS domain not found")
	ErrUnsupportedProvider = errors.New("unsupported provider type")
	ErrMissingCredential   = errors.New("missing credential")
	ErrCertObtainFailed    = errors.New("certificate obtain failed")
	ErrCertRenewFailed     = errors.New("certificate renew failed")
	ErrCertInvalid         = errors.New("certificate invalid")
)

func RequiredField(field string) error {
	return fmt.Errorf("%w: %s", ErrRequired, field)
}

func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func WrapEntity(entity, name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s[%s]: %w", entity, name, err)
}
