package dns

import (
	"fmt"

	domainerr "github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

type CreatorFunc func(cfg *entity.DNSSettings, secrets map[string]string) (Provider, error)

// Factory turns the dns section of config.yaml into a live provider.
// Credentials are SecretRefs so tokens can live in the secrets list or the
// environment instead of the config file itself.
type Factory struct {
	creators map[entity.DNSProviderType]CreatorFunc
}

func NewFactory() *Factory {
	return &Factory{
		creators: map[entity.DNSProviderType]CreatorFunc{
			entity.DNSProviderCloudflare: createCloudflare,
			entity.DNSProviderAliyun:     createAliyun,
			entity.DNSProviderTencent:    createTencent,
		},
	}
}

func (f *Factory) Create(cfg *entity.DNSSettings, secrets map[string]string) (Provider, error) {
	creator, ok := f.creators[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerr.ErrUnsupportedProvider, cfg.Provider)
	}
	return creator(cfg, secrets)
}

func (f *Factory) Register(providerType entity.DNSProviderType, creator CreatorFunc) {
	f.creators[providerType] = creator
}

func resolveCredential(creds map[string]valueobject.SecretRef, key string, secrets map[string]string) (string, error) {
	ref, ok := creds[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domainerr.ErrMissingCredential, key)
	}
	return ref.Resolve(secrets)
}

func createCloudflare(cfg *entity.DNSSettings, secrets map[string]string) (Provider, error) {
	apiToken, err := resolveCredential(cfg.Credentials, "api_token", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve api_token: %w", err)
	}
	accountID := ""
	if accountIDRef, ok := cfg.Credentials["account_id"]; ok {
		accountID, err = accountIDRef.Resolve(secrets)
		if err != nil {
			return nil, fmt.Errorf("resolve account_id: %w", err)
		}
	}
	return NewCloudflareProvider(apiToken, accountID), nil
}

func createAliyun(cfg *entity.DNSSettings, secrets map[string]string) (Provider, error) {
	accessKeyID, err := resolveCredential(cfg.Credentials, "access_key_id", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve access_key_id: %w", err)
	}
	accessKeySecret, err := resolveCredential(cfg.Credentials, "access_key_secret", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve access_key_secret: %w", err)
	}
	return NewAliyunProvider(accessKeyID, accessKeySecret)
}

func createTencent(cfg *entity.DNSSettings, secrets map[string]string) (Provider, error) {
	secretID, err := resolveCredential(cfg.Credentials, "secret_id", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve secret_id: %w", err)
	}
	secretKey, err := resolveCredential(cfg.Credentials, "secret_key", secrets)
	if err != nil {
		return nil, fmt.Errorf("resolve secret_key: %w", err)
	}
	return NewTencentProvider(secretID, secretKey)
}
