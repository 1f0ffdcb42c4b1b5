// Package secrets resolves delivery-provider credentials, preferring Vault and
// falling back to static configuration when Vault is disabled.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// ProviderCredentials holds the resolved credentials for the outbound
// delivery providers.
type ProviderCredentials struct {
	EmailAPIKey   string
	SMSAccountSID string
	SMSAuthToken  string
}

// Provider resolves provider credentials.
type Provider interface {
	Credentials(ctx context.Context) (*ProviderCredentials, error)
}

// VaultProvider reads credentials from Vault KV v2.
type VaultProvider struct {
	client *vault.Client
	logger logger.Logger
}

// NewVaultProvider creates a Vault-backed credential provider.
func NewVaultProvider(cfg *config.VaultConfig, log logger.Logger) (*VaultProvider, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, errors.ErrServerError("failed to create vault client").WithCause(err)
	}
	client.SetToken(cfg.Token)

	log.Info(context.Background(), "Vault credential provider initialized",
		logger.String("address", cfg.Address),
	)

	return &VaultProvider{
		client: client,
		logger: log.WithComponent("vault_provider"),
	}, nil
}

// Credentials reads the email and SMS provider secrets.
func (p *VaultProvider) Credentials(ctx context.Context) (*ProviderCredentials, error) {
	emailData, err := p.readSecret(ctx, constants.VaultEmailCredentialsPath)
	if err != nil {
		return nil, err
	}
	smsData, err := p.readSecret(ctx, constants.VaultSMSCredentialsPath)
	if err != nil {
		return nil, err
	}

	return &ProviderCredentials{
		EmailAPIKey:   stringField(emailData, "api_key"),
		SMSAccountSID: stringField(smsData, "account_sid"),
		SMSAuthToken:  stringField(smsData, "auth_token"),
	}, nil
}

func (p *VaultProvider) readSecret(ctx context.Context, path string) (map[string]interface{}, error) {
	secret, err := p.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, errors.ErrServerError(fmt.Sprintf("failed to read vault path %s", path)).WithCause(err)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.ErrNotFound(fmt.Sprintf("vault path %s is empty", path))
	}

	// KV v2 nests the payload under "data".
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		return nested, nil
	}
	return secret.Data, nil
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// StaticProvider returns credentials straight from configuration. Used when
// Vault is disabled.
type StaticProvider struct {
	creds ProviderCredentials
}

// NewStaticProvider creates a config-backed credential provider.
func NewStaticProvider(cfg *config.NotificationsConfig) *StaticProvider {
	return &StaticProvider{
		creds: ProviderCredentials{
			EmailAPIKey:   cfg.Email.APIKey,
			SMSAccountSID: cfg.SMS.AccountSID,
			SMSAuthToken:  cfg.SMS.AuthToken,
		},
	}
}

// Credentials returns the configured credentials.
func (p *StaticProvider) Credentials(ctx context.Context) (*ProviderCredentials, error) {
	return &p.creds, nil
}

var (
	_ Provider = (*VaultProvider)(nil)
	_ Provider = (*StaticProvider)(nil)
)
