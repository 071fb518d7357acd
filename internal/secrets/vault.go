package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/hashicorp/vault/api"

	"cryptoforge/internal/config"
)

// VaultRetriever reads credentials from a KV v2 mount. The client is safe for concurrent
// use and holds no per-credential state, so every call goes back to Vault.
type VaultRetriever struct {
	client *api.Client
	logger *slog.Logger
}

func NewVaultRetriever(cfg config.VaultConfig, logger *slog.Logger) (*VaultRetriever, error) {
	vaultConf := api.DefaultConfig()
	if vaultConf.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", vaultConf.Error)
	}
	vaultConf.Address = cfg.Address
	vaultConf.Timeout = cfg.Timeout
	vaultConf.MaxRetries = 0

	if cfg.TLSSkipVerify {
		if err := vaultConf.ConfigureTLS(&api.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure vault TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConf)
	if err != nil {
		return nil, fmt.Errorf("could not create Vault API client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &VaultRetriever{
		client: client,
		logger: logger.With("component", "vault"),
	}, nil
}

// GetCredential reads mount/data/subpath and expects username and password strings
// nested under data.data.
func (v *VaultRetriever) GetCredential(ctx context.Context, path string) (Credential, error) {
	mount, subpath, err := SplitPath(path)
	if err != nil {
		return Credential{}, err
	}

	v.logger.Debug("reading credential", "mount", mount, "path", subpath)

	secret, err := v.client.Logical().ReadWithContext(ctx, mount+"/data/"+subpath)
	if err != nil {
		return Credential{}, classifyVaultError(path, err)
	}
	if secret == nil {
		return Credential{}, &SecretError{Path: path, Reason: "secret not found"}
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return Credential{}, &SecretError{Path: path, Reason: "response is missing nested data"}
	}

	username, ok := data["username"].(string)
	if !ok || username == "" {
		return Credential{}, &SecretError{Path: path, Reason: "secret has no username"}
	}
	password, ok := data["password"].(string)
	if !ok || password == "" {
		return Credential{}, &SecretError{Path: path, Reason: "secret has no password"}
	}

	return Credential{Username: username, Password: password}, nil
}

// IsAuthenticated reports whether the configured token is accepted by Vault.
func (v *VaultRetriever) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := v.client.Auth().Token().LookupSelfWithContext(ctx)
	if err == nil {
		return true, nil
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) && (respErr.StatusCode == http.StatusForbidden || respErr.StatusCode == http.StatusUnauthorized) {
		return false, nil
	}
	return false, classifyVaultError("auth/token/lookup-self", err)
}

// ListSecrets returns the keys directly below path, sorted. Folders keep their trailing slash.
func (v *VaultRetriever) ListSecrets(ctx context.Context, path string) ([]string, error) {
	mount, subpath, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	secret, err := v.client.Logical().ListWithContext(ctx, mount+"/metadata/"+subpath)
	if err != nil {
		return nil, classifyVaultError(path, err)
	}
	if secret == nil {
		return []string{}, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, &SecretError{Path: path, Reason: "list response is missing keys"}
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func classifyVaultError(path string, err error) error {
	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		return &SecretError{Path: path, Reason: fmt.Sprintf("vault returned status %d", respErr.StatusCode), Err: err}
	}
	return &SecretError{Path: path, Reason: "vault unreachable", Err: err}
}
