// Package vault reads secrets the dashboard needs at startup, for
// deployments where the analytics API token lives in Vault instead of
// the environment.
package vault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/vault-client-go"
	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/errs"
)

type Source struct {
	client vaultClient
	mount  string
	logger *zap.Logger
}

func New(addr, token, mount string, timeout time.Duration, logger *zap.Logger) (*Source, error) {
	client, err := vault.New(
		vault.WithAddress(addr),
		vault.WithRequestTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	if err = client.SetToken(token); err != nil {
		return nil, err
	}
	return &Source{
		client: wrapper{client},
		mount:  mount,
		logger: logger,
	}, nil
}

// Secret reads a single KV v2 value. The path is relative to the mount,
// so ("honeypot/analytics", "token") resolves to secret/data/honeypot/analytics.
func (s *Source) Secret(ctx context.Context, path, key string) (string, error) {
	secretPath := fmt.Sprintf("%s/data/%s", s.mount, path)
	s.logger.Debug("reading vault secret", zap.String("path", secretPath))

	resp, err := readSecret(ctx, s.client, secretPath)
	if err != nil {
		return "", err
	}

	// KV v2 wraps the stored pairs in an extra "data" object
	data, ok := resp.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("secret at '%s' is not a KV v2 secret", secretPath)
	}
	val, ok := data[key].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("secret at '%s' has no '%s' value", secretPath, key)
	}
	return val, nil
}

func readSecret(ctx context.Context, client vaultClient, secretPath string) (*vault.Response[map[string]interface{}], error) {
	resp, err := client.Read(ctx, secretPath)
	if err != nil {
		var vaultError *vault.ResponseError
		if errors.As(err, &vaultError) && vaultError.StatusCode == http.StatusNotFound {
			return nil, errs.NewNotFound(secretPath)
		}
		return nil, err
	}
	return resp, nil
}
