package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Client wraps the HashiCorp Vault API for reading portal secrets
type Client struct {
	client  *api.Client
	kvMount string
}

// Config holds Vault configuration
type Config struct {
	Address string
	Token   string
	KVMount string
}

// NewClient creates a new Vault client
func NewClient(cfg *Config) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	mount := cfg.KVMount
	if mount == "" {
		mount = "secret"
	}

	return &Client{client: client, kvMount: mount}, nil
}

// ReadSecrets returns the string values stored in a KV v2 secret
func (c *Client) ReadSecrets(ctx context.Context, path string) (map[string]string, error) {
	secret, err := c.client.KVv2(c.kvMount).Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s/%s: %w", c.kvMount, path, err)
	}

	return StringValues(secret.Data), nil
}

// StringValues keeps the string entries of a secret payload
func StringValues(data map[string]interface{}) map[string]string {
	values := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values
}
