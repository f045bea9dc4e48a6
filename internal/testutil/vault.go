package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"
)

// VaultToken is the root token of the dev server started by SetupVault
const VaultToken = "test-token"

// VaultServer holds a running Vault dev server
type VaultServer struct {
	Container *vault.VaultContainer
	Addr      string
	Token     string
}

// SetupVault starts a Vault dev server. commands are vault CLI invocations
// run after startup, e.g. "kv put secret/osld-portal JWT_SECRET=x".
func SetupVault(t *testing.T, commands ...string) *VaultServer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	vaultContainer, err := vault.Run(ctx,
		"hashicorp/vault:1.15",
		vault.WithToken(VaultToken),
		vault.WithInitCommand(commands...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Vault server started!").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start Vault container: %v", err)
	}
	t.Cleanup(func() {
		if err := vaultContainer.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate Vault container: %v", err)
		}
	})

	addr, err := vaultContainer.HttpHostAddress(ctx)
	if err != nil {
		t.Fatalf("Failed to get Vault address: %v", err)
	}
	if !strings.HasPrefix(addr, "http") {
		addr = "http://" + addr
	}

	return &VaultServer{Container: vaultContainer, Addr: addr, Token: VaultToken}
}
