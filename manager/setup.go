package manager

import (
	"fmt"

	"github.com/AlexZinkM/seedvault/internal/account"
	"github.com/AlexZinkM/seedvault/internal/auth"
	"github.com/AlexZinkM/seedvault/internal/client"
	"github.com/AlexZinkM/seedvault/internal/config"
	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/store"

	"go.uber.org/zap"
)

// FromConfig opens the configured store and wires a Manager over it.
// The returned close function releases the store.
func FromConfig(cfg *config.Config, log *zap.Logger) (*Manager, func() error, error) {
	kv, err := store.Open(store.Options{
		Backend:       cfg.StoreBackend,
		Path:          cfg.StorePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	scheme, err := account.ParseScheme(cfg.DerivationScheme)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}

	salt := crypto.NewInstallationSalt(kv)
	vault, err := crypto.NewVault(cfg.VaultIterations, salt)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}

	guard := auth.NewGuard(kv, auth.Options{
		MaxAttempts:        cfg.MaxFailedAttempts,
		LockoutDuration:    cfg.LockoutDuration,
		SessionTTL:         cfg.SessionTTL,
		SessionMaxLifetime: cfg.SessionMaxLifetime,
	}, log.Named("auth"))

	deps := Deps{
		Store:       kv,
		Vault:       vault,
		Salt:        salt,
		Registry:    account.NewRegistry(kv, scheme, log.Named("account")),
		Guard:       guard,
		Log:         log.Named("manager"),
		PayCooldown: cfg.PayCooldownDuration(),
	}
	if cfg.LedgerURL != "" {
		deps.Ledger = client.NewLedgerClient(cfg.LedgerURL)
	}

	m, err := New(deps)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return m, kv.Close, nil
}
