// Package manager is the application context object. One Manager owns a
// device profile: its store, vault, account registry, auth guard and the
// wallets unlocked by live sessions.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/seedvault/internal/account"
	"github.com/AlexZinkM/seedvault/internal/auth"
	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/store"
	"github.com/AlexZinkM/seedvault/internal/wallet"

	"go.uber.org/zap"
)

// VaultKeyPrefix prefixes the store key of each account's VaultRecord.
const VaultKeyPrefix = "vault:"

// Ledger is the remote ledger collaborator.
type Ledger interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetUTXOs(ctx context.Context, address string) ([]model.UTXO, error)
	GetFee(ctx context.Context) (uint64, error)
	Broadcast(ctx context.Context, tx *model.SignedTransaction) (*model.BroadcastReceipt, error)
}

// Deps are the collaborators of a Manager. Store, Vault, Registry and
// Guard are required.
type Deps struct {
	Store       store.KV
	Vault       *crypto.Vault
	Salt        *crypto.InstallationSalt
	Registry    *account.Registry
	Guard       *auth.Guard
	Ledger      Ledger
	Log         *zap.Logger
	PayCooldown time.Duration
	Clock       func() time.Time
}

// Manager is safe for concurrent use. Operations on one unlocked wallet
// are serialized.
type Manager struct {
	kv       store.KV
	vault    *crypto.Vault
	salt     *crypto.InstallationSalt
	registry *account.Registry
	guard    *auth.Guard
	ledger   Ledger
	log      *zap.Logger
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	wallets map[string]*wallet.Wallet // by account id

	payMu   sync.Mutex
	lastPay time.Time
}

// New returns a Manager.
func New(d Deps) (*Manager, error) {
	if d.Store == nil || d.Vault == nil || d.Registry == nil || d.Guard == nil {
		return nil, errors.New("manager: store, vault, registry and guard are required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Manager{
		kv:       d.Store,
		vault:    d.Vault,
		salt:     d.Salt,
		registry: d.Registry,
		guard:    d.Guard,
		ledger:   d.Ledger,
		log:      d.Log,
		cooldown: d.PayCooldown,
		now:      d.Clock,
		wallets:  make(map[string]*wallet.Wallet),
	}, nil
}

// HasWallet reports whether the profile holds at least one account.
func (m *Manager) HasWallet(ctx context.Context) (bool, error) {
	accounts, err := m.registry.List(ctx)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// Reset wipes the profile: accounts, vault records, the installation salt,
// failure records and every session.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	for id, w := range m.wallets {
		w.Lock()
		delete(m.wallets, id)
	}
	m.mu.Unlock()
	m.guard.Reset()

	for _, prefix := range []string{VaultKeyPrefix, auth.AttemptsKeyPrefix} {
		keys, err := m.kv.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to list %s keys: %w", prefix, err)
		}
		for _, k := range keys {
			if err := m.kv.Delete(ctx, k); err != nil {
				return fmt.Errorf("failed to delete %s: %w", k, err)
			}
		}
	}
	if m.salt != nil {
		m.salt.Reset()
	}
	if err := m.registry.Reset(ctx); err != nil {
		return err
	}
	m.log.Info("profile reset")
	return nil
}

func vaultKey(accountID string) string {
	return VaultKeyPrefix + accountID
}

func (m *Manager) loadRecord(ctx context.Context, accountID string) (*model.VaultRecord, error) {
	raw, err := m.kv.Get(ctx, vaultKey(accountID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no vault record for %s", model.ErrMalformedRecord, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault record: %w", err)
	}
	return crypto.ParseRecord(raw)
}

func (m *Manager) putRecord(ctx context.Context, accountID string, rec *model.VaultRecord) error {
	raw, err := crypto.MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal vault record: %w", err)
	}
	if err := m.kv.Put(ctx, vaultKey(accountID), raw); err != nil {
		return fmt.Errorf("failed to write vault record: %w", err)
	}
	vaultOps.WithLabelValues("write").Inc()
	return nil
}

// sealWith returns a SealFunc encrypting the new account's wallet under
// password.
func (m *Manager) sealWith(password []byte) account.SealFunc {
	return func(ctx context.Context, acc model.Account, w *wallet.Wallet) error {
		rec, err := w.ExportEncrypted(ctx, m.vault, password)
		if err != nil {
			return err
		}
		vaultOps.WithLabelValues("encrypt").Inc()
		return m.putRecord(ctx, acc.ID, rec)
	}
}

// openAccount decrypts the record of acc and checks the re-derived address
// against the account metadata.
func (m *Manager) openAccount(ctx context.Context, acc model.Account, password []byte) (*wallet.Wallet, error) {
	rec, err := m.loadRecord(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	w, err := wallet.ImportEncrypted(m.vault, rec, password)
	vaultOps.WithLabelValues("decrypt").Inc()
	if err != nil {
		return nil, err
	}
	if w.Address() != acc.Address {
		w.Lock()
		return nil, fmt.Errorf("%w: record address %s does not match account %s", model.ErrMalformedRecord, w.Address(), acc.Address)
	}
	return w, nil
}

// verifyPassword opens acc outside of a session while still counting
// wrong passwords against the lockout.
func (m *Manager) verifyPassword(ctx context.Context, acc model.Account, password []byte) (*wallet.Wallet, error) {
	var w *wallet.Wallet
	err := m.guard.Verify(ctx, acc.ID, func() error {
		var oerr error
		w, oerr = m.openAccount(ctx, acc, password)
		return oerr
	})
	if err != nil {
		if w != nil {
			w.Lock()
		}
		return nil, err
	}
	return w, nil
}

// sweep locks wallets whose sessions have all expired.
// m.mu must be held.
func (m *Manager) sweep() {
	for id, w := range m.wallets {
		if !m.guard.HasSession(id) {
			w.Lock()
			delete(m.wallets, id)
			m.log.Debug("wallet locked after session expiry", zap.String("account_id", id))
		}
	}
}

// withWallet runs fn with the wallet unlocked by token.
func (m *Manager) withWallet(token string, fn func(model.Session, *wallet.Wallet) error) error {
	s, err := m.guard.Session(token)
	if err != nil {
		m.mu.Lock()
		m.sweep()
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	w, ok := m.wallets[s.AccountID]
	if !ok || w.Locked() {
		return model.ErrWalletLocked
	}
	return fn(s, w)
}

func cleanName(name string) string {
	return strings.TrimSpace(name)
}
