package manager

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/wallet"

	"go.uber.org/zap"
)

// CreateWallet generates a master phrase and stores it as account 0.
// The phrase is returned once for backup and never again.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) CreateWallet(ctx context.Context, password []byte, name string) (model.Account, keys.Phrase, error) {
	w, err := wallet.Create()
	if err != nil {
		return model.Account{}, nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	defer w.Lock()

	acc, err := m.registerMaster(ctx, w, password, name)
	if err != nil {
		return model.Account{}, nil, err
	}
	phrase, err := w.Phrase()
	if err != nil {
		return model.Account{}, nil, err
	}
	return acc, phrase, nil
}

// RestoreWallet validates phrase and stores it as account 0.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) RestoreWallet(ctx context.Context, phrase string, password []byte, name string) (model.Account, error) {
	w, err := wallet.Restore(phrase)
	if err != nil {
		return model.Account{}, err
	}
	defer w.Lock()
	return m.registerMaster(ctx, w, password, name)
}

func (m *Manager) registerMaster(ctx context.Context, w *wallet.Wallet, password []byte, name string) (model.Account, error) {
	if len(password) == 0 {
		return model.Account{}, fmt.Errorf("password cannot be empty")
	}
	exists, err := m.HasWallet(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if exists {
		return model.Account{}, model.ErrWalletExists
	}

	w.Index = 0
	w.Scheme = string(m.registry.Scheme())
	if name = cleanName(name); name == "" {
		name = "Main"
	}
	acc, err := m.registry.RegisterMaster(ctx, w, name, "", m.sealWith(password))
	if err != nil {
		return model.Account{}, err
	}
	m.log.Info("wallet stored", zap.String("account_id", acc.ID), zap.String("address", acc.Address))
	return acc, nil
}

// Unlock decrypts the account at pos and starts a session. Wrong passwords
// count towards the lockout; a locked-out account is rejected before any
// decryption.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) Unlock(ctx context.Context, pos int, password []byte) (model.Session, error) {
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return model.Session{}, err
	}

	var w *wallet.Wallet
	s, err := m.guard.Unlock(ctx, acc.ID, func() error {
		var oerr error
		w, oerr = m.openAccount(ctx, acc, password)
		return oerr
	})
	if err != nil {
		if w != nil {
			w.Lock()
		}
		m.log.Info("unlock rejected", zap.String("account_id", acc.ID), zap.String("code", model.ErrorCode(err)))
		return model.Session{}, err
	}

	m.mu.Lock()
	if old, ok := m.wallets[acc.ID]; ok && old != w {
		old.Lock()
	}
	m.wallets[acc.ID] = w
	m.mu.Unlock()

	m.log.Info("account unlocked", zap.String("account_id", acc.ID))
	return s, nil
}

// Lock discards the unlocked wallet at pos and ends its sessions.
func (m *Manager) Lock(ctx context.Context, pos int) error {
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return err
	}
	m.lockAccount(acc.ID)
	return nil
}

// LockSession is Lock for the account owning token.
func (m *Manager) LockSession(token string) error {
	s, err := m.guard.Session(token)
	if err != nil {
		return err
	}
	m.lockAccount(s.AccountID)
	return nil
}

func (m *Manager) lockAccount(accountID string) {
	m.guard.EndAccount(accountID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[accountID]; ok {
		w.Lock()
		delete(m.wallets, accountID)
		m.log.Info("account locked", zap.String("account_id", accountID))
	}
}

// Touch extends the session for user activity.
func (m *Manager) Touch(token string) (model.Session, error) {
	return m.guard.Touch(token)
}

// Sign signs payload with the wallet unlocked by token.
func (m *Manager) Sign(ctx context.Context, token string, payload []byte) (signature, publicKey string, err error) {
	err = m.withWallet(token, func(_ model.Session, w *wallet.Wallet) error {
		sig, serr := w.Sign(payload)
		if serr != nil {
			return serr
		}
		signature, publicKey = sig, w.PublicKeyHex()
		return nil
	})
	if err != nil {
		return "", "", err
	}
	signatures.Inc()
	return signature, publicKey, nil
}

// Verify checks a signature. It needs no session.
func (m *Manager) Verify(payload []byte, signature, publicKey string) bool {
	return wallet.Verify(payload, signature, publicKey)
}

// ChangePassword re-encrypts the account at pos under newPassword. The old
// record stays in place until the new one is written.
func (m *Manager) ChangePassword(ctx context.Context, pos int, oldPassword, newPassword []byte) error {
	if len(newPassword) == 0 {
		return fmt.Errorf("password cannot be empty")
	}
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return err
	}
	w, err := m.verifyPassword(ctx, acc, oldPassword)
	if err != nil {
		return err
	}
	defer w.Lock()

	rec, err := w.ExportEncrypted(ctx, m.vault, newPassword)
	if err != nil {
		return err
	}
	vaultOps.WithLabelValues("encrypt").Inc()
	if err := m.putRecord(ctx, acc.ID, rec); err != nil {
		return err
	}
	m.log.Info("password changed", zap.String("account_id", acc.ID))
	return nil
}

// ExportRecord returns the stored VaultRecord of the account at pos.
func (m *Manager) ExportRecord(ctx context.Context, pos int) (*model.VaultRecord, error) {
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return nil, err
	}
	return m.loadRecord(ctx, acc.ID)
}

// ImportRecord opens a VaultRecord from another profile and appends it as
// a new account. The wallet is re-derived from the recovered phrase.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) ImportRecord(ctx context.Context, rec *model.VaultRecord, password []byte, name string) (model.Account, error) {
	w, err := wallet.ImportEncrypted(m.vault, rec, password)
	vaultOps.WithLabelValues("decrypt").Inc()
	if err != nil {
		return model.Account{}, err
	}
	defer w.Lock()

	acc, err := m.registry.Register(ctx, w, cleanName(name), "", func(ctx context.Context, acc model.Account, _ *wallet.Wallet) error {
		return m.putRecord(ctx, acc.ID, rec)
	})
	if err != nil {
		return model.Account{}, err
	}
	m.log.Info("vault record imported", zap.String("account_id", acc.ID), zap.String("address", acc.Address))
	return acc, nil
}
