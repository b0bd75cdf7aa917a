package manager

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/wallet"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Accounts returns the active position and the account list.
func (m *Manager) Accounts(ctx context.Context) (int, []model.Account, error) {
	accounts, err := m.registry.List(ctx)
	if err != nil {
		return 0, nil, err
	}
	if len(accounts) == 0 {
		return 0, nil, model.ErrNoWallet
	}
	active, _, err := m.registry.Active(ctx)
	if err != nil {
		return 0, nil, err
	}
	return active, accounts, nil
}

// CreateAccount derives the next account from the master phrase. token
// must belong to an unlocked session of the master account and password
// must open its record; the new record is sealed under the same password.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) CreateAccount(ctx context.Context, token string, password []byte, name, icon string) (model.Account, error) {
	masterAcc, err := m.masterSession(ctx, token)
	if err != nil {
		return model.Account{}, err
	}

	master, err := m.verifyPassword(ctx, masterAcc, password)
	if err != nil {
		return model.Account{}, err
	}
	defer master.Lock()

	phrase, err := master.Phrase()
	if err != nil {
		return model.Account{}, err
	}
	defer phrase.Wipe()

	acc, w, err := m.registry.CreateAccount(ctx, phrase, cleanName(name), icon, m.sealWith(password))
	if err != nil {
		return model.Account{}, err
	}
	w.Lock()
	return acc, nil
}

// SwitchActive makes pos the active account.
func (m *Manager) SwitchActive(ctx context.Context, pos int) error {
	return m.registry.SwitchActive(ctx, pos)
}

// Rename renames the account at pos.
func (m *Manager) Rename(ctx context.Context, pos int, name string) error {
	return m.registry.Rename(ctx, pos, cleanName(name))
}

// SetIcon changes the icon of the account at pos.
func (m *Manager) SetIcon(ctx context.Context, pos int, icon string) error {
	return m.registry.SetIcon(ctx, pos, icon)
}

// masterSession returns the master account when token is one of its live
// sessions.
func (m *Manager) masterSession(ctx context.Context, token string) (model.Account, error) {
	s, err := m.guard.Session(token)
	if err != nil {
		return model.Account{}, err
	}
	_, master, err := m.registry.Master(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if s.AccountID != master.ID {
		return model.Account{}, model.ErrMasterRequired
	}
	return master, nil
}

// DeleteAccount removes the account at pos together with its vault
// record, failure record and sessions. token must belong to a session of
// the master account and password must open the master record. The master
// itself cannot be deleted.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) DeleteAccount(ctx context.Context, token string, pos int, password []byte) (model.Account, error) {
	masterAcc, err := m.masterSession(ctx, token)
	if err != nil {
		return model.Account{}, err
	}
	master, err := m.verifyPassword(ctx, masterAcc, password)
	if err != nil {
		m.log.Warn("account delete rejected", zap.Int("position", pos), zap.String("code", model.ErrorCode(err)))
		return model.Account{}, err
	}
	master.Lock()

	acc, err := m.registry.DeleteAccount(ctx, pos)
	if err != nil {
		return model.Account{}, err
	}
	m.lockAccount(acc.ID)

	if err := m.kv.Delete(ctx, vaultKey(acc.ID)); err != nil {
		return acc, fmt.Errorf("failed to delete vault record: %w", err)
	}
	if err := m.guard.Forget(ctx, acc.ID); err != nil {
		return acc, err
	}
	m.log.Info("account removed", zap.String("account_id", acc.ID))
	return acc, nil
}

// AddressQR returns a base64 PNG QR code of the address at pos.
func (m *Manager) AddressQR(ctx context.Context, pos int) (string, string, error) {
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return "", "", err
	}
	qr, err := generateQRCode(acc.Address)
	if err != nil {
		return "", "", err
	}
	return acc.Address, qr, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// RefreshBalance asks the ledger for the balance at pos and caches it.
func (m *Manager) RefreshBalance(ctx context.Context, pos int) (model.Account, error) {
	if m.ledger == nil {
		return model.Account{}, fmt.Errorf("no ledger configured")
	}
	acc, err := m.registry.Get(ctx, pos)
	if err != nil {
		return model.Account{}, err
	}
	bal, err := m.ledger.GetBalance(ctx, acc.Address)
	if err != nil {
		return model.Account{}, err
	}
	if err := m.registry.SetCachedBalance(ctx, pos, bal); err != nil {
		return model.Account{}, err
	}
	acc.CachedBalance = bal
	return acc, nil
}

// Pay builds, signs and broadcasts a transfer of amount base units from the
// wallet unlocked by token.
func (m *Manager) Pay(ctx context.Context, token, to string, amount uint64) (*model.BroadcastReceipt, error) {
	if m.ledger == nil {
		return nil, fmt.Errorf("no ledger configured")
	}

	// Check cooldown
	m.payMu.Lock()
	defer m.payMu.Unlock()

	if !m.lastPay.IsZero() && m.cooldown > 0 {
		if since := m.now().Sub(m.lastPay); since < m.cooldown {
			return nil, fmt.Errorf("%w, please wait %v", model.ErrCooldown, (m.cooldown - since).Round(time.Second))
		}
	}

	s, err := m.guard.Session(token)
	if err != nil {
		return nil, err
	}
	_, acc, err := m.registry.ByID(ctx, s.AccountID)
	if err != nil {
		return nil, err
	}

	utxos, err := m.ledger.GetUTXOs(ctx, acc.Address)
	if err != nil {
		return nil, err
	}
	fee, err := m.ledger.GetFee(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := wallet.BuildTransaction(acc.Address, to, amount, fee, utxos)
	if err != nil {
		return nil, err
	}

	var stx *model.SignedTransaction
	err = m.withWallet(token, func(_ model.Session, w *wallet.Wallet) error {
		var serr error
		stx, serr = w.SignTransaction(tx)
		return serr
	})
	if err != nil {
		return nil, err
	}
	signatures.Inc()

	receipt, err := m.ledger.Broadcast(ctx, stx)
	if err != nil {
		return nil, err
	}

	// Save transaction time
	m.lastPay = m.now()
	m.log.Info("transaction broadcast",
		zap.String("tx_id", receipt.TxID),
		zap.String("from", acc.Address),
		zap.String("to", to),
		zap.Uint64("amount", amount))
	return receipt, nil
}
