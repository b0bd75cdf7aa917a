package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/store"
	"github.com/AlexZinkM/seedvault/internal/wallet"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store keys of the account metadata.
const (
	ListKey      = "accounts"
	ActiveKey    = "accounts:active"
	NextIndexKey = "accounts:next_index"
	MasterKey    = "accounts:master"

	DefaultIcon = "wallet"
)

// SealFunc persists the secret side of a new account. The metadata is only
// committed when it returns nil.
type SealFunc func(ctx context.Context, acc model.Account, w *wallet.Wallet) error

// Registry is the persisted account list. Accounts are addressed by their
// position in the list; positions stay dense after deletions while each
// account keeps its derivation index.
type Registry struct {
	kv     store.KV
	scheme Scheme
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewRegistry returns a Registry over kv.
func NewRegistry(kv store.KV, scheme Scheme, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if scheme == "" {
		scheme = SchemeHKDF
	}
	return &Registry{kv: kv, scheme: scheme, log: log, now: time.Now}
}

// Scheme returns the derivation scheme used for new accounts.
func (r *Registry) Scheme() Scheme { return r.scheme }

// List returns all accounts in position order.
func (r *Registry) List(ctx context.Context) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Active returns the active position and its account.
func (r *Registry) Active(ctx context.Context) (int, model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return 0, model.Account{}, err
	}
	if len(accounts) == 0 {
		return 0, model.Account{}, model.ErrNoWallet
	}
	pos, err := r.active(ctx, len(accounts))
	if err != nil {
		return 0, model.Account{}, err
	}
	return pos, accounts[pos], nil
}

// Get returns the account at position pos.
func (r *Registry) Get(ctx context.Context, pos int) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if pos < 0 || pos >= len(accounts) {
		return model.Account{}, fmt.Errorf("%w: position %d", model.ErrAccountNotFound, pos)
	}
	return accounts[pos], nil
}

// ByID returns the position and account with the given id.
func (r *Registry) ByID(ctx context.Context, id string) (int, model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return 0, model.Account{}, err
	}
	for i, a := range accounts {
		if a.ID == id {
			return i, a, nil
		}
	}
	return 0, model.Account{}, fmt.Errorf("%w: id %s", model.ErrAccountNotFound, id)
}

// RegisterMaster stores w as the master account of an empty registry.
// Only the master may derive further accounts or delete them.
func (r *Registry) RegisterMaster(ctx context.Context, w *wallet.Wallet, name, icon string, seal SealFunc) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if len(accounts) > 0 {
		return model.Account{}, model.ErrWalletExists
	}
	next, err := r.nextIndex(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if w.Index >= next {
		next = w.Index + 1
	}
	// The marker is written with the record, ahead of the list.
	markMaster := func(ctx context.Context, acc model.Account, w *wallet.Wallet) error {
		if seal != nil {
			if err := seal(ctx, acc, w); err != nil {
				return err
			}
		}
		if err := r.kv.Put(ctx, MasterKey, []byte(acc.ID)); err != nil {
			return fmt.Errorf("failed to write master account: %w", err)
		}
		return nil
	}
	return r.commit(ctx, accounts, w, name, icon, next, markMaster)
}

// Master returns the position and account of the master account.
// ErrMasterRequired means no account in the list holds the master phrase,
// as with a profile built only from imported records.
func (r *Registry) Master(ctx context.Context) (int, model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return 0, model.Account{}, err
	}
	if len(accounts) == 0 {
		return 0, model.Account{}, model.ErrNoWallet
	}
	id, err := r.masterID(ctx)
	if err != nil {
		return 0, model.Account{}, err
	}
	for i, a := range accounts {
		if id != "" && a.ID == id {
			return i, a, nil
		}
	}
	return 0, model.Account{}, model.ErrMasterRequired
}

// Register adds an already derived wallet, such as an imported record, at
// the end of the list. It never becomes the master.
func (r *Registry) Register(ctx context.Context, w *wallet.Wallet, name, icon string, seal SealFunc) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return model.Account{}, err
	}
	next, err := r.nextIndex(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if w.Index >= next {
		next = w.Index + 1
	}
	return r.commit(ctx, accounts, w, name, icon, next, seal)
}

// CreateAccount allocates the next derivation index, derives its wallet
// from master and appends the account. The returned wallet is unlocked and
// owned by the caller.
func (r *Registry) CreateAccount(ctx context.Context, master keys.Phrase, name, icon string, seal SealFunc) (model.Account, *wallet.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return model.Account{}, nil, err
	}
	if len(accounts) == 0 {
		return model.Account{}, nil, model.ErrNoWallet
	}
	index, err := r.nextIndex(ctx)
	if err != nil {
		return model.Account{}, nil, err
	}

	w, err := DeriveAccountWallet(master, index, r.scheme)
	if err != nil {
		return model.Account{}, nil, err
	}

	acc, err := r.commit(ctx, accounts, w, name, icon, index+1, seal)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateAddress) {
			// Burn the colliding index so the next attempt moves on.
			if perr := r.putNextIndex(ctx, index+1); perr != nil {
				r.log.Error("failed to advance derivation index", zap.Error(perr))
			}
		}
		w.Lock()
		return model.Account{}, nil, err
	}
	return acc, w, nil
}

func (r *Registry) commit(ctx context.Context, accounts []model.Account, w *wallet.Wallet, name, icon string, next uint32, seal SealFunc) (model.Account, error) {
	for _, a := range accounts {
		if a.Address == w.Address() {
			r.log.Warn("derived address collides with existing account",
				zap.String("address", a.Address),
				zap.Uint32("index", w.Index))
			return model.Account{}, fmt.Errorf("%w: %s", model.ErrDuplicateAddress, a.Address)
		}
	}

	if name == "" {
		name = "Account " + strconv.Itoa(len(accounts)+1)
	}
	if icon == "" {
		icon = DefaultIcon
	}
	acc := model.Account{
		ID:              ulid.Make().String(),
		Name:            name,
		IconType:        icon,
		DerivationIndex: w.Index,
		Address:         w.Address(),
		PublicKey:       w.PublicKeyHex(),
		CreatedAt:       r.now().UTC(),
	}

	if seal != nil {
		if err := seal(ctx, acc, w); err != nil {
			return model.Account{}, err
		}
	}

	if err := r.save(ctx, append(accounts, acc)); err != nil {
		return model.Account{}, err
	}
	if err := r.putNextIndex(ctx, next); err != nil {
		return model.Account{}, err
	}
	r.log.Info("account created",
		zap.String("id", acc.ID),
		zap.String("address", acc.Address),
		zap.Uint32("index", acc.DerivationIndex))
	return acc, nil
}

// SwitchActive makes position pos the active account.
func (r *Registry) SwitchActive(ctx context.Context, pos int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= len(accounts) {
		return fmt.Errorf("%w: position %d", model.ErrAccountNotFound, pos)
	}
	return r.putActive(ctx, pos)
}

// Rename sets the display name of position pos.
func (r *Registry) Rename(ctx context.Context, pos int, name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	return r.update(ctx, pos, func(a *model.Account) { a.Name = name })
}

// SetIcon sets the icon type of position pos.
func (r *Registry) SetIcon(ctx context.Context, pos int, icon string) error {
	if icon == "" {
		icon = DefaultIcon
	}
	return r.update(ctx, pos, func(a *model.Account) { a.IconType = icon })
}

// SetCachedBalance records the last balance seen for position pos.
func (r *Registry) SetCachedBalance(ctx context.Context, pos int, balance uint64) error {
	return r.update(ctx, pos, func(a *model.Account) { a.CachedBalance = balance })
}

func (r *Registry) update(ctx context.Context, pos int, fn func(*model.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= len(accounts) {
		return fmt.Errorf("%w: position %d", model.ErrAccountNotFound, pos)
	}
	fn(&accounts[pos])
	return r.save(ctx, accounts)
}

// DeleteAccount removes position pos and returns the removed account.
// Later accounts move up one position. Derivation indexes are untouched.
func (r *Registry) DeleteAccount(ctx context.Context, pos int) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.load(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if pos < 0 || pos >= len(accounts) {
		return model.Account{}, fmt.Errorf("%w: position %d", model.ErrAccountNotFound, pos)
	}
	if len(accounts) == 1 {
		return model.Account{}, model.ErrLastAccountUndeletable
	}
	masterID, err := r.masterID(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if accounts[pos].ID == masterID {
		return model.Account{}, model.ErrMasterUndeletable
	}

	active, err := r.active(ctx, len(accounts))
	if err != nil {
		return model.Account{}, err
	}

	removed := accounts[pos]
	accounts = append(accounts[:pos], accounts[pos+1:]...)
	if err := r.save(ctx, accounts); err != nil {
		return model.Account{}, err
	}

	switch {
	case active > pos:
		active--
	case active == pos:
		active = 0
	}
	if err := r.putActive(ctx, active); err != nil {
		return model.Account{}, err
	}

	r.log.Info("account deleted", zap.String("id", removed.ID), zap.String("address", removed.Address))
	return removed, nil
}

// Reset removes all account metadata.
func (r *Registry) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range []string{ListKey, ActiveKey, NextIndexKey, MasterKey} {
		if err := r.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	return nil
}

func (r *Registry) load(ctx context.Context) ([]model.Account, error) {
	raw, err := r.kv.Get(ctx, ListKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	var accounts []model.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%w: accounts: %v", store.ErrCorrupt, err)
	}
	return accounts, nil
}

func (r *Registry) save(ctx context.Context, accounts []model.Account) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	if err := r.kv.Put(ctx, ListKey, raw); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	return nil
}

func (r *Registry) masterID(ctx context.Context) (string, error) {
	raw, err := r.kv.Get(ctx, MasterKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read master account: %w", err)
	}
	return string(raw), nil
}

func (r *Registry) active(ctx context.Context, n int) (int, error) {
	raw, err := r.kv.Get(ctx, ActiveKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read active account: %w", err)
	}
	pos, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: active account: %v", store.ErrCorrupt, err)
	}
	if pos < 0 || pos >= n {
		return 0, nil
	}
	return pos, nil
}

func (r *Registry) putActive(ctx context.Context, pos int) error {
	if err := r.kv.Put(ctx, ActiveKey, []byte(strconv.Itoa(pos))); err != nil {
		return fmt.Errorf("failed to write active account: %w", err)
	}
	return nil
}

func (r *Registry) nextIndex(ctx context.Context) (uint32, error) {
	raw, err := r.kv.Get(ctx, NextIndexKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read derivation index: %w", err)
	}
	n, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: derivation index: %v", store.ErrCorrupt, err)
	}
	return uint32(n), nil
}

func (r *Registry) putNextIndex(ctx context.Context, n uint32) error {
	if err := r.kv.Put(ctx, NextIndexKey, []byte(strconv.FormatUint(uint64(n), 10))); err != nil {
		return fmt.Errorf("failed to write derivation index: %w", err)
	}
	return nil
}
