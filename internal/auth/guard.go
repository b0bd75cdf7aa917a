// Package auth tracks failed unlocks, enforces lockout and keeps the
// short-lived sessions created by successful unlocks.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// AttemptsKeyPrefix prefixes the store key of each FailedAttemptRecord.
const AttemptsKeyPrefix = "auth:attempts:"

var (
	unlockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_unlock_attempts_total",
			Help: "Unlock attempts by result",
		},
		[]string{"result"},
	)

	lockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedvault_lockouts_total",
			Help: "Accounts that entered the lockout window",
		},
	)
)

// Options configures a Guard. Zero values take the defaults.
type Options struct {
	MaxAttempts        int
	LockoutDuration    time.Duration
	SessionTTL         time.Duration
	SessionMaxLifetime time.Duration // 0 disables the cap
	Clock              func() time.Time
}

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 30 * time.Minute
	DefaultSessionTTL      = 15 * time.Minute
)

// Guard is safe for concurrent use.
type Guard struct {
	kv   store.KV
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]model.Session
	attempts map[string]*sync.Mutex // serializes verification per account
}

// NewGuard returns a Guard persisting failure records in kv.
func NewGuard(kv store.KV, opts Options, log *zap.Logger) *Guard {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = DefaultLockoutDuration
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		kv:       kv,
		opts:     opts,
		log:      log,
		sessions: make(map[string]model.Session),
		attempts: make(map[string]*sync.Mutex),
	}
}

func (g *Guard) now() time.Time { return g.opts.Clock() }

// Attempts returns the current failure record of accountID.
func (g *Guard) Attempts(ctx context.Context, accountID string) (model.FailedAttemptRecord, error) {
	return g.load(ctx, accountID)
}

// Check returns a *LockedOutError while accountID is locked out. A record
// whose last failure is older than the lockout duration is cleared.
func (g *Guard) Check(ctx context.Context, accountID string) error {
	rec, err := g.load(ctx, accountID)
	if err != nil {
		return err
	}
	if rec.Count == 0 {
		return nil
	}

	elapsed := g.now().Sub(rec.LastAttemptTimestamp)
	if elapsed >= g.opts.LockoutDuration {
		return g.RecordSuccess(ctx, accountID)
	}
	if rec.Count >= g.opts.MaxAttempts {
		return &model.LockedOutError{
			AccountID: accountID,
			Remaining: g.opts.LockoutDuration - elapsed,
		}
	}
	return nil
}

// RecordFailure counts one wrong-password attempt.
func (g *Guard) RecordFailure(ctx context.Context, accountID string) (model.FailedAttemptRecord, error) {
	rec, err := g.load(ctx, accountID)
	if err != nil {
		return rec, err
	}
	rec.AccountID = accountID
	rec.Count++
	rec.LastAttemptTimestamp = g.now()
	if err := g.save(ctx, rec); err != nil {
		return rec, err
	}

	if rec.Count == g.opts.MaxAttempts {
		lockouts.Inc()
		g.log.Warn("account locked out",
			zap.String("account_id", accountID),
			zap.Duration("duration", g.opts.LockoutDuration))
	}
	return rec, nil
}

// RecordSuccess clears the failure record.
func (g *Guard) RecordSuccess(ctx context.Context, accountID string) error {
	if err := g.kv.Delete(ctx, AttemptsKeyPrefix+accountID); err != nil {
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	return nil
}

// Verify runs open unless accountID is locked out. A DecryptionFailed
// result counts as a failed attempt and success clears the counter. Other
// errors are returned without being counted. Calls for the same account
// run one at a time, so at most MaxAttempts decryptions are tried before
// the lockout applies.
func (g *Guard) Verify(ctx context.Context, accountID string, open func() error) error {
	unlock := g.lockAttempts(accountID)
	defer unlock()

	if err := g.Check(ctx, accountID); err != nil {
		if errors.Is(err, model.ErrAccountLockedOut) {
			unlockAttempts.WithLabelValues("locked_out").Inc()
		}
		return err
	}

	if err := open(); err != nil {
		if !errors.Is(err, model.ErrDecryptionFailed) {
			unlockAttempts.WithLabelValues("error").Inc()
			return err
		}
		unlockAttempts.WithLabelValues("failure").Inc()
		rec, rerr := g.RecordFailure(ctx, accountID)
		if rerr != nil {
			return errors.Join(err, rerr)
		}
		g.log.Info("unlock failed",
			zap.String("account_id", accountID),
			zap.Int("attempts", rec.Count))
		return err
	}

	unlockAttempts.WithLabelValues("success").Inc()
	return g.RecordSuccess(ctx, accountID)
}

// Unlock is Verify followed by a new session for accountID.
func (g *Guard) Unlock(ctx context.Context, accountID string, open func() error) (model.Session, error) {
	if err := g.Verify(ctx, accountID, open); err != nil {
		return model.Session{}, err
	}
	return g.StartSession(accountID), nil
}

func (g *Guard) lockAttempts(accountID string) func() {
	g.mu.Lock()
	l, ok := g.attempts[accountID]
	if !ok {
		l = &sync.Mutex{}
		g.attempts[accountID] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// StartSession creates a session for accountID.
func (g *Guard) StartSession(accountID string) model.Session {
	now := g.now()
	s := model.Session{
		Token:     uuid.NewString(),
		AccountID: accountID,
		CreatedAt: now,
	}
	s.ExpiresAt = g.expiry(s, now)

	g.mu.Lock()
	g.sessions[s.Token] = s
	g.mu.Unlock()
	return s
}

// Session returns the live session for token.
func (g *Guard) Session(token string) (model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.live(token)
}

// Touch extends the session for activity. Expiry never passes the
// maximum lifetime measured from creation.
func (g *Guard) Touch(token string) (model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.live(token)
	if err != nil {
		return s, err
	}
	s.ExpiresAt = g.expiry(s, g.now())
	g.sessions[token] = s
	return s, nil
}

// HasSession reports whether accountID has at least one live session.
// Expired sessions are dropped.
func (g *Guard) HasSession(accountID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	found := false
	for t, s := range g.sessions {
		if s.AccountID != accountID {
			continue
		}
		if _, err := g.live(t); err == nil {
			found = true
		}
	}
	return found
}

// End removes one session.
func (g *Guard) End(token string) {
	g.mu.Lock()
	delete(g.sessions, token)
	g.mu.Unlock()
}

// EndAccount removes every session of accountID.
func (g *Guard) EndAccount(accountID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for t, s := range g.sessions {
		if s.AccountID == accountID {
			delete(g.sessions, t)
		}
	}
}

// Forget drops all state held for accountID.
func (g *Guard) Forget(ctx context.Context, accountID string) error {
	g.EndAccount(accountID)
	return g.RecordSuccess(ctx, accountID)
}

// Reset drops every session.
func (g *Guard) Reset() {
	g.mu.Lock()
	clear(g.sessions)
	g.mu.Unlock()
}

func (g *Guard) live(token string) (model.Session, error) {
	s, ok := g.sessions[token]
	if !ok {
		return model.Session{}, model.ErrSessionExpired
	}
	if !s.Valid(g.now()) {
		delete(g.sessions, token)
		return model.Session{}, model.ErrSessionExpired
	}
	return s, nil
}

func (g *Guard) expiry(s model.Session, now time.Time) time.Time {
	exp := now.Add(g.opts.SessionTTL)
	if g.opts.SessionMaxLifetime > 0 {
		if limit := s.CreatedAt.Add(g.opts.SessionMaxLifetime); exp.After(limit) {
			exp = limit
		}
	}
	return exp
}

func (g *Guard) load(ctx context.Context, accountID string) (model.FailedAttemptRecord, error) {
	raw, err := g.kv.Get(ctx, AttemptsKeyPrefix+accountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.FailedAttemptRecord{AccountID: accountID}, nil
	}
	if err != nil {
		return model.FailedAttemptRecord{}, fmt.Errorf("failed to read attempts: %w", err)
	}
	var rec model.FailedAttemptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.FailedAttemptRecord{}, fmt.Errorf("%w: attempts: %v", store.ErrCorrupt, err)
	}
	return rec, nil
}

func (g *Guard) save(ctx context.Context, rec model.FailedAttemptRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}
	if err := g.kv.Put(ctx, AttemptsKeyPrefix+rec.AccountID, raw); err != nil {
		return fmt.Errorf("failed to write attempts: %w", err)
	}
	return nil
}
