package model

import "time"

// FailedAttemptRecord tracks consecutive wrong-password unlocks for one account.
type FailedAttemptRecord struct {
	AccountID            string    `json:"accountId"`
	Count                int       `json:"count"`
	LastAttemptTimestamp time.Time `json:"lastAttemptTimestamp"`
}

// Session is created on a successful unlock and extended on activity.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session has not expired at now.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
