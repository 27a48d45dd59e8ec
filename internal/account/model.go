package account

import "time"

// Account is the credential record for one user. It is created out of band
// and afterwards changed only by login attempts.
type Account struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	LoginAttempts int
	LockUntil     *time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether login attempts are blocked at now. A lock that
// ends exactly at now no longer applies.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

func (a *Account) clone() *Account {
	c := *a
	if a.LockUntil != nil {
		t := *a.LockUntil
		c.LockUntil = &t
	}
	return &c
}
