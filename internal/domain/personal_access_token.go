package domain

import "time"

// PersonalAccessToken is a token issued by the main application; this service
// only reads it to authenticate the owner.
type PersonalAccessToken struct {
	ID        int64
	TokenHash string
	OwnerID   int64
	Abilities string
	ExpiresAt *time.Time
}

func (t PersonalAccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
