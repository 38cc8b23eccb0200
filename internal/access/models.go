// Package access owns time-bounded access permissions keyed by
// (requester, resource). Effective access is derived at read time: the stored
// granted flag is never flipped by the passage of time.
package access

import (
	"time"

	id "iotledger/pkg/domain"
)

// AccessPermission is the stored state for one (requester, resource) pair.
// Re-granting overwrites the entry; revoking sets Granted=false without
// removing it.
type AccessPermission struct {
	Requester  id.AccountID
	ResourceID string
	Granted    bool
	GrantedAt  time.Time
	ExpiresAt  time.Time // zero value = no expiry
}

// EffectiveAt reports whether the permission grants access at the given
// instant. Access holds exactly while now <= ExpiresAt; an unset expiry never
// lapses. Expiry is recomputed on every call (lazy expiry, no stored
// transition).
func (p AccessPermission) EffectiveAt(now time.Time) bool {
	if !p.Granted {
		return false
	}
	if p.ExpiresAt.IsZero() {
		return true
	}
	return !now.After(p.ExpiresAt)
}
