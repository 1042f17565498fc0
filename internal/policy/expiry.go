package policy

import "time"

const day = 24 * time.Hour

// ExpiresAt computes a license expiry from its activation instant. Stamped
// once at activation; never recomputed except by a new activation.
func ExpiresAt(activatedAt time.Time, durationDays int) time.Time {
	return activatedAt.Add(time.Duration(durationDays) * day)
}

// RemainingDays returns the whole days left until expiresAt, clamped at 0.
func RemainingDays(now, expiresAt time.Time) int {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / day)
}

// IsExpired reports whether the expiry instant has been reached.
func IsExpired(now, expiresAt time.Time) bool {
	return !expiresAt.After(now)
}
