package domain

import (
	"time"

	"github.com/google/uuid"
)

// LicenseStatus is the licensing state stamped on a team.
type LicenseStatus string

const (
	LicenseStatusActive   LicenseStatus = "active"
	LicenseStatusInactive LicenseStatus = "inactive"
	LicenseStatusExpired  LicenseStatus = "expired"
)

// Team represents a teams row. A team carries denormalized license metadata
// stamped by the licensing engine at activation time; LicenseID points at the
// bound licenses row while the team is active.
type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	JoinCode    string    `json:"join_code"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`

	// AdminIDs is the current admin model. LegacyAdminID carries the single-admin
	// field still present on older rows; entries in either may be an email rather
	// than a user ID. Resolution lives in policy.ResolveAdminSet.
	AdminIDs      []string `json:"admin_ids"`
	LegacyAdminID string   `json:"admin_id,omitempty"`

	LicenseID           *uuid.UUID    `json:"license_id,omitempty"`
	LicenseStatus       LicenseStatus `json:"license_status"`
	LicenseType         LicenseType   `json:"license_type,omitempty"`
	LicenseCode         string        `json:"license_code,omitempty"`
	LicenseActivatedAt  *time.Time    `json:"license_activated_at,omitempty"`
	LicenseExpiresAt    *time.Time    `json:"license_expires_at,omitempty"`
	LicenseDurationDays *int          `json:"license_duration_days,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasActiveLicense reports whether the team is stamped active and the stamped
// expiry is still in the future at the given instant.
func (t *Team) HasActiveLicense(now time.Time) bool {
	if t.LicenseStatus != LicenseStatusActive || t.LicenseExpiresAt == nil {
		return false
	}
	return t.LicenseExpiresAt.After(now)
}

// Event represents a practice session scheduled for a team. Creation is gated
// on the team holding an active, non-expired license.
type Event struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
