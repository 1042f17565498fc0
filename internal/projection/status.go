// Package projection caches read-model snapshots derived from team state.
// The license status endpoint is read-heavy (mobile clients poll it), so the
// computed status is cached with a short TTL and invalidated on any license
// write.
package projection

import (
	"context"
	"fmt"
	"time"
)

// LicenseStatusProjection is the cached license status of one team.
type LicenseStatusProjection struct {
	TeamID        string `json:"team_id"`
	Status        string `json:"status"`
	Type          string `json:"type,omitempty"`
	Code          string `json:"code,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	RemainingDays int    `json:"remaining_days"`
	Expired       bool   `json:"expired"`
	UpdatedAt     string `json:"updated_at"`
}

const statusTTL = 30 * time.Second

func statusKey(teamID string) string {
	return fmt.Sprintf("projection:license-status:%s", teamID)
}

// UpdateLicenseStatus caches a team's computed license status.
func UpdateLicenseStatus(ctx context.Context, store Store, p LicenseStatusProjection) error {
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return SetJSON(ctx, store, statusKey(p.TeamID), p, statusTTL)
}

// GetLicenseStatus retrieves a cached license status, or an error on miss.
func GetLicenseStatus(ctx context.Context, store Store, teamID string) (*LicenseStatusProjection, error) {
	var p LicenseStatusProjection
	if err := GetJSON(ctx, store, statusKey(teamID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateLicenseStatus removes a team's cached status. Called after every
// activation, deactivation and request review.
func InvalidateLicenseStatus(ctx context.Context, store Store, teamID string) error {
	return store.Delete(ctx, statusKey(teamID))
}
