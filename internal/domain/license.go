package domain

import (
	"time"

	"github.com/google/uuid"
)

// LicenseType enumerates the license variants sold or trialled.
type LicenseType string

const (
	LicenseTrial      LicenseType = "trial"
	LicenseMonthly    LicenseType = "monthly"
	LicenseYearly     LicenseType = "yearly"
	LicenseHalfSeason LicenseType = "half_season"
	LicenseSeason     LicenseType = "season"
)

// licenseDurations is the single duration table for all issuance paths.
// Historically pool stocking and request approval used divergent tables; both
// now read from here.
var licenseDurations = map[LicenseType]int{
	LicenseTrial:      7,
	LicenseMonthly:    30,
	LicenseYearly:     365,
	LicenseHalfSeason: 90,
	LicenseSeason:     180,
}

// DurationDays returns the entitlement duration for a license type.
func DurationDays(t LicenseType) (int, bool) {
	d, ok := licenseDurations[t]
	return d, ok
}

// ValidLicenseType reports whether t is a known license type.
func ValidLicenseType(t LicenseType) bool {
	_, ok := licenseDurations[t]
	return ok
}

// License is a consumable token entitling exactly one team to active status
// for a fixed duration. Invariant: IsUsed is true iff UsedByTeamID is non-nil.
type License struct {
	ID           uuid.UUID   `json:"id"`
	Code         string      `json:"code"`
	Type         LicenseType `json:"type"`
	DurationDays int         `json:"duration_days"`
	IsUsed       bool        `json:"is_used"`
	UsedByTeamID *uuid.UUID  `json:"used_by_team_id,omitempty"`
	UsedAt       *time.Time  `json:"used_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// RequestStatus is the review state of a license request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RequestType distinguishes a first license from a renewal.
type RequestType string

const (
	RequestNew     RequestType = "new"
	RequestRenewal RequestType = "renewal"
)

// LicenseRequest is a team admin's ask for a license, reviewed by staff.
// pending is the only state that permits a transition; approved and rejected
// are terminal. Re-requesting after rejection creates a new record.
type LicenseRequest struct {
	ID                   uuid.UUID     `json:"id"`
	TeamID               uuid.UUID     `json:"team_id"`
	TeamName             string        `json:"team_name"`
	Status               RequestStatus `json:"status"`
	RequestType          RequestType   `json:"request_type"`
	RequestedLicenseType LicenseType   `json:"requested_license_type,omitempty"`
	RequestedAt          time.Time     `json:"requested_at"`
	RequestedBy          uuid.UUID     `json:"requested_by"`
	AdminName            string        `json:"admin_name,omitempty"`
	AdminEmail           string        `json:"admin_email,omitempty"`
	AdminPhone           string        `json:"admin_phone,omitempty"`
	EstimatedPlayerCount int           `json:"estimated_player_count,omitempty"`
	ReviewedAt           *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy           *uuid.UUID    `json:"reviewed_by,omitempty"`
	// AssignedCode records the code minted on approval, for audit.
	AssignedCode string `json:"assigned_code,omitempty"`
}

// CanTransition reports whether a request may move to the given status.
// Only pending requests accept an outcome.
func (r *LicenseRequest) CanTransition(to RequestStatus) bool {
	if r.Status != RequestPending {
		return false
	}
	return to == RequestApproved || to == RequestRejected
}
