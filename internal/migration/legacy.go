// Package migration imports records exported from the legacy document-store
// backend. Legacy IDs are opaque strings; every record maps to a stable UUID
// so re-running an import is idempotent.
package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/policy"
)

// DeterministicUUID derives a UUID from a legacy document ID using SHA256.
// The same legacy ID always maps to the same UUID across runs and systems.
func DeterministicUUID(namespace, legacyID string) uuid.UUID {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte(":"))
	h.Write([]byte(legacyID))
	digest := h.Sum(nil)

	var id uuid.UUID
	copy(id[:], digest[:16])
	id[6] = (id[6] & 0x0f) | 0x50 // version 5
	id[8] = (id[8] & 0x3f) | 0x80 // variant RFC4122
	return id
}

// SHA256Hex returns the full SHA256 hex digest of namespace:legacyID.
func SHA256Hex(namespace, legacyID string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte(":"))
	h.Write([]byte(legacyID))
	return hex.EncodeToString(h.Sum(nil))
}

// LegacyTeam is a team document as exported from the old backend. The old
// schema stored a single admin identifier, sometimes an email address.
type LegacyTeam struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	JoinCode         string     `json:"joinCode"`
	AdminID          string     `json:"adminId"`
	AdminIDs         []string   `json:"adminIds"`
	LicenseStatus    string     `json:"licenseStatus"`
	LicenseType      string     `json:"licenseType"`
	LicenseCode      string     `json:"licenseCode"`
	LicenseActivated *time.Time `json:"licenseActivatedAt"`
}

// LegacyUser is a user document as exported from the old backend.
type LegacyUser struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash"`
	Name         string   `json:"name"`
	TeamIDs      []string `json:"teamIds"`
}

// Importer writes legacy records into the Postgres schema.
type Importer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewImporter creates a legacy importer.
func NewImporter(pool *pgxpool.Pool, logger *slog.Logger) *Importer {
	return &Importer{pool: pool, logger: logger}
}

// MapTeam converts a legacy team document into a domain.Team. The legacy
// single-admin field lands in LegacyAdminID when no admin list exists, and
// license fields are recomputed so old rows with inconsistent duration tables
// come out on the unified table.
func MapTeam(lt LegacyTeam) domain.Team {
	team := domain.Team{
		ID:            DeterministicUUID("team", lt.ID),
		Name:          lt.Name,
		JoinCode:      lt.JoinCode,
		LicenseStatus: domain.LicenseStatusInactive,
	}

	if set := policy.ResolveAdminSet(lt.AdminIDs, ""); len(set) > 0 {
		team.AdminIDs = set
	} else {
		team.LegacyAdminID = lt.AdminID
	}

	if lt.LicenseStatus == string(domain.LicenseStatusActive) && lt.LicenseActivated != nil {
		typ := domain.LicenseType(lt.LicenseType)
		if duration, ok := domain.DurationDays(typ); ok {
			activated := lt.LicenseActivated.UTC()
			expires := policy.ExpiresAt(activated, duration)
			team.LicenseStatus = domain.LicenseStatusActive
			team.LicenseType = typ
			team.LicenseCode = lt.LicenseCode
			team.LicenseActivatedAt = &activated
			team.LicenseExpiresAt = &expires
			team.LicenseDurationDays = &duration
		}
	}

	return team
}

// ImportTeam upserts a legacy team. Conflicts keep the existing row so Postgres
// stays authoritative once a team has been touched on the new backend.
func (m *Importer) ImportTeam(ctx context.Context, lt LegacyTeam) (uuid.UUID, error) {
	team := MapTeam(lt)

	_, err := m.pool.Exec(ctx, `
		INSERT INTO teams
			(id, name, join_code, admin_ids, legacy_admin_id,
			 license_status, license_type, license_code,
			 license_activated_at, license_expires_at, license_duration_days)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		team.ID, team.Name, team.JoinCode, team.AdminIDs, team.LegacyAdminID,
		string(team.LicenseStatus), string(team.LicenseType), team.LicenseCode,
		team.LicenseActivatedAt, team.LicenseExpiresAt, team.LicenseDurationDays)
	if err != nil {
		return uuid.Nil, fmt.Errorf("import team %s: %w", lt.ID, err)
	}

	m.logger.Info("imported team", "legacy_id", lt.ID, "id", team.ID, "name", team.Name)
	return team.ID, nil
}

// ImportUser upserts a legacy user, remapping team memberships.
func (m *Importer) ImportUser(ctx context.Context, lu LegacyUser) (uuid.UUID, error) {
	id := DeterministicUUID("user", lu.ID)

	teamIDs := make([]uuid.UUID, 0, len(lu.TeamIDs))
	for _, legacyTeamID := range lu.TeamIDs {
		teamIDs = append(teamIDs, DeterministicUUID("team", legacyTeamID))
	}

	_, err := m.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, team_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		id, lu.Email, lu.PasswordHash, lu.Name, string(domain.RoleMember), teamIDs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("import user %s: %w", lu.ID, err)
	}

	m.logger.Info("imported user", "legacy_id", lu.ID, "id", id, "email", lu.Email)
	return id, nil
}

// ImportReadiness summarizes the state of an import run.
type ImportReadiness struct {
	Teams         int    `json:"teams"`
	Users         int    `json:"users"`
	OutboxHealthy bool   `json:"outbox_healthy"`
	Ready         bool   `json:"ready"`
	Message       string `json:"message"`
}

// CheckReadiness validates the system state after an import before cutover.
func (m *Importer) CheckReadiness(ctx context.Context) (*ImportReadiness, error) {
	readiness := &ImportReadiness{}

	if err := m.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&readiness.Teams); err != nil {
		return nil, fmt.Errorf("count teams: %w", err)
	}
	if err := m.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&readiness.Users); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	// no unpublished events older than 5 minutes
	var staleCount int
	err := m.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM event_outbox
		WHERE occurred_at < now() - interval '5 minutes'`).Scan(&staleCount)
	if err != nil {
		return nil, fmt.Errorf("check outbox: %w", err)
	}
	readiness.OutboxHealthy = staleCount == 0

	readiness.Ready = readiness.OutboxHealthy && readiness.Teams > 0
	if readiness.Ready {
		readiness.Message = "import complete, ready for cutover"
	} else {
		readiness.Message = "not ready: check outbox health and imported counts"
	}

	m.logger.Info("import readiness check",
		"ready", readiness.Ready,
		"teams", readiness.Teams,
		"users", readiness.Users,
		"outbox_healthy", readiness.OutboxHealthy)

	return readiness, nil
}
