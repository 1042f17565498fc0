package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

type teamRepo struct{}

// NewTeamRepository returns a pgx-backed TeamRepository.
func NewTeamRepository() TeamRepository {
	return &teamRepo{}
}

const teamColumns = `id, name, join_code, color, description, admin_ids, legacy_admin_id,
	license_id, license_status, license_type, license_code,
	license_activated_at, license_expires_at, license_duration_days,
	created_at, updated_at`

func (r *teamRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Team, error) {
	row := db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	return scanTeam(row)
}

func (r *teamRepo) FindByJoinCode(ctx context.Context, db DBTX, joinCode string) (*domain.Team, error) {
	row := db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE join_code = $1`, joinCode)
	return scanTeam(row)
}

func (r *teamRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Team, error) {
	row := tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id)
	return scanTeam(row)
}

func (r *teamRepo) Create(ctx context.Context, db DBTX, team *domain.Team) error {
	_, err := db.Exec(ctx, `
		INSERT INTO teams (id, name, join_code, color, description, admin_ids, legacy_admin_id, license_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, now(), now())`,
		team.ID, team.Name, team.JoinCode, team.Color, team.Description,
		team.AdminIDs, team.LegacyAdminID, string(domain.LicenseStatusInactive))
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (r *teamRepo) UpdateInfo(ctx context.Context, db DBTX, team *domain.Team) error {
	_, err := db.Exec(ctx, `
		UPDATE teams SET name = $2, join_code = $3, color = $4, description = $5, updated_at = now()
		WHERE id = $1`,
		team.ID, team.Name, team.JoinCode, team.Color, team.Description)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

// UpdateAdminIDs also clears the legacy single-admin field so the row is
// normalized to the current shape on first admin write.
func (r *teamRepo) UpdateAdminIDs(ctx context.Context, db DBTX, id uuid.UUID, adminIDs []string) error {
	_, err := db.Exec(ctx, `
		UPDATE teams SET admin_ids = $2, legacy_admin_id = NULL, updated_at = now()
		WHERE id = $1`, id, adminIDs)
	if err != nil {
		return fmt.Errorf("update team admins: %w", err)
	}
	return nil
}

func (r *teamRepo) StampLicense(ctx context.Context, tx pgx.Tx, id uuid.UUID, stamp LicenseStamp) error {
	tag, err := tx.Exec(ctx, `
		UPDATE teams SET
			license_id = $2,
			license_code = $3,
			license_type = $4,
			license_status = $5,
			license_activated_at = $6,
			license_expires_at = $7,
			license_duration_days = $8,
			updated_at = now()
		WHERE id = $1`,
		id, stamp.LicenseID, stamp.Code, string(stamp.Type), string(stamp.Status),
		stamp.ActivatedAt, stamp.ExpiresAt, stamp.DurationDays)
	if err != nil {
		return fmt.Errorf("stamp team license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stamp team license: team %s not found", id)
	}
	return nil
}

func (r *teamRepo) ResetLicense(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE teams SET
			license_id = NULL,
			license_code = NULL,
			license_type = NULL,
			license_status = $2,
			license_activated_at = NULL,
			license_expires_at = NULL,
			license_duration_days = NULL,
			updated_at = now()
		WHERE id = $1`, id, string(domain.LicenseStatusInactive))
	if err != nil {
		return fmt.Errorf("reset team license: %w", err)
	}
	return nil
}

func (r *teamRepo) MarkExpired(ctx context.Context, db DBTX, id uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE teams SET license_status = $2, updated_at = now()
		WHERE id = $1 AND license_status = $3`,
		id, string(domain.LicenseStatusExpired), string(domain.LicenseStatusActive))
	if err != nil {
		return fmt.Errorf("mark team expired: %w", err)
	}
	return nil
}

func (r *teamRepo) ExpireOverdue(ctx context.Context, tx pgx.Tx, now time.Time) ([]domain.Team, error) {
	rows, err := tx.Query(ctx, `
		UPDATE teams SET license_status = $2, updated_at = now()
		WHERE license_status = $3 AND license_expires_at <= $1
		RETURNING `+teamColumns, now, string(domain.LicenseStatusExpired), string(domain.LicenseStatusActive))
	if err != nil {
		return nil, fmt.Errorf("expire overdue teams: %w", err)
	}
	return collectTeams(rows)
}

func (r *teamRepo) ListByIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]domain.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return collectTeams(rows)
}

func (r *teamRepo) ListByAdminIdentifier(ctx context.Context, db DBTX, identifiers []string) ([]domain.Team, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE admin_ids && $1::text[] OR legacy_admin_id = ANY($1)
		ORDER BY created_at`, identifiers)
	if err != nil {
		return nil, fmt.Errorf("list teams by admin: %w", err)
	}
	return collectTeams(rows)
}

func (r *teamRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

func collectTeams(rows pgx.Rows) ([]domain.Team, error) {
	defer rows.Close()
	var teams []domain.Team
	for rows.Next() {
		team, err := scanTeamFields(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	team, err := scanTeamFields(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return team, nil
}

func scanTeamFields(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	var legacyAdminID, licenseType, licenseCode, color, description *string
	err := row.Scan(
		&t.ID, &t.Name, &t.JoinCode, &color, &description, &t.AdminIDs, &legacyAdminID,
		&t.LicenseID, &t.LicenseStatus, &licenseType, &licenseCode,
		&t.LicenseActivatedAt, &t.LicenseExpiresAt, &t.LicenseDurationDays,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	if color != nil {
		t.Color = *color
	}
	if description != nil {
		t.Description = *description
	}
	if legacyAdminID != nil {
		t.LegacyAdminID = *legacyAdminID
	}
	if licenseType != nil {
		t.LicenseType = domain.LicenseType(*licenseType)
	}
	if licenseCode != nil {
		t.LicenseCode = *licenseCode
	}
	return &t, nil
}
