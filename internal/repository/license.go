package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

type licenseRepo struct{}

// NewLicenseRepository returns a pgx-backed LicenseRepository.
func NewLicenseRepository() LicenseRepository {
	return &licenseRepo{}
}

const licenseColumns = `id, code, type, duration_days, is_used, used_by_team_id, used_at, created_at`

func (r *licenseRepo) Create(ctx context.Context, db DBTX, lic *domain.License) error {
	_, err := db.Exec(ctx, `
		INSERT INTO licenses (id, code, type, duration_days, is_used, created_at)
		VALUES ($1, $2, $3, $4, false, now())`,
		lic.ID, lic.Code, string(lic.Type), lic.DurationDays)
	if err != nil {
		return fmt.Errorf("insert license: %w", err)
	}
	return nil
}

func (r *licenseRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.License, error) {
	row := db.QueryRow(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id)
	return scanLicense(row)
}

func (r *licenseRepo) FindUnusedByCode(ctx context.Context, tx pgx.Tx, code string) (*domain.License, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+licenseColumns+` FROM licenses
		WHERE code = $1 AND is_used = false
		FOR UPDATE`, code)
	return scanLicense(row)
}

func (r *licenseRepo) FirstUnused(ctx context.Context, tx pgx.Tx) (*domain.License, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+licenseColumns+` FROM licenses
		WHERE is_used = false
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)
	return scanLicense(row)
}

func (r *licenseRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.License, error) {
	row := tx.QueryRow(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = $1 FOR UPDATE`, id)
	return scanLicense(row)
}

// MarkUsed consumes the license. The is_used guard in the WHERE clause is the
// compare-and-swap that keeps a code from binding twice even outside a lock.
func (r *licenseRepo) MarkUsed(ctx context.Context, tx pgx.Tx, id, teamID uuid.UUID, usedAt time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE licenses SET is_used = true, used_by_team_id = $2, used_at = $3
		WHERE id = $1 AND is_used = false`,
		id, teamID, usedAt)
	if err != nil {
		return fmt.Errorf("mark license used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict(fmt.Sprintf("license %s is already in use", id))
	}
	return nil
}

func (r *licenseRepo) List(ctx context.Context, db DBTX, onlyUnused bool) ([]domain.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY created_at, id`
	if onlyUnused {
		query = `SELECT ` + licenseColumns + ` FROM licenses WHERE is_used = false ORDER BY created_at, id`
	}
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []domain.License
	for rows.Next() {
		var l domain.License
		if err := rows.Scan(&l.ID, &l.Code, &l.Type, &l.DurationDays, &l.IsUsed, &l.UsedByTeamID, &l.UsedAt, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}

func (r *licenseRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

func scanLicense(row pgx.Row) (*domain.License, error) {
	var l domain.License
	err := row.Scan(&l.ID, &l.Code, &l.Type, &l.DurationDays, &l.IsUsed, &l.UsedByTeamID, &l.UsedAt, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan license: %w", err)
	}
	return &l, nil
}
