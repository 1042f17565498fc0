package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

type licenseRequestRepo struct{}

// NewLicenseRequestRepository returns a pgx-backed LicenseRequestRepository.
func NewLicenseRequestRepository() LicenseRequestRepository {
	return &licenseRequestRepo{}
}

const requestColumns = `id, team_id, team_name, status, request_type, requested_license_type,
	requested_at, requested_by, admin_name, admin_email, admin_phone,
	estimated_player_count, reviewed_at, reviewed_by, assigned_code`

func (r *licenseRequestRepo) Create(ctx context.Context, db DBTX, req *domain.LicenseRequest) error {
	_, err := db.Exec(ctx, `
		INSERT INTO license_requests
			(id, team_id, team_name, status, request_type, requested_license_type,
			 requested_at, requested_by, admin_name, admin_email, admin_phone, estimated_player_count)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)`,
		req.ID, req.TeamID, req.TeamName, string(req.Status), string(req.RequestType),
		string(req.RequestedLicenseType), req.RequestedAt, req.RequestedBy,
		req.AdminName, req.AdminEmail, req.AdminPhone, req.EstimatedPlayerCount)
	if err != nil {
		return fmt.Errorf("insert license request: %w", err)
	}
	return nil
}

func (r *licenseRequestRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.LicenseRequest, error) {
	row := db.QueryRow(ctx, `SELECT `+requestColumns+` FROM license_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *licenseRequestRepo) LockForReview(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.LicenseRequest, error) {
	row := tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM license_requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

func (r *licenseRequestRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, req *domain.LicenseRequest) error {
	tag, err := tx.Exec(ctx, `
		UPDATE license_requests
		SET status = $2, reviewed_at = $3, reviewed_by = $4, assigned_code = NULLIF($5, '')
		WHERE id = $1 AND status = $6`,
		req.ID, string(req.Status), req.ReviewedAt, req.ReviewedBy, req.AssignedCode,
		string(domain.RequestPending))
	if err != nil {
		return fmt.Errorf("mark request reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict(fmt.Sprintf("license request %s has already been reviewed", req.ID))
	}
	return nil
}

func (r *licenseRequestRepo) ListByStatus(ctx context.Context, db DBTX, status domain.RequestStatus) ([]domain.LicenseRequest, error) {
	rows, err := db.Query(ctx, `
		SELECT `+requestColumns+` FROM license_requests
		WHERE status = $1 ORDER BY requested_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list license requests: %w", err)
	}
	return collectRequests(rows)
}

func (r *licenseRequestRepo) ListByTeam(ctx context.Context, db DBTX, teamID uuid.UUID) ([]domain.LicenseRequest, error) {
	rows, err := db.Query(ctx, `
		SELECT `+requestColumns+` FROM license_requests
		WHERE team_id = $1 ORDER BY requested_at DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team license requests: %w", err)
	}
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]domain.LicenseRequest, error) {
	defer rows.Close()
	var requests []domain.LicenseRequest
	for rows.Next() {
		req, err := scanRequestFields(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.LicenseRequest, error) {
	req, err := scanRequestFields(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

func scanRequestFields(row pgx.Row) (*domain.LicenseRequest, error) {
	var req domain.LicenseRequest
	var requestedType, adminName, adminEmail, adminPhone, assignedCode *string
	var estimatedCount *int
	err := row.Scan(
		&req.ID, &req.TeamID, &req.TeamName, &req.Status, &req.RequestType, &requestedType,
		&req.RequestedAt, &req.RequestedBy, &adminName, &adminEmail, &adminPhone,
		&estimatedCount, &req.ReviewedAt, &req.ReviewedBy, &assignedCode,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan license request: %w", err)
	}
	if requestedType != nil {
		req.RequestedLicenseType = domain.LicenseType(*requestedType)
	}
	if adminName != nil {
		req.AdminName = *adminName
	}
	if adminEmail != nil {
		req.AdminEmail = *adminEmail
	}
	if adminPhone != nil {
		req.AdminPhone = *adminPhone
	}
	if estimatedCount != nil {
		req.EstimatedPlayerCount = *estimatedCount
	}
	if assignedCode != nil {
		req.AssignedCode = *assignedCode
	}
	return &req, nil
}
