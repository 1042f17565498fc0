package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rosterhub/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// LicenseStamp is the license metadata written onto a team at activation.
type LicenseStamp struct {
	LicenseID    uuid.UUID
	Code         string
	Type         domain.LicenseType
	Status       domain.LicenseStatus
	ActivatedAt  time.Time
	ExpiresAt    time.Time
	DurationDays int
}

// TeamRepository provides access to the teams table.
type TeamRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Team, error)
	FindByJoinCode(ctx context.Context, db DBTX, joinCode string) (*domain.Team, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) on the team.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Team, error)

	Create(ctx context.Context, db DBTX, team *domain.Team) error
	UpdateInfo(ctx context.Context, db DBTX, team *domain.Team) error
	UpdateAdminIDs(ctx context.Context, db DBTX, id uuid.UUID, adminIDs []string) error

	// StampLicense writes the full license field group onto the team.
	StampLicense(ctx context.Context, tx pgx.Tx, id uuid.UUID, stamp LicenseStamp) error

	// ResetLicense clears every license field back to the inactive baseline.
	ResetLicense(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// MarkExpired downgrades the stamped status once the expiry has passed.
	MarkExpired(ctx context.Context, db DBTX, id uuid.UUID) error

	// ExpireOverdue downgrades every active team whose expiry has passed and
	// returns the affected rows.
	ExpireOverdue(ctx context.Context, tx pgx.Tx, now time.Time) ([]domain.Team, error)

	ListByIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]domain.Team, error)

	// ListByAdminIdentifier returns teams whose admin set (current list or
	// legacy single field) contains any of the given identifiers.
	ListByAdminIdentifier(ctx context.Context, db DBTX, identifiers []string) ([]domain.Team, error)

	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// LicenseRepository provides access to the licenses table.
type LicenseRepository interface {
	Create(ctx context.Context, db DBTX, lic *domain.License) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.License, error)

	// FindUnusedByCode locks the unused license carrying the given code
	// (SELECT FOR UPDATE). Returns nil when the code is unknown or consumed,
	// which makes double-activation fail instead of double-binding.
	FindUnusedByCode(ctx context.Context, tx pgx.Tx, code string) (*domain.License, error)

	// FirstUnused locks the first free license in creation order
	// (FOR UPDATE SKIP LOCKED) so concurrent allocations never collide.
	FirstUnused(ctx context.Context, tx pgx.Tx) (*domain.License, error)

	// LockForUpdate locks a license row by ID ahead of deletion.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.License, error)

	// MarkUsed consumes the license: is_used=true, used_by_team_id, used_at.
	MarkUsed(ctx context.Context, tx pgx.Tx, id, teamID uuid.UUID, usedAt time.Time) error

	List(ctx context.Context, db DBTX, onlyUnused bool) ([]domain.License, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// LicenseRequestRepository provides access to the license_requests table.
type LicenseRequestRepository interface {
	Create(ctx context.Context, db DBTX, req *domain.LicenseRequest) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.LicenseRequest, error)

	// LockForReview acquires a row-level lock so only one reviewer can
	// transition a pending request.
	LockForReview(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.LicenseRequest, error)

	// MarkReviewed writes the outcome fields of a review.
	MarkReviewed(ctx context.Context, tx pgx.Tx, req *domain.LicenseRequest) error

	ListByStatus(ctx context.Context, db DBTX, status domain.RequestStatus) ([]domain.LicenseRequest, error)
	ListByTeam(ctx context.Context, db DBTX, teamID uuid.UUID) ([]domain.LicenseRequest, error)
}

// UserRepository provides access to the users table.
type UserRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error)
	Create(ctx context.Context, db DBTX, user *domain.User) error

	AddTeam(ctx context.Context, db DBTX, userID, teamID uuid.UUID) error
	RemoveTeam(ctx context.Context, db DBTX, userID, teamID uuid.UUID) error

	// RemoveTeamFromAll strips a deleted team out of every user's membership.
	RemoveTeamFromAll(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) error

	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// EventRepository provides access to the events table.
type EventRepository interface {
	Create(ctx context.Context, db DBTX, event *domain.Event) error
	ListByTeam(ctx context.Context, db DBTX, teamID uuid.UUID) ([]domain.Event, error)
	DeleteByTeam(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) error
}

// OutboxRow couples an outbox draft with its sequence ID for the poller.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns pending events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished removes drained events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
