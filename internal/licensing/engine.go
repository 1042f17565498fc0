package licensing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/repository"
)

// Engine implements the license lifecycle: pool stocking, allocation,
// activation, deactivation, and the request workflow. Every operation that
// touches both a license and a team runs inside the caller's transaction so
// a license is never marked used without a team being stamped, and vice versa.
type Engine struct {
	teams    repository.TeamRepository
	licenses repository.LicenseRepository
	requests repository.LicenseRequestRepository
	outbox   repository.OutboxRepository

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a licensing engine with the given repositories.
func NewEngine(
	teams repository.TeamRepository,
	licenses repository.LicenseRepository,
	requests repository.LicenseRequestRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		teams:    teams,
		licenses: licenses,
		requests: requests,
		outbox:   outbox,
		now:      time.Now,
	}
}

// bind is the core write primitive: stamp the team with the license metadata
// and consume the license, atomically within tx. Activation by code and
// request approval both delegate here.
func (e *Engine) bind(ctx context.Context, tx pgx.Tx, team *domain.Team, lic *domain.License) (*domain.Team, error) {
	now := e.now().UTC()
	expiresAt := policy.ExpiresAt(now, lic.DurationDays)

	stamp := repository.LicenseStamp{
		LicenseID:    lic.ID,
		Code:         lic.Code,
		Type:         lic.Type,
		Status:       domain.LicenseStatusActive,
		ActivatedAt:  now,
		ExpiresAt:    expiresAt,
		DurationDays: lic.DurationDays,
	}
	if err := e.teams.StampLicense(ctx, tx, team.ID, stamp); err != nil {
		return nil, fmt.Errorf("stamp team: %w", err)
	}

	if err := e.licenses.MarkUsed(ctx, tx, lic.ID, team.ID, now); err != nil {
		return nil, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewLicenseActivatedEvent(lic, team.ID)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	bound := *team
	bound.LicenseID = &lic.ID
	bound.LicenseCode = lic.Code
	bound.LicenseType = lic.Type
	bound.LicenseStatus = domain.LicenseStatusActive
	bound.LicenseActivatedAt = &stamp.ActivatedAt
	bound.LicenseExpiresAt = &stamp.ExpiresAt
	bound.LicenseDurationDays = &lic.DurationDays
	return &bound, nil
}

// lockTeam loads and locks a team, translating a missing row into NotFound.
func (e *Engine) lockTeam(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) (*domain.Team, error) {
	team, err := e.teams.LockForUpdate(ctx, tx, teamID)
	if err != nil {
		return nil, fmt.Errorf("lock team: %w", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}
	return team, nil
}
