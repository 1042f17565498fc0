package licensing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

// ActivateByCode binds the unused license carrying the given code to the
// team. The code is uppercased before lookup. The license row is locked while
// held, so a concurrent activation of the same code blocks and then fails
// with CodeNotFound once the first one commits.
func (e *Engine) ActivateByCode(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, code string) (*domain.Team, error) {
	team, err := e.lockTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeLicenseCode(code)
	lic, err := e.licenses.FindUnusedByCode(ctx, tx, normalized)
	if err != nil {
		return nil, fmt.Errorf("find license by code: %w", err)
	}
	if lic == nil {
		return nil, domain.ErrCodeNotFound(normalized)
	}

	return e.bind(ctx, tx, team, lic)
}

// ActivateAllocated binds a just-minted or pool-allocated license to the
// team, skipping the code lookup. The caller must hold the license row lock.
func (e *Engine) ActivateAllocated(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, lic *domain.License) (*domain.Team, error) {
	team, err := e.lockTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	if lic.IsUsed {
		return nil, domain.ErrConflict(fmt.Sprintf("license %s is already in use", lic.Code))
	}
	return e.bind(ctx, tx, team, lic)
}

// DeleteLicense removes a license from the pool. If the license is bound to a
// team, the team's license fields are reset to inactive first, so the team is
// never left pointing at a row that no longer exists.
func (e *Engine) DeleteLicense(ctx context.Context, tx pgx.Tx, licenseID uuid.UUID) error {
	lic, err := e.licenses.LockForUpdate(ctx, tx, licenseID)
	if err != nil {
		return fmt.Errorf("lock license: %w", err)
	}
	if lic == nil {
		return domain.ErrNotFound("license", licenseID.String())
	}

	if lic.UsedByTeamID != nil {
		team, err := e.lockTeam(ctx, tx, *lic.UsedByTeamID)
		if err != nil {
			return err
		}
		if err := e.teams.ResetLicense(ctx, tx, team.ID); err != nil {
			return fmt.Errorf("reset team license: %w", err)
		}
	}

	if err := e.licenses.Delete(ctx, tx, lic.ID); err != nil {
		return fmt.Errorf("delete license: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewLicenseDeactivatedEvent(lic.ID, lic.UsedByTeamID)); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
