package licensing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/repository"
)

// CreateLicenses bulk-generates count licenses of the given type, each with a
// freshly minted unique code. Bounded 1-100 per call.
func (e *Engine) CreateLicenses(ctx context.Context, db repository.DBTX, typ domain.LicenseType, count int) ([]domain.License, error) {
	if err := domain.ValidateLicenseCount(count); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	duration, ok := domain.DurationDays(typ)
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown license type: %s", typ))
	}

	licenses := make([]domain.License, 0, count)
	for i := 0; i < count; i++ {
		code, err := domain.GenerateLicenseCode(typ)
		if err != nil {
			return nil, domain.ErrInternal("generate license code", err)
		}
		lic := domain.License{
			ID:           uuid.New(),
			Code:         code,
			Type:         typ,
			DurationDays: duration,
		}
		if err := e.licenses.Create(ctx, db, &lic); err != nil {
			return nil, domain.ErrInternal("create license", err)
		}
		licenses = append(licenses, lic)
	}
	return licenses, nil
}

// AllocateUnusedLicense locks and returns the first unused license in
// creation order. The pool is not filtered by type; callers that need a
// specific type go through the request workflow, which mints one instead.
func (e *Engine) AllocateUnusedLicense(ctx context.Context, tx pgx.Tx) (*domain.License, error) {
	lic, err := e.licenses.FirstUnused(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("allocate license: %w", err)
	}
	if lic == nil {
		return nil, domain.ErrNoLicenseAvailable()
	}
	return lic, nil
}
