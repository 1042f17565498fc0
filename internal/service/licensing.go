package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/licensing"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/projection"
	"github.com/rosterhub/platform/internal/repository"
)

// LicensingService owns the transactions around the licensing engine.
type LicensingService struct {
	pool     *pgxpool.Pool
	engine   *licensing.Engine
	teams    repository.TeamRepository
	licenses repository.LicenseRepository
	requests repository.LicenseRequestRepository
	users    repository.UserRepository
	cache    projection.Store
	logger   *slog.Logger
}

// NewLicensingService creates a new LicensingService.
func NewLicensingService(
	pool *pgxpool.Pool,
	engine *licensing.Engine,
	teams repository.TeamRepository,
	licenses repository.LicenseRepository,
	requests repository.LicenseRequestRepository,
	users repository.UserRepository,
	cache projection.Store,
	logger *slog.Logger,
) *LicensingService {
	return &LicensingService{
		pool:     pool,
		engine:   engine,
		teams:    teams,
		licenses: licenses,
		requests: requests,
		users:    users,
		cache:    cache,
		logger:   logger,
	}
}

// CreateLicenses stocks the pool with count licenses of the given type.
// All-or-nothing: a code collision rolls back the whole batch.
func (s *LicensingService) CreateLicenses(ctx context.Context, typ domain.LicenseType, count int) ([]domain.License, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	licenses, err := s.engine.CreateLicenses(ctx, tx, typ, count)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("license pool stocked", "type", typ, "count", count)
	return licenses, nil
}

// ListLicenses returns the pool, optionally only unused entries.
func (s *LicensingService) ListLicenses(ctx context.Context, onlyUnused bool) ([]domain.License, error) {
	licenses, err := s.licenses.List(ctx, s.pool, onlyUnused)
	if err != nil {
		return nil, domain.ErrInternal("list licenses", err)
	}
	return licenses, nil
}

// ActivateByCode activates a team with a human-entered code. Team stamp and
// license consumption commit together or not at all.
func (s *LicensingService) ActivateByCode(ctx context.Context, actor *domain.User, teamID uuid.UUID, code string) (*domain.Team, error) {
	if err := s.requireTeamAdmin(ctx, actor, teamID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	team, err := s.engine.ActivateByCode(ctx, tx, teamID, code)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.invalidateStatus(ctx, teamID)
	s.logger.Info("license activated", "team_id", teamID, "code", team.LicenseCode, "expires_at", team.LicenseExpiresAt)
	return team, nil
}

// AssignFromPool allocates the first unused license to a team (staff action).
func (s *LicensingService) AssignFromPool(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	lic, err := s.engine.AllocateUnusedLicense(ctx, tx)
	if err != nil {
		return nil, err
	}
	team, err := s.engine.ActivateAllocated(ctx, tx, teamID, lic)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.invalidateStatus(ctx, teamID)
	s.logger.Info("license assigned from pool", "team_id", teamID, "code", lic.Code)
	return team, nil
}

// DeleteLicense removes a license; a bound team is reset to inactive first.
func (s *LicensingService) DeleteLicense(ctx context.Context, licenseID uuid.UUID) error {
	lic, err := s.licenses.FindByID(ctx, s.pool, licenseID)
	if err != nil {
		return domain.ErrInternal("find license", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.engine.DeleteLicense(ctx, tx, licenseID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}

	if lic != nil && lic.UsedByTeamID != nil {
		s.invalidateStatus(ctx, *lic.UsedByTeamID)
	}
	s.logger.Info("license deleted", "license_id", licenseID)
	return nil
}

// SubmitRequest files a license request on behalf of a team admin.
func (s *LicensingService) SubmitRequest(ctx context.Context, actor *domain.User, teamID uuid.UUID, input licensing.SubmitRequestInput) (*domain.LicenseRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.engine.SubmitRequest(ctx, tx, teamID, actor, input)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("license request submitted", "request_id", req.ID, "team_id", teamID)
	return req, nil
}

// ReviewRequest applies a staff decision to a pending request.
func (s *LicensingService) ReviewRequest(ctx context.Context, requestID uuid.UUID, decision licensing.Decision, reviewerID uuid.UUID) (*domain.LicenseRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.engine.ReviewRequest(ctx, tx, requestID, decision, reviewerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.invalidateStatus(ctx, req.TeamID)
	s.logger.Info("license request reviewed", "request_id", requestID, "decision", decision, "reviewer", reviewerID)
	return req, nil
}

// ListRequests returns requests in the given status (staff view).
func (s *LicensingService) ListRequests(ctx context.Context, status domain.RequestStatus) ([]domain.LicenseRequest, error) {
	requests, err := s.requests.ListByStatus(ctx, s.pool, status)
	if err != nil {
		return nil, domain.ErrInternal("list requests", err)
	}
	return requests, nil
}

// ListTeamRequests returns a team's own request history.
func (s *LicensingService) ListTeamRequests(ctx context.Context, actor *domain.User, teamID uuid.UUID) ([]domain.LicenseRequest, error) {
	if err := s.requireTeamAdmin(ctx, actor, teamID); err != nil {
		return nil, err
	}
	requests, err := s.requests.ListByTeam(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("list team requests", err)
	}
	return requests, nil
}

// LicenseStatus is the countdown view of a team's license.
type LicenseStatus struct {
	Status        domain.LicenseStatus `json:"status"`
	Type          domain.LicenseType   `json:"type,omitempty"`
	Code          string               `json:"code,omitempty"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	RemainingDays int                  `json:"remaining_days"`
	Expired       bool                 `json:"expired"`
}

// TeamLicenseStatus reports remaining days and expiry for a team. A team
// stamped active whose expiry has passed is downgraded to expired on read.
// The computed view is cached briefly; every license write invalidates it.
func (s *LicensingService) TeamLicenseStatus(ctx context.Context, teamID uuid.UUID) (*LicenseStatus, error) {
	if cached, err := projection.GetLicenseStatus(ctx, s.cache, teamID.String()); err == nil {
		status := &LicenseStatus{
			Status:        domain.LicenseStatus(cached.Status),
			Type:          domain.LicenseType(cached.Type),
			Code:          cached.Code,
			RemainingDays: cached.RemainingDays,
			Expired:       cached.Expired,
		}
		if cached.ExpiresAt != "" {
			if at, perr := time.Parse(time.RFC3339, cached.ExpiresAt); perr == nil {
				status.ExpiresAt = &at
			}
		}
		return status, nil
	}

	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}

	status := &LicenseStatus{Status: team.LicenseStatus, Type: team.LicenseType, Code: team.LicenseCode}
	if team.LicenseExpiresAt != nil {
		now := time.Now().UTC()
		status.ExpiresAt = team.LicenseExpiresAt
		status.RemainingDays = policy.RemainingDays(now, *team.LicenseExpiresAt)
		status.Expired = policy.IsExpired(now, *team.LicenseExpiresAt)

		if status.Expired && team.LicenseStatus == domain.LicenseStatusActive {
			if err := s.teams.MarkExpired(ctx, s.pool, team.ID); err != nil {
				s.logger.Error("mark team expired", "team_id", team.ID, "error", err)
			} else {
				status.Status = domain.LicenseStatusExpired
			}
		}
	}

	proj := projection.LicenseStatusProjection{
		TeamID:        teamID.String(),
		Status:        string(status.Status),
		Type:          string(status.Type),
		Code:          status.Code,
		RemainingDays: status.RemainingDays,
		Expired:       status.Expired,
	}
	if status.ExpiresAt != nil {
		proj.ExpiresAt = status.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if err := projection.UpdateLicenseStatus(ctx, s.cache, proj); err != nil {
		s.logger.Warn("cache license status", "team_id", teamID, "error", err)
	}
	return status, nil
}

func (s *LicensingService) invalidateStatus(ctx context.Context, teamID uuid.UUID) {
	if err := projection.InvalidateLicenseStatus(ctx, s.cache, teamID.String()); err != nil {
		s.logger.Warn("invalidate license status", "team_id", teamID, "error", err)
	}
}

func (s *LicensingService) requireTeamAdmin(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return domain.ErrInternal("find team", err)
	}
	if team == nil {
		return domain.ErrNotFound("team", teamID.String())
	}
	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if !policy.IsTeamAdmin(set, actor.ID.String(), actor.Email) {
		return domain.ErrForbidden("only a team admin can perform this action")
	}
	return nil
}
