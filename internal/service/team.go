package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/repository"
)

// TeamService handles team lifecycle and membership.
type TeamService struct {
	pool     *pgxpool.Pool
	teams    repository.TeamRepository
	users    repository.UserRepository
	events   repository.EventRepository
	licenses repository.LicenseRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

// NewTeamService creates a new TeamService.
func NewTeamService(
	pool *pgxpool.Pool,
	teams repository.TeamRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	licenses repository.LicenseRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		pool:     pool,
		teams:    teams,
		users:    users,
		events:   events,
		licenses: licenses,
		outbox:   outbox,
		logger:   logger,
	}
}

// CreateTeamInput holds the team creation request fields.
type CreateTeamInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Create makes a new team with the creator as its only admin. Teams always
// start unlicensed.
func (s *TeamService) Create(ctx context.Context, creator *domain.User, input CreateTeamInput) (*domain.Team, error) {
	if err := domain.ValidateTeamName(input.Name); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	joinCode, err := domain.GenerateJoinCode()
	if err != nil {
		return nil, domain.ErrInternal("generate join code", err)
	}

	team := &domain.Team{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		JoinCode:      joinCode,
		Color:         input.Color,
		Description:   input.Description,
		AdminIDs:      []string{creator.ID.String()},
		LicenseStatus: domain.LicenseStatusInactive,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.teams.Create(ctx, tx, team); err != nil {
		return nil, domain.ErrInternal("create team", err)
	}
	if err := s.users.AddTeam(ctx, tx, creator.ID, team.ID); err != nil {
		return nil, domain.ErrInternal("enroll creator", err)
	}
	draft := domain.NewTeamEvent(domain.EventTeamCreated, team.ID, map[string]interface{}{"name": team.Name})
	if err := s.outbox.Insert(ctx, tx, draft); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("team created", "team_id", team.ID, "name", team.Name, "creator", creator.ID)
	return team, nil
}

// Get returns a team visible to one of its members or admins.
func (s *TeamService) Get(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}
	if !s.isMemberOrAdmin(actor, team) {
		return nil, domain.ErrForbidden("not a member of this team")
	}
	return team, nil
}

// ListMine returns the teams the actor is enrolled in or administers.
func (s *TeamService) ListMine(ctx context.Context, actor *domain.User) ([]domain.Team, error) {
	byMembership, err := s.teams.ListByIDs(ctx, s.pool, actor.TeamIDs)
	if err != nil {
		return nil, domain.ErrInternal("list teams", err)
	}
	byAdmin, err := s.teams.ListByAdminIdentifier(ctx, s.pool, []string{actor.ID.String(), actor.Email})
	if err != nil {
		return nil, domain.ErrInternal("list admin teams", err)
	}

	seen := make(map[uuid.UUID]bool, len(byMembership))
	teams := byMembership
	for _, t := range teams {
		seen[t.ID] = true
	}
	for _, t := range byAdmin {
		if !seen[t.ID] {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

// UpdateTeamInput holds the mutable team attributes.
type UpdateTeamInput struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// Update edits team attributes (admin only).
func (s *TeamService) Update(ctx context.Context, actor *domain.User, teamID uuid.UUID, input UpdateTeamInput) (*domain.Team, error) {
	team, err := s.requireAdmin(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := domain.ValidateTeamName(*input.Name); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Color != nil {
		team.Color = *input.Color
	}
	if input.Description != nil {
		team.Description = *input.Description
	}

	if err := s.teams.UpdateInfo(ctx, s.pool, team); err != nil {
		return nil, domain.ErrInternal("update team", err)
	}
	return team, nil
}

// RotateJoinCode replaces the team's join code (admin only).
func (s *TeamService) RotateJoinCode(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.requireAdmin(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	code, err := domain.GenerateJoinCode()
	if err != nil {
		return nil, domain.ErrInternal("generate join code", err)
	}
	team.JoinCode = code
	if err := s.teams.UpdateInfo(ctx, s.pool, team); err != nil {
		return nil, domain.ErrInternal("update team", err)
	}
	return team, nil
}

// JoinByCode enrolls the actor into the team carrying the join code.
func (s *TeamService) JoinByCode(ctx context.Context, actor *domain.User, joinCode string) (*domain.Team, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if err := domain.ValidateJoinCode(code); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	team, err := s.teams.FindByJoinCode(ctx, s.pool, code)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team with join code", code)
	}

	for _, id := range actor.TeamIDs {
		if id == team.ID {
			return nil, domain.ErrConflict("already a member of this team")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.users.AddTeam(ctx, tx, actor.ID, team.ID); err != nil {
		return nil, domain.ErrInternal("enroll member", err)
	}
	draft := domain.NewTeamEvent(domain.EventMemberJoined, team.ID, map[string]interface{}{"user_id": actor.ID.String()})
	if err := s.outbox.Insert(ctx, tx, draft); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("member joined team", "team_id", team.ID, "user_id", actor.ID)
	return team, nil
}

// AddAdmin grants another user admin rights on the team. Writing the admin
// list also normalizes away the legacy single-admin field.
func (s *TeamService) AddAdmin(ctx context.Context, actor *domain.User, teamID, newAdminID uuid.UUID) (*domain.Team, error) {
	team, err := s.requireAdmin(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, s.pool, newAdminID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound("user", newAdminID.String())
	}

	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if policy.IsTeamAdmin(set, target.ID.String(), target.Email) {
		return nil, domain.ErrConflict("user is already an admin of this team")
	}

	set = append(set, target.ID.String())
	if err := s.teams.UpdateAdminIDs(ctx, s.pool, team.ID, set); err != nil {
		return nil, domain.ErrInternal("update team admins", err)
	}
	team.AdminIDs = set
	team.LegacyAdminID = ""
	return team, nil
}

// RemoveAdmin revokes admin rights. The last admin cannot be removed, so a
// team never ends up with an empty admin set.
func (s *TeamService) RemoveAdmin(ctx context.Context, actor *domain.User, teamID, adminID uuid.UUID) (*domain.Team, error) {
	team, err := s.requireAdmin(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, s.pool, adminID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound("user", adminID.String())
	}

	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if !policy.IsTeamAdmin(set, target.ID.String(), target.Email) {
		return nil, domain.ErrNotFound("admin", adminID.String())
	}
	if len(set) == 1 {
		return nil, domain.ErrConflict("cannot remove the last admin of a team")
	}

	kept := make([]string, 0, len(set)-1)
	for _, entry := range set {
		if entry == target.ID.String() || entry == target.Email {
			continue
		}
		kept = append(kept, entry)
	}
	if err := s.teams.UpdateAdminIDs(ctx, s.pool, team.ID, kept); err != nil {
		return nil, domain.ErrInternal("update team admins", err)
	}
	team.AdminIDs = kept
	team.LegacyAdminID = ""
	return team, nil
}

// Delete removes a team and cascades: events deleted, memberships stripped,
// and a bound license deleted so no consumed license outlives its team.
func (s *TeamService) Delete(ctx context.Context, actor *domain.User, teamID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, actor, teamID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	team, err := s.teams.LockForUpdate(ctx, tx, teamID)
	if err != nil {
		return domain.ErrInternal("lock team", err)
	}
	if team == nil {
		return domain.ErrNotFound("team", teamID.String())
	}

	if err := s.events.DeleteByTeam(ctx, tx, team.ID); err != nil {
		return domain.ErrInternal("delete team events", err)
	}
	if err := s.users.RemoveTeamFromAll(ctx, tx, team.ID); err != nil {
		return domain.ErrInternal("strip memberships", err)
	}
	if team.LicenseID != nil {
		if err := s.licenses.Delete(ctx, tx, *team.LicenseID); err != nil {
			return domain.ErrInternal("delete bound license", err)
		}
	}
	if err := s.teams.Delete(ctx, tx, team.ID); err != nil {
		return domain.ErrInternal("delete team", err)
	}
	draft := domain.NewTeamEvent(domain.EventTeamDeleted, team.ID, map[string]interface{}{"name": team.Name})
	if err := s.outbox.Insert(ctx, tx, draft); err != nil {
		return domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("team deleted", "team_id", team.ID, "name", team.Name, "actor", actor.ID)
	return nil
}

func (s *TeamService) requireAdmin(ctx context.Context, actor *domain.User, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}
	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if !policy.IsTeamAdmin(set, actor.ID.String(), actor.Email) {
		return nil, domain.ErrForbidden("only a team admin can perform this action")
	}
	return team, nil
}

func (s *TeamService) isMemberOrAdmin(actor *domain.User, team *domain.Team) bool {
	for _, id := range actor.TeamIDs {
		if id == team.ID {
			return true
		}
	}
	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	return policy.IsTeamAdmin(set, actor.ID.String(), actor.Email)
}
