package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/repository"
)

// EventService handles practice session scheduling. Creating an event is the
// licensed feature: it requires the team to hold an active, non-expired
// license.
type EventService struct {
	pool   *pgxpool.Pool
	teams  repository.TeamRepository
	events repository.EventRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(pool *pgxpool.Pool, teams repository.TeamRepository, events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{pool: pool, teams: teams, events: events, logger: logger, now: time.Now}
}

// CreateEventInput holds the event creation request fields.
type CreateEventInput struct {
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
}

// Create schedules an event for a team. Only team admins may schedule, and
// only while the team's license is active and not past its expiry.
func (s *EventService) Create(ctx context.Context, actor *domain.User, teamID uuid.UUID, input CreateEventInput) (*domain.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrValidation("event title must not be empty")
	}
	if input.StartsAt.IsZero() {
		return nil, domain.ErrValidation("event start time is required")
	}

	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}

	set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if !policy.IsTeamAdmin(set, actor.ID.String(), actor.Email) {
		return nil, domain.ErrForbidden("only a team admin can schedule events")
	}

	now := s.now()
	if !team.HasActiveLicense(now) {
		// A stamped-active team past its expiry is downgraded on this read
		// path so the stored status catches up with the calculator.
		if team.LicenseStatus == domain.LicenseStatusActive {
			if err := s.teams.MarkExpired(ctx, s.pool, team.ID); err != nil {
				s.logger.Warn("mark team expired", "team_id", team.ID, "error", err)
			}
		}
		return nil, domain.ErrForbidden("team license is not active")
	}

	event := &domain.Event{
		ID:        uuid.New(),
		TeamID:    team.ID,
		Title:     title,
		Location:  strings.TrimSpace(input.Location),
		StartsAt:  input.StartsAt,
		CreatedBy: actor.ID,
		CreatedAt: now,
	}
	if err := s.events.Create(ctx, s.pool, event); err != nil {
		return nil, domain.ErrInternal("create event", err)
	}

	s.logger.Info("event created", "event_id", event.ID, "team_id", team.ID, "title", event.Title)
	return event, nil
}

// ListByTeam returns a team's events. Any member or admin may read them,
// regardless of license state.
func (s *EventService) ListByTeam(ctx context.Context, actor *domain.User, teamID uuid.UUID) ([]domain.Event, error) {
	team, err := s.teams.FindByID(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}

	member := false
	for _, id := range actor.TeamIDs {
		if id == team.ID {
			member = true
			break
		}
	}
	if !member {
		set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
		if !policy.IsTeamAdmin(set, actor.ID.String(), actor.Email) {
			return nil, domain.ErrForbidden("not a member of this team")
		}
	}

	events, err := s.events.ListByTeam(ctx, s.pool, teamID)
	if err != nil {
		return nil, domain.ErrInternal("list events", err)
	}
	return events, nil
}
