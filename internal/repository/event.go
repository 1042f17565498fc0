package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

type eventRepo struct{}

// NewEventRepository returns a pgx-backed EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) Create(ctx context.Context, db DBTX, event *domain.Event) error {
	_, err := db.Exec(ctx, `
		INSERT INTO events (id, team_id, title, location, starts_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		event.ID, event.TeamID, event.Title, event.Location, event.StartsAt, event.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepo) ListByTeam(ctx context.Context, db DBTX, teamID uuid.UUID) ([]domain.Event, error) {
	rows, err := db.Query(ctx, `
		SELECT id, team_id, title, location, starts_at, created_by, created_at
		FROM events WHERE team_id = $1 ORDER BY starts_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var location *string
		if err := rows.Scan(&e.ID, &e.TeamID, &e.Title, &location, &e.StartsAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if location != nil {
			e.Location = *location
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) DeleteByTeam(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM events WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("delete team events: %w", err)
	}
	return nil
}
