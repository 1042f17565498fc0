package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
)

type userRepo struct{}

// NewUserRepository returns a pgx-backed UserRepository.
func NewUserRepository() UserRepository {
	return &userRepo{}
}

const userColumns = `id, email, password_hash, name, role, team_ids, created_at, updated_at`

func (r *userRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error) {
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, db DBTX, user *domain.User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, team_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role), user.TeamIDs)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) AddTeam(ctx context.Context, db DBTX, userID, teamID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET team_ids = array_append(team_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(team_ids))`, userID, teamID)
	if err != nil {
		return fmt.Errorf("add user team: %w", err)
	}
	return nil
}

func (r *userRepo) RemoveTeam(ctx context.Context, db DBTX, userID, teamID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE users SET team_ids = array_remove(team_ids, $2), updated_at = now()
		WHERE id = $1`, userID, teamID)
	if err != nil {
		return fmt.Errorf("remove user team: %w", err)
	}
	return nil
}

func (r *userRepo) RemoveTeamFromAll(ctx context.Context, tx pgx.Tx, teamID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET team_ids = array_remove(team_ids, $1), updated_at = now()
		WHERE $1 = ANY(team_ids)`, teamID)
	if err != nil {
		return fmt.Errorf("remove team from users: %w", err)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var name *string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.Role, &u.TeamIDs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if name != nil {
		u.Name = *name
	}
	return &u, nil
}
