package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhub/platform/internal/auth"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/guard"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/repository"
)

const minPasswordLength = 8

// AccountService handles registration, login and account deletion.
type AccountService struct {
	pool   *pgxpool.Pool
	users  repository.UserRepository
	teams  repository.TeamRepository
	outbox repository.OutboxRepository
	jwt    *auth.JWTManager
	logger *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	pool *pgxpool.Pool,
	users repository.UserRepository,
	teams repository.TeamRepository,
	outbox repository.OutboxRepository,
	jwt *auth.JWTManager,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{pool: pool, users: users, teams: teams, outbox: outbox, jwt: jwt, logger: logger}
}

// RegisterInput holds the signup request fields.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a member account and returns a signed token.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := domain.ValidateEmail(email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}

	existing, err := s.users.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Role:         domain.RoleMember,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, domain.ErrInternal("create user", err)
	}
	draft := domain.NewUserEvent(domain.EventUserCreated, user.ID, user.Email)
	if err := s.outbox.Insert(ctx, tx, draft); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	token, err := s.jwt.GenerateToken(auth.RealmMember, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates by email and password. Failed attempts are recorded and
// the account locks out after too many failures within the window.
func (s *AccountService) Login(ctx context.Context, email, password, clientIP string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := guard.CheckLocked(ctx, s.pool, email); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		guard.RecordAttempt(ctx, s.pool, email, clientIP, false)
		return nil, domain.ErrUnauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		guard.RecordAttempt(ctx, s.pool, email, clientIP, false)
		return nil, domain.ErrUnauthorized("invalid email or password")
	}
	guard.RecordAttempt(ctx, s.pool, email, clientIP, true)

	realm := auth.RealmMember
	if user.Role == domain.RoleStaff {
		realm = auth.RealmStaff
	}
	token, err := s.jwt.GenerateToken(realm, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "realm", realm)
	return &AuthResult{Token: token, User: user}, nil
}

// GetUser loads a user by ID. Handlers use it to resolve the authenticated
// actor from token claims.
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return user, nil
}

// DeleteAccount removes a user. Deletion is refused while the user is the
// sole admin of any team, so no team is left without an admin. Otherwise the
// user is stripped from every admin set they share, dropped from team
// memberships, and deleted.
func (s *AccountService) DeleteAccount(ctx context.Context, actor *domain.User) error {
	adminTeams, err := s.teams.ListByAdminIdentifier(ctx, s.pool, []string{actor.ID.String(), actor.Email})
	if err != nil {
		return domain.ErrInternal("list admin teams", err)
	}

	shapes := make([]policy.TeamAdminShape, len(adminTeams))
	for i, t := range adminTeams {
		shapes[i] = policy.TeamAdminShape{AdminIDs: t.AdminIDs, LegacyAdminID: t.LegacyAdminID}
	}
	if policy.IsSoleAdminOfAnyTeam(shapes, actor.ID.String(), actor.Email) {
		return domain.ErrForbidden("transfer team admin rights before deleting your account")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	for _, team := range adminTeams {
		set := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
		kept := make([]string, 0, len(set))
		for _, entry := range set {
			if entry == actor.ID.String() || entry == actor.Email {
				continue
			}
			kept = append(kept, entry)
		}
		if err := s.teams.UpdateAdminIDs(ctx, tx, team.ID, kept); err != nil {
			return domain.ErrInternal("update team admins", err)
		}
	}

	if err := s.users.Delete(ctx, tx, actor.ID); err != nil {
		return domain.ErrInternal("delete user", err)
	}
	draft := domain.NewUserEvent(domain.EventUserDeleted, actor.ID, actor.Email)
	if err := s.outbox.Insert(ctx, tx, draft); err != nil {
		return domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("account deleted", "user_id", actor.ID)
	return nil
}

// EnsureStaffAccount creates the bootstrap staff account on startup when it
// does not exist yet. Used with credentials from config so a fresh deployment
// has a reviewer.
func (s *AccountService) EnsureStaffAccount(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return domain.ErrInternal("find staff account", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Staff",
		Role:         domain.RoleStaff,
	}
	if err := s.users.Create(ctx, s.pool, user); err != nil {
		return domain.ErrInternal("create staff account", err)
	}

	s.logger.Info("bootstrap staff account created", "email", email)
	return nil
}
