package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

var _ domain.UserRepository = (*PostgresUserRepository)(nil)

const uniqueViolation = "23505"

const userColumns = `id, email, name, title, bio, avatar, onboarding_completed,
	profile, preferences, created_at, updated_at`

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// userRow mirrors the users table; profile and preferences are JSONB.
type userRow struct {
	domain.User
	ProfileJSON     []byte `db:"profile"`
	PreferencesJSON []byte `db:"preferences"`
}

func toRow(u *domain.User) (*userRow, error) {
	row := &userRow{User: *u}

	if u.Profile != nil {
		data, err := json.Marshal(u.Profile)
		if err != nil {
			return nil, fmt.Errorf("marshal profile: %w", err)
		}
		row.ProfileJSON = data
	}

	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	row.PreferencesJSON = data

	return row, nil
}

func (row *userRow) toDomain() (*domain.User, error) {
	u := row.User

	if len(row.ProfileJSON) > 0 {
		var p domain.UserProfile
		if err := json.Unmarshal(row.ProfileJSON, &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		u.Profile = &p
	}

	u.Preferences = map[string]any{}
	if len(row.PreferencesJSON) > 0 {
		if err := json.Unmarshal(row.PreferencesJSON, &u.Preferences); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}

	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}

	return false
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row, err := toRow(user)
	if err != nil {
		return fmt.Errorf("repository: create user failed: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :name, :title, :bio, :avatar, :onboarding_completed,
			:profile, :preferences, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("repository: create user failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return row.toDomain()
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.get(ctx, "email = $1", email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("repository: get user by email failed: %w", err)
	}
	return user, err
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.get(ctx, "id = $1", id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("repository: get user by id failed: %w", err)
	}
	return user, err
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row, err := toRow(user)
	if err != nil {
		return fmt.Errorf("repository: update user failed: %w", err)
	}

	query := `
		UPDATE users SET
			name = :name, title = :title, bio = :bio, avatar = :avatar,
			onboarding_completed = :onboarding_completed,
			profile = :profile, preferences = :preferences, updated_at = :updated_at
		WHERE id = :id
	`

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("repository: update user failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
