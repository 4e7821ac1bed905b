package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookly/internal/domain"
)

type AuthRepo struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepo {
	return &AuthRepo{
		db: db,
	}
}

func (r *AuthRepo) CreateSession(ctx context.Context, session domain.Session) error {
	query := `
		INSERT INTO sessions (id, role, subject_id, business_id, staff_name, email, refresh_token,
			user_agent, ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.Role,
		session.SubjectID,
		session.BusinessID,
		session.StaffName,
		session.Email,
		session.RefreshToken,
		session.UserAgent,
		session.IP,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}

	return nil
}

func (r *AuthRepo) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	query := `
		SELECT id, role, subject_id, business_id, staff_name, email, refresh_token, user_agent, ip,
			expires_at, created_at
		FROM sessions
		WHERE refresh_token = $1
	`

	var session domain.Session
	err := r.db.QueryRow(ctx, query, refreshToken).Scan(
		&session.ID,
		&session.Role,
		&session.SubjectID,
		&session.BusinessID,
		&session.StaffName,
		&session.Email,
		&session.RefreshToken,
		&session.UserAgent,
		&session.IP,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	return &session, nil
}

func (r *AuthRepo) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}

	return nil
}

func (r *AuthRepo) DeleteSessionsBySubject(ctx context.Context, role domain.Role, subjectID int64) error {
	query := `DELETE FROM sessions WHERE role = $1 AND subject_id = $2`

	_, err := r.db.Exec(ctx, query, role, subjectID)
	if err != nil {
		return fmt.Errorf("error deleting sessions: %w", err)
	}

	return nil
}

// CreateAdmin inserts the admin or returns the existing id for that email.
func (r *AuthRepo) CreateAdmin(ctx context.Context, admin domain.Admin) (int64, error) {
	query := `
		INSERT INTO admins (email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		strings.ToLower(admin.Email),
		admin.Name,
		admin.PasswordHash,
		time.Now(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating admin: %w", err)
	}

	return id, nil
}

func (r *AuthRepo) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM admins
		WHERE email = $1
	`

	var admin domain.Admin
	err := r.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin with email %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting admin: %w", err)
	}

	return &admin, nil
}
