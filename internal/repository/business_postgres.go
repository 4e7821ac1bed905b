package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookly/internal/domain"
)

var businessColumns = []string{
	"b.id", "b.name", "b.description", "b.email", "b.phone", "b.address", "b.category_id",
	"b.image_url", "b.password_hash", "b.is_active", "b.operating_hours", "b.services", "b.staff",
	"b.created_at", "b.updated_at",
}

type BusinessRepo struct {
	db *pgxpool.Pool
}

func NewBusinessRepository(db *pgxpool.Pool) *BusinessRepo {
	return &BusinessRepo{
		db: db,
	}
}

func (r *BusinessRepo) Create(ctx context.Context, b domain.Business) (int64, error) {
	hours, services, staff, err := marshalBusinessDocs(b)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO businesses (name, description, email, phone, address, category_id, image_url,
			password_hash, is_active, operating_hours, services, staff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err = executor(ctx, r.db).QueryRow(ctx, query,
		b.Name,
		b.Description,
		strings.ToLower(b.Email),
		b.Phone,
		b.Address,
		b.CategoryID,
		b.ImageURL,
		b.PasswordHash,
		b.IsActive,
		hours,
		services,
		staff,
		now,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: business with email %s already exists", domain.ErrConflict, b.Email)
		}
		return 0, fmt.Errorf("error creating business: %w", err)
	}

	return id, nil
}

func (r *BusinessRepo) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	return r.getOne(ctx, squirrel.Eq{"b.id": id}, fmt.Sprintf("id %d", id))
}

func (r *BusinessRepo) GetByEmail(ctx context.Context, email string) (*domain.Business, error) {
	return r.getOne(ctx, squirrel.Eq{"b.email": strings.ToLower(email)}, "email "+email)
}

// GetByStaffEmail finds the business whose staff list contains email.
func (r *BusinessRepo) GetByStaffEmail(ctx context.Context, email string) (*domain.Business, error) {
	probe, err := json.Marshal([]map[string]string{{"email": strings.ToLower(email)}})
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, squirrel.Expr("b.staff @> ?::jsonb", string(probe)), "staff email "+email)
}

func (r *BusinessRepo) getOne(ctx context.Context, where squirrel.Sqlizer, what string) (*domain.Business, error) {
	query, args, err := psql.Select(businessColumns...).
		From("businesses b").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building business query: %w", err)
	}

	b, err := scanBusiness(executor(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("business with %s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting business: %w", err)
	}

	return b, nil
}

// Update rewrites the whole row; the service merges partial input first.
func (r *BusinessRepo) Update(ctx context.Context, b domain.Business) error {
	hours, services, staff, err := marshalBusinessDocs(b)
	if err != nil {
		return err
	}

	query := `
		UPDATE businesses
		SET name = $1, description = $2, email = $3, phone = $4, address = $5, category_id = $6,
			image_url = $7, is_active = $8, operating_hours = $9, services = $10, staff = $11, updated_at = $12
		WHERE id = $13
	`

	tag, err := executor(ctx, r.db).Exec(ctx, query,
		b.Name,
		b.Description,
		strings.ToLower(b.Email),
		b.Phone,
		b.Address,
		b.CategoryID,
		b.ImageURL,
		b.IsActive,
		hours,
		services,
		staff,
		time.Now(),
		b.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: business with email %s already exists", domain.ErrConflict, b.Email)
		}
		return fmt.Errorf("error updating business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("business with id %d: %w", b.ID, domain.ErrNotFound)
	}

	return nil
}

func (r *BusinessRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM businesses WHERE id = $1`

	tag, err := executor(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("business with id %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *BusinessRepo) List(ctx context.Context, filter domain.BusinessFilter) ([]domain.Business, error) {
	builder := applyBusinessFilter(psql.Select(businessColumns...).From("businesses b"), filter).
		OrderBy("b.name ASC", "b.id ASC")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building business list query: %w", err)
	}

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]domain.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning business: %w", err)
		}
		businesses = append(businesses, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating businesses: %w", err)
	}

	return businesses, nil
}

func (r *BusinessRepo) CountByFilter(ctx context.Context, filter domain.BusinessFilter) (int, error) {
	query, args, err := applyBusinessFilter(psql.Select("COUNT(*)").From("businesses b"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building business count query: %w", err)
	}

	var count int
	if err := executor(ctx, r.db).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting businesses: %w", err)
	}

	return count, nil
}

func applyBusinessFilter(builder squirrel.SelectBuilder, filter domain.BusinessFilter) squirrel.SelectBuilder {
	if filter.CategoryID != nil {
		builder = builder.Where(squirrel.Eq{"b.category_id": *filter.CategoryID})
	}
	if filter.IsActive != nil {
		builder = builder.Where(squirrel.Eq{"b.is_active": *filter.IsActive})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"b.name": pattern},
			squirrel.ILike{"b.description": pattern},
			squirrel.ILike{"b.address": pattern},
		})
	}
	return builder
}

func scanBusiness(row scanner) (*domain.Business, error) {
	var (
		b                      domain.Business
		hours, services, staff []byte
	)

	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Description,
		&b.Email,
		&b.Phone,
		&b.Address,
		&b.CategoryID,
		&b.ImageURL,
		&b.PasswordHash,
		&b.IsActive,
		&hours,
		&services,
		&staff,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalDoc(hours, &b.OperatingHours); err != nil {
		return nil, fmt.Errorf("operating_hours: %w", err)
	}
	if err := unmarshalDoc(services, &b.Services); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if err := unmarshalDoc(staff, &b.Staff); err != nil {
		return nil, fmt.Errorf("staff: %w", err)
	}

	if b.OperatingHours == nil {
		b.OperatingHours = domain.OperatingHours{}
	}
	if b.Services == nil {
		b.Services = []domain.Service{}
	}
	if b.Staff == nil {
		b.Staff = []domain.Staff{}
	}

	return &b, nil
}

func marshalBusinessDocs(b domain.Business) (hours, services, staff []byte, err error) {
	if b.OperatingHours == nil {
		b.OperatingHours = domain.OperatingHours{}
	}
	if b.Services == nil {
		b.Services = []domain.Service{}
	}
	members := make([]domain.Staff, len(b.Staff))
	for i, s := range b.Staff {
		s.Email = strings.ToLower(s.Email)
		members[i] = s
	}

	if hours, err = json.Marshal(b.OperatingHours); err != nil {
		return nil, nil, nil, fmt.Errorf("error encoding operating_hours: %w", err)
	}
	if services, err = json.Marshal(b.Services); err != nil {
		return nil, nil, nil, fmt.Errorf("error encoding services: %w", err)
	}
	if staff, err = json.Marshal(members); err != nil {
		return nil, nil, nil, fmt.Errorf("error encoding staff: %w", err)
	}
	return hours, services, staff, nil
}

func unmarshalDoc(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
