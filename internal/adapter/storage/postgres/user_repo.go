package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint breach.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, student_id, name, email, pin_hash, role, status, daily_limit, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.StudentID, &u.Name, &u.Email, &u.PINHash,
		&u.Role, &u.Status, &u.DailyLimit, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, student_id, name, email, pin_hash, role, status, daily_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.StudentID, u.Name, u.Email, u.PINHash,
		u.Role, u.Status, u.DailyLimit, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID. Returns (nil, nil) when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByStudentID fetches a user by campus identifier. Returns (nil, nil) when absent.
func (r *UserRepo) GetByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE student_id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, strings.ToUpper(studentID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by student id: %w", err)
	}
	return u, nil
}

// UpdateStatus changes a user's administrative status.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	query := `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// List returns a page of users matching the filters, newest first, plus the
// unpaged total.
func (r *UserRepo) List(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	where, args := buildUserFilter(params)

	var total int64
	countQuery := `SELECT COUNT(*) FROM users` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit, offset := pageBounds(params.Page, params.PageSize)
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.StudentID, &u.Name, &u.Email, &u.PINHash,
			&u.Role, &u.Status, &u.DailyLimit, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func buildUserFilter(params ports.UserListParams) (string, []any) {
	var conds []string
	var args []any
	if params.Role != nil {
		args = append(args, *params.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR student_id ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

// GetStats returns directory counts for the admin dashboard.
func (r *UserRepo) GetStats(ctx context.Context) (*ports.UserStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE role = 'student'),
		COUNT(*) FILTER (WHERE role = 'merchant'),
		COUNT(*) FILTER (WHERE status = 'active'),
		COUNT(*) FILTER (WHERE status = 'suspended')
	FROM users`

	s := &ports.UserStats{}
	err := r.pool.QueryRow(ctx, query).Scan(&s.Total, &s.Students, &s.Merchants, &s.Active, &s.Suspended)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}

// CreateMerchantProfile inserts a merchant profile row.
func (r *UserRepo) CreateMerchantProfile(ctx context.Context, p *domain.MerchantProfile) error {
	query := `INSERT INTO merchant_profiles (id, user_id, business_name, business_type, location, commission_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.BusinessName, p.BusinessType, p.Location,
		p.CommissionRate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant profile: %w", err)
	}
	return nil
}

// GetMerchantProfile fetches the profile for a merchant user. Returns
// (nil, nil) when absent.
func (r *UserRepo) GetMerchantProfile(ctx context.Context, userID uuid.UUID) (*domain.MerchantProfile, error) {
	query := `SELECT id, user_id, business_name, business_type, location, commission_rate, created_at, updated_at
		FROM merchant_profiles WHERE user_id = $1`

	p := &domain.MerchantProfile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.BusinessType, &p.Location,
		&p.CommissionRate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant profile: %w", err)
	}
	return p, nil
}
