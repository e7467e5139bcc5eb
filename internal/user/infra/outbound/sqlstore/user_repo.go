package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

const userColumns = "id, email, first_name, last_name, password_hash, email_confirmed, created_at"

type UserRepo struct {
	db      *sql.DB
	dialect sharedDB.Dialect
}

func NewUserRepo(db *sql.DB, dialect sharedDB.Dialect) *UserRepo {
	return &UserRepo{db: db, dialect: dialect}
}

// Insert traduce la violación de unicidad del email a ErrEmailAlreadyInUse.
func (r *UserRepo) Insert(ctx context.Context, u *userDomain.User) error {
	q := r.dialect.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := sharedDB.Conn(ctx, r.db).ExecContext(ctx, q,
		u.ID.String(), u.Email, u.FirstName, u.LastName, u.PasswordHash, u.EmailConfirmed, sharedDB.FormatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return userDomain.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *userDomain.User) error {
	q := r.dialect.Rebind(`UPDATE users SET first_name = ?, last_name = ?, password_hash = ?, email_confirmed = ? WHERE id = ?`)
	res, err := sharedDB.Conn(ctx, r.db).ExecContext(ctx, q, u.FirstName, u.LastName, u.PasswordHash, u.EmailConfirmed, u.ID.String())
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return userDomain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE email = ?`, email)
}

func (r *UserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE id = ?`, id.String())
}

func (r *UserRepo) exists(ctx context.Context, q string, arg interface{}) (bool, error) {
	var one int
	err := sharedDB.Conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(q), arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg interface{}) (*userDomain.User, error) {
	var (
		u             userDomain.User
		id, createdAt string
	)
	err := sharedDB.Conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(q), arg).
		Scan(&id, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.EmailConfirmed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	if u.CreatedAt, err = sharedDB.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation cubre el texto de SQLite y el código 23505 de Postgres.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

var _ userDomain.UserRepository = (*UserRepo)(nil)
