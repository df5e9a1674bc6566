package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
)

const userColumns = "id, user_id, name, email, role, branch, is_active, password_hash, created_at, updated_at, last_login"

// UserOrderingFields are the fields users can be ordered by.
var UserOrderingFields = []string{"user_id", "name", "role", "branch", "created_at", "last_login"}

type userRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	Name         string      `db:"name"`
	Email        null.String `db:"email"`
	Role         string      `db:"role"`
	Branch       null.String `db:"branch"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		UserID:       usr.UserID,
		Name:         usr.Name,
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Role:         usr.Role,
		Branch:       null.NewString(usr.Branch, usr.Branch != ""),
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Email:        r.Email.String,
		Role:         r.Role,
		Branch:       r.Branch.String,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr converts sql.ErrNoRows to user.ErrNotFound.
func (repo userRepository) trapNoRowsErr(err error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return err
}

// trapConflictErr converts unique violations to user.ErrUserIDExists or user.ErrEmailExists.
func (repo userRepository) trapConflictErr(err error) error {
	if constraint, ok := uniqueViolationOn(err); ok {
		switch constraint {
		case "users_email_key":
			return user.ErrEmailExists
		default:
			return user.ErrUserIDExists
		}
	}
	return err
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := toUserRow(usr)

	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :user_id, :name, :email, :role, :branch, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if err = repo.trapConflictErr(err); err == user.ErrUserIDExists || err == user.ErrEmailExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter.ExcludeAdmins {
		w.add("role <> ?", user.RoleAdmin)
	}
	if len(filter.Roles) > 0 {
		w.add("role = ANY(?)", pq.Array(filter.Roles))
	}
	if filter.Branch != "" {
		w.add("LOWER(branch) = LOWER(?)", filter.Branch)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		w.add("(name ILIKE ? OR user_id ILIKE ? OR COALESCE(email, '') ILIKE ?)", likePattern(filter.Search))
	}

	orderBy := core.OrderByClause(core.AllowedOrdering(ordering, UserOrderingFields...), "created_at DESC")
	q := "SELECT " + userColumns + " FROM users" + w.String() + " ORDER BY " + orderBy + ", id"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo userRepository) getBy(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	var row userRow
	q := "SELECT " + userColumns + " FROM users WHERE " + cond + " LIMIT 1"
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err = repo.trapNoRowsErr(err); err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getBy(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUserID(ctx context.Context, userID string) (user.User, error) {
	return repo.getBy(ctx, "LOWER(user_id) = LOWER($1)", userID)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := toUserRow(usr)
	q := `UPDATE users SET name = :name, email = :email, role = :role, branch = :branch, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if err = repo.trapConflictErr(err); err == user.ErrUserIDExists || err == user.ErrEmailExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := repo.db.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at.UTC(), id); err != nil {
		return errors.Wrap(err, "setting last login")
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id = ANY($1::uuid[])", pq.Array(valid)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
