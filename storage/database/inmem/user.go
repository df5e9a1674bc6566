package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// conflict checks the login ID and email uniqueness of usr against the other users.
func (repo *userRepository) conflict(usr user.User) error {
	for _, u := range repo.db.users {
		if u.ID == usr.ID {
			continue
		}
		if strings.EqualFold(u.UserID, usr.UserID) {
			return user.ErrUserIDExists
		}
		if usr.Email != "" && strings.EqualFold(u.Email, usr.Email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	if err := repo.conflict(usr); err != nil {
		return user.User{}, err
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		if filter.Match(*u) {
			users = append(users, *u)
		}
	}

	ordering = core.AllowedOrdering(ordering, "user_id", "name", "role", "branch", "created_at", "last_login")
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			if c := compareUsers(users[i], users[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "user_id":
		return strings.Compare(strings.ToLower(a.UserID), strings.ToLower(b.UserID))
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "role":
		return strings.Compare(a.Role, b.Role)
	case "branch":
		return strings.Compare(a.Branch, b.Branch)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "last_login":
		return compareTimes(a.LastLogin, b.LastLogin)
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *userRepository) find(match func(u *user.User) bool) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, u := range repo.db.users {
		if match(u) {
			return *u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if u, ok := repo.db.users[id]; ok {
		return *u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUserID(_ context.Context, userID string) (user.User, error) {
	return repo.find(func(u *user.User) bool { return strings.EqualFold(u.UserID, userID) })
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	if email == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.find(func(u *user.User) bool { return strings.EqualFold(u.Email, email) })
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.conflict(usr); err != nil {
		return user.User{}, err
	}
	orig.Name = usr.Name
	orig.Email = usr.Email
	orig.Role = usr.Role
	orig.Branch = usr.Branch
	orig.IsActive = usr.IsActive
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) SetLastLogin(_ context.Context, id string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if u, ok := repo.db.users[id]; ok {
		u.LastLogin = at
	}
	return nil
}

// DeleteUsersByID deletes users along with their quiz results. Their courses are kept without instructor.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
		for _, c := range repo.db.courses {
			if c.InstructorID == id {
				c.InstructorID = ""
			}
		}
		for rid, r := range repo.db.results {
			if r.StudentID == id {
				delete(repo.db.results, rid)
			}
		}
	}
	return nil
}
