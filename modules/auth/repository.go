package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository handles user and role persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Migrate runs database migrations for the user tables.
func (r *UserRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.User{}, &domain.Role{})
}

// Create creates a new user in the database.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID, including role memberships.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Preload("Roles").First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail finds a user by email, including role memberships.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Preload("Roles").First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// EmailExists checks if a user with the given email exists.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// Exists checks if a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// UpdateLastLogin stamps the user's last-login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("last_login_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile persists name and email changes for an existing user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("first_name", "last_name", "email").
		Updates(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EnsureRoles creates any of the named roles that do not exist yet. It is
// idempotent and safe to call on every registration.
func (r *UserRepository) EnsureRoles(ctx context.Context, names ...string) error {
	for _, name := range names {
		role := domain.Role{Name: name}
		result := r.db.WithContext(ctx).
			Where(domain.Role{Name: name}).
			Attrs(domain.Role{ID: uuid.New().String()}).
			FirstOrCreate(&role)
		if result.Error != nil {
			return fmt.Errorf("failed to ensure role %q: %w", name, result.Error)
		}
	}
	return nil
}

// AssignRole adds the named role to the user's memberships.
func (r *UserRepository) AssignRole(ctx context.Context, user *domain.User, name string) error {
	var role domain.Role
	result := r.db.WithContext(ctx).First(&role, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to look up role %q: %w", name, result.Error)
	}
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Append(&role); err != nil {
		return fmt.Errorf("failed to assign role %q: %w", name, err)
	}
	return nil
}

// CountUsers returns the total number of registered users.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count)
	return count, result.Error
}

// CountActiveUsers returns the number of users who logged in at or after the
// given cutoff.
func (r *UserRepository) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("last_login_at IS NOT NULL AND last_login_at >= ?", since).
		Count(&count)
	return count, result.Error
}

// CountUsersInRole returns the number of users holding the named role.
func (r *UserRepository) CountUsersInRole(ctx context.Context, name string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", name).
		Count(&count)
	return count, result.Error
}

// RecentUsers returns the most recently registered users, newest first.
func (r *UserRepository) RecentUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var users []domain.User
	result := r.db.WithContext(ctx).Preload("Roles").
		Order("created_at DESC").
		Limit(limit).
		Find(&users)
	return users, result.Error
}

// SearchUsers returns users whose name or email contains the term,
// case-insensitively, ordered by last then first name. An empty term returns
// all users.
func (r *UserRepository) SearchUsers(ctx context.Context, term string) ([]domain.User, error) {
	query := r.db.WithContext(ctx).Preload("Roles").
		Order("last_name ASC, first_name ASC")
	if term != "" {
		pattern := "%" + term + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ?",
			pattern, pattern, pattern,
		)
	}
	var users []domain.User
	result := query.Find(&users)
	return users, result.Error
}
