package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	scope memoryScope
}

// Create adds a new user. Username and email must be unique.
func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.scope.run(ctx, func(d *memoryData) error {
		for _, u := range d.users {
			if u.Username == user.Username || u.Email == user.Email {
				return fmt.Errorf("failed to create user: username or email already exists")
			}
		}
		if user.ID == "" {
			user.ID = uuid.New().String()
		}
		now := time.Now()
		user.CreatedAt = now
		user.UpdatedAt = now
		d.users[user.ID] = *user
		return nil
	})
}

// GetByUsername returns a user by username.
func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(ctx, username, func(u models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, email, func(u models.User) bool { return u.Email == email })
}

// GetByID returns a user by ID.
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, id, func(u models.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) find(ctx context.Context, key string, match func(models.User) bool) (*models.User, error) {
	var found models.User
	err := r.scope.run(ctx, func(d *memoryData) error {
		for _, u := range d.users {
			if match(u) {
				found = u
				return nil
			}
		}
		return &models.NotFoundError{Entity: "user", ID: key}
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}
