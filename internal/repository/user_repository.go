package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up the local mirror of an identity-provider user.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			email,
			full_name,
			role,
			organization_id,
			department_id
		FROM users
		WHERE LOWER(email) = LOWER(?)
		LIMIT 1
	`, email).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			email,
			full_name,
			role,
			organization_id,
			department_id
		FROM users
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}
