package repository

import (
	"telegram-intent-analyzer/backend/analysis/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	// EnsureExists creates a bare sender stub if no user row exists yet.
	EnsureExists(id int64) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) EnsureExists(id int64) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{ID: id}).Error
}
