package repositories

import (
	"github.com/mehedi89/chirper/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the user reads this service needs. User records are
// written by the users service; here they back actor enrichment and device
// token lookups for offline push.
type UserRepository interface {
	GetUserByID(id uint) (*models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
