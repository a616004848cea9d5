package repositories

import (
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuddyPairRepository defines the interface for buddy pair data operations
type BuddyPairRepository interface {
	CreatePair(pair *models.BuddyPair) error
	GetPairByUsers(user1ID, user2ID string) (*models.BuddyPair, error)
	GetPairsForUser(userID string) ([]models.BuddyPair, error)
}

// PostgresBuddyPairRepository implements BuddyPairRepository for PostgreSQL
type PostgresBuddyPairRepository struct {
	db *gorm.DB
}

// NewPostgresBuddyPairRepository creates a new PostgresBuddyPairRepository
func NewPostgresBuddyPairRepository(db *gorm.DB) *PostgresBuddyPairRepository {
	return &PostgresBuddyPairRepository{db: db}
}

// CreatePair creates a new buddy pair. Pairs are immutable once created.
func (r *PostgresBuddyPairRepository) CreatePair(pair *models.BuddyPair) error {
	if pair.ID == "" {
		pair.ID = uuid.NewString()
	}
	if pair.Status == "" {
		pair.Status = "active"
	}
	return r.db.Create(pair).Error
}

// GetPairByUsers retrieves a pair by its two members, in either order
func (r *PostgresBuddyPairRepository) GetPairByUsers(user1ID, user2ID string) (*models.BuddyPair, error) {
	var pair models.BuddyPair
	err := r.db.Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
		user1ID, user2ID, user2ID, user1ID).First(&pair).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetPairsForUser retrieves all pairs the user belongs to
func (r *PostgresBuddyPairRepository) GetPairsForUser(userID string) ([]models.BuddyPair, error) {
	var pairs []models.BuddyPair
	if err := r.db.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}
