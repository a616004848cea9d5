package repositories

import (
	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"gorm.io/gorm"
)

// ErrProfileExists is returned when an insert collides with the one-profile-
// per-user unique constraint; callers retry the write as an update.
var ErrProfileExists = gorm.ErrDuplicatedKey

// ProfileRepository defines the interface for buddy profile data operations
type ProfileRepository interface {
	GetProfileByUserID(userID string) (*models.Profile, error)
	GetProfilesByUserIDs(userIDs []string) ([]models.Profile, error)
	CreateProfile(profile *models.Profile) error
	UpdateProfile(profile *models.Profile) error
	FindAvailableBuddies(excludeUserID string) ([]models.Profile, error)
	FindPotentialBuddies(userID string) ([]string, error)
}

// PostgresProfileRepository implements ProfileRepository for PostgreSQL
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetProfileByUserID retrieves a user's profile. Absence is reported as
// gorm.ErrRecordNotFound, distinct from transport errors.
func (r *PostgresProfileRepository) GetProfileByUserID(userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfilesByUserIDs retrieves profiles for a batch of user IDs in a
// single query. The conversation list depends on this being one round trip.
func (r *PostgresProfileRepository) GetProfilesByUserIDs(userIDs []string) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(userIDs) == 0 {
		return profiles, nil
	}
	if err := r.db.Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateProfile inserts a profile, translating a unique-constraint
// violation on user_id into ErrProfileExists.
func (r *PostgresProfileRepository) CreateProfile(profile *models.Profile) error {
	if err := r.db.Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// UpdateProfile updates the profile row matched by user_id
func (r *PostgresProfileRepository) UpdateProfile(profile *models.Profile) error {
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", profile.UserID).
		Select("DisplayName", "Bio", "AgeRange", "Timezone", "PreferredCommunication",
			"Interests", "SupportGoals", "IsSeekingBuddy", "IsAvailableAsBuddy").
		Updates(profile).Error
}

// FindAvailableBuddies returns profiles eligible to be matched with the
// given user: available as buddy and not the user themselves. Recently
// updated profiles come first so the "first eligible" pick is deterministic.
func (r *PostgresProfileRepository) FindAvailableBuddies(excludeUserID string) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.Where("is_available_as_buddy = ? AND user_id <> ?", true, excludeUserID).
		Order("updated_at DESC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// FindPotentialBuddies invokes the find_potential_buddies database function.
// The function may not be installed; callers fall back to
// FindAvailableBuddies when this errors.
func (r *PostgresProfileRepository) FindPotentialBuddies(userID string) ([]string, error) {
	var candidateIDs []string
	err := r.db.Raw("SELECT potential_buddy_id FROM find_potential_buddies(?)", userID).
		Scan(&candidateIDs).Error
	if err != nil {
		return nil, err
	}
	return candidateIDs, nil
}
