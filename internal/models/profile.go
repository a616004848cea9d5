package models

import "time"

// Profile is the buddy profile a user fills out before matching. Exactly
// zero or one per user; the unique index on user_id is the authority and
// callers translate its violation into a profile-already-exists outcome.
type Profile struct {
	ID                     uint      `json:"-" gorm:"primaryKey"`
	UserID                 string    `json:"user_id" gorm:"type:uuid;uniqueIndex:unique_user_profile"`
	DisplayName            string    `json:"display_name"`
	Bio                    string    `json:"bio"`
	AgeRange               string    `json:"age_range"`
	Timezone               string    `json:"timezone"`
	PreferredCommunication string    `json:"preferred_communication"`
	Interests              []string  `json:"interests" gorm:"serializer:json"`
	SupportGoals           []string  `json:"support_goals" gorm:"serializer:json"`
	IsSeekingBuddy         bool      `json:"is_seeking_buddy"`
	IsAvailableAsBuddy     bool      `json:"is_available_as_buddy"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ProfileRequest carries the editable profile fields
type ProfileRequest struct {
	DisplayName            string   `json:"display_name" validate:"omitempty,max=100"`
	Bio                    string   `json:"bio" validate:"omitempty,max=1000"`
	AgeRange               string   `json:"age_range" validate:"omitempty,max=20"`
	Timezone               string   `json:"timezone" validate:"omitempty,max=50"`
	PreferredCommunication string   `json:"preferred_communication" validate:"omitempty,max=50"`
	Interests              []string `json:"interests"`
	SupportGoals           []string `json:"support_goals"`
	IsSeekingBuddy         bool     `json:"is_seeking_buddy"`
	IsAvailableAsBuddy     bool     `json:"is_available_as_buddy"`
}

// ProfileResponse wraps a profile with the view-state hint the dashboard
// uses to pick between the setup card and the management card.
type ProfileResponse struct {
	Profile    *Profile `json:"profile"`
	SetupState string   `json:"setup_state"` // "setup" when no profile exists yet, "manage" otherwise
}
