package chatclient

import (
	"context"
	"sync"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

// profileAPI is the slice of the backend surface the profile manager needs
type profileAPI interface {
	GetProfile(ctx context.Context) (*models.ProfileResponse, error)
	SaveProfile(ctx context.Context, req models.ProfileRequest) (*models.ProfileResponse, error)
}

// ProfileManager loads and saves the user's one buddy profile and signals
// whether the view should show the setup card or the management card.
type ProfileManager struct {
	api profileAPI

	mu        sync.Mutex
	profile   *models.Profile
	listeners []func(ViewState)
}

// NewProfileManager creates a ProfileManager
func NewProfileManager(api profileAPI) *ProfileManager {
	return &ProfileManager{api: api}
}

// OnStateChange registers a view-state listener
func (m *ProfileManager) OnStateChange(listener func(ViewState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Load fetches the profile. A nil profile with a nil error means the user
// has none yet; callers must not treat that as a transport failure.
func (m *ProfileManager) Load(ctx context.Context) (*models.Profile, error) {
	resp, err := m.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.profile = resp.Profile
	m.mu.Unlock()

	if resp.Profile == nil {
		m.signal(StateNoProfile)
		return nil, nil
	}
	m.signal(StateHasProfile)
	return resp.Profile, nil
}

// CreateOrUpdate saves the profile. If an insert races an existing row the
// store reports profile-already-exists; the save is retried once as an
// update, which is the documented recovery.
func (m *ProfileManager) CreateOrUpdate(ctx context.Context, req models.ProfileRequest) (*models.Profile, error) {
	resp, err := m.api.SaveProfile(ctx, req)
	if apperrors.Is(err, apperrors.CodeProfileAlreadyExists) {
		resp, err = m.api.SaveProfile(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.profile = resp.Profile
	m.mu.Unlock()

	m.signal(StateHasProfile)
	return resp.Profile, nil
}

// Current returns the last loaded profile, or nil
func (m *ProfileManager) Current() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

func (m *ProfileManager) signal(state ViewState) {
	m.mu.Lock()
	listeners := make([]func(ViewState), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}
