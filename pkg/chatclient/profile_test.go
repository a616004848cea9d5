package chatclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
)

type fakeProfileAPI struct {
	profile   *models.Profile
	getErr    error
	saveErrs  []error // consumed one per SaveProfile call
	saveCalls int
	lastSaved models.ProfileRequest
}

func (f *fakeProfileAPI) GetProfile(ctx context.Context) (*models.ProfileResponse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	state := "manage"
	if f.profile == nil {
		state = "setup"
	}
	return &models.ProfileResponse{Profile: f.profile, SetupState: state}, nil
}

func (f *fakeProfileAPI) SaveProfile(ctx context.Context, req models.ProfileRequest) (*models.ProfileResponse, error) {
	f.saveCalls++
	f.lastSaved = req
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.profile = &models.Profile{UserID: meID, DisplayName: req.DisplayName, Bio: req.Bio}
	return &models.ProfileResponse{Profile: f.profile, SetupState: "manage"}, nil
}

func TestLoadMissingProfileSignalsSetup(t *testing.T) {
	m := NewProfileManager(&fakeProfileAPI{})

	var states []ViewState
	m.OnStateChange(func(s ViewState) { states = append(states, s) })

	profile, err := m.Load(context.Background())
	require.NoError(t, err, "a missing profile is a state, not a failure")
	assert.Nil(t, profile)
	assert.Equal(t, []ViewState{StateNoProfile}, states)
}

func TestLoadExistingProfileSignalsManage(t *testing.T) {
	api := &fakeProfileAPI{profile: &models.Profile{UserID: meID, DisplayName: "Ada"}}
	m := NewProfileManager(api)

	var states []ViewState
	m.OnStateChange(func(s ViewState) { states = append(states, s) })

	profile, err := m.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.Equal(t, []ViewState{StateHasProfile}, states)
}

func TestLoadTransportErrorIsNotMissingProfile(t *testing.T) {
	api := &fakeProfileAPI{getErr: apperrors.Transport("backend down", nil)}
	m := NewProfileManager(api)

	var states []ViewState
	m.OnStateChange(func(s ViewState) { states = append(states, s) })

	_, err := m.Load(context.Background())
	assert.Equal(t, apperrors.CodeTransport, apperrors.CodeOf(err))
	assert.Empty(t, states, "no view-state signal on a failed load")
}

func TestCreateOrUpdateRetriesLostRaceOnce(t *testing.T) {
	api := &fakeProfileAPI{saveErrs: []error{apperrors.ErrProfileExists}}
	m := NewProfileManager(api)

	profile, err := m.CreateOrUpdate(context.Background(), models.ProfileRequest{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.Equal(t, 2, api.saveCalls, "the save is retried exactly once as an update")
}

func TestCreateOrUpdateGivesUpAfterRetry(t *testing.T) {
	api := &fakeProfileAPI{saveErrs: []error{
		apperrors.ErrProfileExists,
		apperrors.Transport("backend down", nil),
	}}
	m := NewProfileManager(api)

	_, err := m.CreateOrUpdate(context.Background(), models.ProfileRequest{DisplayName: "Ada"})
	assert.Error(t, err)
	assert.Equal(t, 2, api.saveCalls)
}
