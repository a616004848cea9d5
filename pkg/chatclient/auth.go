package chatclient

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
)

// AuthEvent names an auth state transition
type AuthEvent string

const (
	SignedIn  AuthEvent = "SIGNED_IN"
	SignedOut AuthEvent = "SIGNED_OUT"
)

// AuthListener receives auth state changes. user is nil on SIGNED_OUT.
type AuthListener func(event AuthEvent, user *models.User)

// AuthStatus reports whether a user is signed in
type AuthStatus struct {
	Authenticated bool
	User          *models.User
}

// authAPI is the slice of the backend surface the auth client needs
type authAPI interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Signin(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Signout(ctx context.Context) error
	SetToken(token string)
	ClearToken()
}

// AuthClient signs users up, in, and out, and owns the observer registry
// for auth state changes. The backing strategy (native identity service or
// password digests) is a server concern; callers here are agnostic.
type AuthClient struct {
	api      authAPI
	sessions *SessionStore

	mu        sync.Mutex
	current   *models.User
	listeners []AuthListener
}

// NewAuthClient creates an AuthClient and restores any persisted session
func NewAuthClient(api authAPI, sessions *SessionStore) (*AuthClient, error) {
	c := &AuthClient{api: api, sessions: sessions}

	session, err := sessions.Load()
	if err != nil {
		return nil, err
	}
	if session != nil {
		c.current = session.User
		api.SetToken(session.Token)
	}
	return c, nil
}

// Signup registers a new account and signs it in
func (c *AuthClient) Signup(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	resp, err := c.api.Signup(ctx, models.SignupRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}
	c.establishSession(resp)
	return resp.User, nil
}

// Signin authenticates an existing account
func (c *AuthClient) Signin(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := c.api.Signin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.establishSession(resp)
	return resp.User, nil
}

// Signout clears the session. The local record is always cleared, even if
// the remote acknowledgment fails.
func (c *AuthClient) Signout(ctx context.Context) error {
	if err := c.api.Signout(ctx); err != nil {
		log.Printf("auth: remote signout failed, clearing local session anyway: %v", err)
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	c.api.ClearToken()
	if err := c.sessions.Clear(); err != nil {
		return err
	}
	c.notify(SignedOut, nil)
	return nil
}

// GetCurrentUser returns the signed-in user, or nil
func (c *AuthClient) GetCurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CheckAuthStatus reports the current authentication state
func (c *AuthClient) CheckAuthStatus() AuthStatus {
	user := c.GetCurrentUser()
	return AuthStatus{Authenticated: user != nil, User: user}
}

// OnAuthStateChange registers a listener. Listeners fire in registration
// order; a panicking listener is isolated so the others still run.
func (c *AuthClient) OnAuthStateChange(listener AuthListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *AuthClient) establishSession(resp *models.AuthResponse) {
	c.mu.Lock()
	c.current = resp.User
	c.mu.Unlock()

	c.api.SetToken(resp.Token)
	if err := c.sessions.Save(&Session{User: resp.User, Token: resp.Token, CreatedAt: time.Now()}); err != nil {
		log.Printf("auth: failed to persist session: %v", err)
	}
	c.notify(SignedIn, resp.User)
}

func (c *AuthClient) notify(event AuthEvent, user *models.User) {
	c.mu.Lock()
	listeners := make([]AuthListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("auth: listener panic isolated: %v", r)
				}
			}()
			listener(event, user)
		}()
	}
}
