package chatclient

import (
	"context"
	"time"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/apperrors"
	"github.com/go-resty/resty/v2"
)

// apiError is the failure body every endpoint returns
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIClient wraps the backend's HTTP surface. Every method returns either
// a decoded result or an error carrying a stable apperrors code; raw
// backend error strings never reach callers.
type APIClient struct {
	http  *resty.Client
	token string
}

// NewAPIClient creates an APIClient for the given base URL
func NewAPIClient(baseURL string) *APIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	return &APIClient{http: client}
}

// SetToken attaches the session token to subsequent requests
func (a *APIClient) SetToken(token string) {
	a.token = token
	a.http.SetAuthToken(token)
}

// ClearToken removes the session token
func (a *APIClient) ClearToken() {
	a.token = ""
	a.http.SetAuthToken("")
}

// Token returns the current session token, if any
func (a *APIClient) Token() string {
	return a.token
}

// translate converts a transport failure or error body into a stable error
func translate(resp *resty.Response, err error, errBody *apiError) error {
	if err != nil {
		return apperrors.Transport("request failed", err)
	}
	if resp.IsError() {
		if errBody != nil && errBody.Code != "" {
			return apperrors.New(apperrors.Code(errBody.Code), errBody.Message)
		}
		return apperrors.Unexpected("unexpected response: "+resp.Status(), nil)
	}
	return nil
}

func (a *APIClient) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/auth/signup")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) Signin(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(models.SigninRequest{Email: email, Password: password}).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/auth/signin")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) Signout(ctx context.Context) error {
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetError(&errBody).
		Post("/api/v1/auth/signout")
	return translate(resp, err, &errBody)
}

func (a *APIClient) GetProfile(ctx context.Context) (*models.ProfileResponse, error) {
	var out models.ProfileResponse
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Get("/api/v1/profile")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) SaveProfile(ctx context.Context, req models.ProfileRequest) (*models.ProfileResponse, error) {
	var out models.ProfileResponse
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&errBody).
		Put("/api/v1/profile")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) FindCandidate(ctx context.Context) (string, error) {
	var out struct {
		CandidateID string `json:"candidate_id"`
	}
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/buddies/find")
	if err := translate(resp, err, &errBody); err != nil {
		return "", err
	}
	return out.CandidateID, nil
}

func (a *APIClient) CreatePair(ctx context.Context, otherUserID string) (*models.BuddyPair, error) {
	var out models.BuddyPair
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(models.MatchRequest{OtherUserID: otherUserID}).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/buddies/pair")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) Match(ctx context.Context) (*models.MatchResult, error) {
	var out models.MatchResult
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/buddies/match")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *APIClient) ListConversations(ctx context.Context) ([]models.ConversationView, error) {
	var out []models.ConversationView
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Get("/api/v1/conversations")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIClient) GetThread(ctx context.Context, otherUserID string) ([]models.Message, error) {
	var out []models.Message
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Get("/api/v1/messages/" + otherUserID)
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *APIClient) SendMessage(ctx context.Context, recipientID, content string) (*models.Message, error) {
	var out models.Message
	var errBody apiError
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(models.SendMessageRequest{RecipientID: recipientID, Content: content, MessageType: "text"}).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/messages")
	if err := translate(resp, err, &errBody); err != nil {
		return nil, err
	}
	return &out, nil
}
