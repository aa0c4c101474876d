package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/model"
)

// ErrNoAccessToken is returned when the token endpoint answers 2xx without an
// access token.
var ErrNoAccessToken = errors.New("login response carried no access token")

// ErrEmptyUpdate is returned by UpdateProfile when no field is set.
var ErrEmptyUpdate = errors.New("nothing to update")

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Login exchanges credentials for an access token and stores it in the
// session. A rejected login is returned as a *gateway.Error with status 401
// and the backend's message; it is a credential failure, not an expired
// session, so it does not satisfy errors.Is(err, gateway.ErrAuthExpired).
func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	res := c.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: pathToken, Body: creds})
	switch res.Outcome {
	case gateway.AuthExpired:
		detail := res.Detail
		if detail == "" {
			detail = "Invalid username or password."
		}
		return &gateway.Error{StatusCode: res.StatusCode, Detail: detail, RequestID: res.RequestID}
	case gateway.Failure:
		return res.Err()
	}

	var tok tokenResponse
	if err := res.Decode(&tok); err != nil {
		return err
	}
	if tok.Access == "" {
		return ErrNoAccessToken
	}
	if err := c.session.SetToken(tok.Access); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Logout ends the session locally. The backend keeps no session state to
// revoke.
func (c *Client) Logout() error {
	return c.session.Logout()
}

type registerResponse struct {
	Detail string      `json:"detail"`
	User   *model.User `json:"user"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, in *model.Registration) (*model.User, error) {
	if err := model.ValidateRegistration(in); err != nil {
		return nil, err
	}
	var resp registerResponse
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathRegister, in, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return &model.User{Username: in.Username, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}, nil
	}
	return resp.User, nil
}

type messageResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (m messageResponse) text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Detail
}

// RequestPasswordReset asks the backend to email a reset link and returns its
// confirmation message.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", &model.ValidationError{Errors: []model.FieldError{{Field: "email", Message: "is required"}}}
	}
	var resp messageResponse
	body := map[string]string{"email": email}
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathResetRequest, body, &resp); err != nil {
		return "", err
	}
	return resp.text(), nil
}

// ConfirmPasswordReset sets a new password with an emailed token. The token
// must be a UUID; malformed tokens are rejected before dispatch.
func (c *Client) ConfirmPasswordReset(ctx context.Context, in *model.PasswordResetConfirm) (string, error) {
	if err := model.ValidateResetConfirm(in); err != nil {
		return "", err
	}
	var resp messageResponse
	if err := c.gw.DoJSON(ctx, http.MethodPost, pathResetConfirm, in, &resp); err != nil {
		return "", err
	}
	return resp.text(), nil
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.gw.DoJSON(ctx, http.MethodGet, pathProfile, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile applies a partial update to the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	if upd.Empty() {
		return nil, ErrEmptyUpdate
	}
	var u model.User
	if err := c.gw.DoJSON(ctx, http.MethodPatch, pathProfileWrite, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
