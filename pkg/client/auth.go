package client

import (
	"context"
	"net/http"
	"net/url"

	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"
)

type AuthClient struct {
	httpClient *HttpClient
}

// Login posts form-encoded credentials. Any rejection is reported as the same
// generic AuthError so the caller cannot tell an unknown user from a bad password.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*model.Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := c.httpClient.POSTForm(ctx, "/login", form)
	if err != nil {
		return nil, transportError("log in", err)
	}
	if isAuthRejection(resp.StatusCode) {
		return nil, apperrors.Auth("login failed")
	}

	var token model.Token
	if err := decode("log in", resp, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, apperrors.Auth("login failed")
	}
	return &token, nil
}

func (c *AuthClient) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	resp, err := c.httpClient.POST(ctx, "/register", reg)
	if err != nil {
		return nil, transportError("register", err)
	}
	if isAuthRejection(resp.StatusCode) || resp.StatusCode == http.StatusConflict {
		return nil, apperrors.Auth("registration failed")
	}

	var user model.User
	if err := decode("register", resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func isAuthRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
