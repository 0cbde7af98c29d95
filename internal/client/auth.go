package client

import (
	"context"
	"errors"
	"net/http"
)

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// LoginWithGoogle exchanges a Google identity token for a backend session.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("auth/google/"), googleLoginRequest{IDToken: idToken}, &out); err != nil {
		return nil, err
	}
	if out.Access == "" {
		return nil, errors.New("login response carried no access token")
	}
	return &out, nil
}
