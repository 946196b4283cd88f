package clients

import (
	"context"
	"net/http"
	"net/url"
)

// AuthClient talks to the token endpoint. It must be built on a client
// without a TokenSource so a bad password surfaces as a plain server error.
type AuthClient struct{ c *Client }

func NewAuthClient(c *Client) *AuthClient { return &AuthClient{c: c} }

func (ac *AuthClient) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok Token
	err := ac.c.Call(ctx, http.MethodPost, "/auth/token", nil, form, &tok)
	return tok, err
}
