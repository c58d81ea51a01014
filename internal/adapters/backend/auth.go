package backend

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoSessionCookie is returned when a sign-in response did not set the session cookie.
var ErrNoSessionCookie = errors.New("backend did not set a session cookie")

// SignIn is the trainer identity returned by a backend sign-in, plus the session token.
type SignIn struct {
	TrainerID int64
	Email     string
	Name      string
	IsNewUser bool
	AppID     int64 // 0 until the trainer has created an app
	AppName   string
	Token     string
}

type signInWire struct {
	TrainerID int64   `json:"trainer_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	IsNewUser bool    `json:"is_new_user"`
	HasApp    bool    `json:"has_app"`
	AppID     *int64  `json:"app_id"`
	AppName   *string `json:"app_name"`
}

// ExchangeGoogleCode trades a Google authorization code for a backend session.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (SignIn, error) {
	return c.signIn(ctx, "/auth/google/exchange", map[string]string{"code": code})
}

// DevLogin signs in as the backend's development trainer. The backend answers 404 unless
// its dev bypass is enabled.
func (c *Client) DevLogin(ctx context.Context) (SignIn, error) {
	return c.signIn(ctx, "/auth/dev/login", nil)
}

func (c *Client) signIn(ctx context.Context, path string, in any) (SignIn, error) {
	var w signInWire
	cookies, err := c.exchange(ctx, http.MethodPost, path, nil, in, &w, false)
	if err != nil {
		return SignIn{}, err
	}
	s := SignIn{
		TrainerID: w.TrainerID,
		Email:     w.Email,
		Name:      w.Name,
		IsNewUser: w.IsNewUser,
		AppID:     deref(w.AppID),
		AppName:   deref(w.AppName),
	}
	for _, ck := range cookies {
		if ck.Name == SessionCookie && ck.Value != "" {
			s.Token = ck.Value
		}
	}
	if s.Token == "" {
		return SignIn{}, ErrNoSessionCookie
	}
	return s, nil
}
