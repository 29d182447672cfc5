package client

import (
	"context"
	"time"

	"gitlearn/backend/models"

	"github.com/gofiber/fiber/v2"
)

type AuthClient struct {
	api
}

func NewAuthClient(baseURL string, session *Session, timeout time.Duration) *AuthClient {
	return &AuthClient{api: newAPI(baseURL, session, timeout)}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Login exchanges credentials for a token and stores it in the session.
func (c *AuthClient) Login(ctx context.Context, email, password string) (models.PublicUser, error) {
	var resp loginResponse
	if err := c.do(ctx, fiber.Post(c.url("/api/auth/login")), false, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return models.PublicUser{}, err
	}
	if c.session != nil {
		if err := c.session.Save(resp.Token, resp.User); err != nil {
			return resp.User, err
		}
	}
	return resp.User, nil
}

// Profile returns the user the session token belongs to.
func (c *AuthClient) Profile(ctx context.Context) (models.PublicUser, error) {
	var user models.User
	if err := c.do(ctx, fiber.Get(c.url("/api/auth/profile")), true, nil, &user); err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// Logout forgets the token locally. Tokens are stateless on the server.
func (c *AuthClient) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}
