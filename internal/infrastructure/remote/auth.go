package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
)

const authResource = "auth"

type tokenResponse struct {
	Token string `json:"token"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
}

type changePasswordRequest struct {
	Password    string `json:"pw"`
	NewPassword string `json:"newPw"`
}

// SignUp creates an account and returns its bearer token.
func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) (string, error) {
	return c.requestToken(ctx, "signup", "/api/auth/signup", signupRequest{Name: in.Name, Email: in.Email, Password: in.Password})
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.requestToken(ctx, "login", "/api/auth/login", loginRequest{Email: email, Password: password})
}

// ChangePassword updates the password of the token's user and returns a
// fresh token.
func (c *Client) ChangePassword(ctx context.Context, token, current, next string) (string, error) {
	return c.withToken(token).requestToken(ctx, "change_password", "/api/auth/change-password", changePasswordRequest{Password: current, NewPassword: next})
}

func (c *Client) requestToken(ctx context.Context, op, path string, body any) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, call{resource: authResource, op: op, method: http.MethodPost, path: path, body: body, out: &out}); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &CallError{Op: authResource + " " + op, Kind: domain.ErrAuth, Err: fmt.Errorf("response carried no token")}
	}
	return out.Token, nil
}
