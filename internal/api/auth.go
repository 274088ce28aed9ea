package api

import (
	"context"

	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
	"github.com/55onurisik/lmsmobile/internal/model"
)

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Session is the authenticated identity returned by login and register.
type Session struct {
	Student model.Student
	Token   string
}

type loginResponse struct {
	Data struct {
		Student model.Student `json:"student"`
		Token   string        `json:"token"`
	} `json:"data"`
}

// Login authenticates the student and returns the bearer token plus profile.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	var res loginResponse
	if err := c.post(ctx, "/login", creds, &res); err != nil {
		return Session{}, err
	}
	if res.Data.Token == "" {
		return Session{}, &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrLoginFailed")}
	}
	return Session{Student: res.Data.Student, Token: res.Data.Token}, nil
}

type registerResponse struct {
	Token   string        `json:"token"`
	Student model.Student `json:"user"`
	Message string        `json:"message"`
}

// Register creates a new student account. When the backend issues a token
// right away the returned session is ready to persist.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	var res registerResponse
	if err := c.post(ctx, "/register", req, &res); err != nil {
		return Session{}, err
	}
	return Session{Student: res.Student, Token: res.Token}, nil
}

// Logout invalidates the token server side. The local session is cleared by
// the caller regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/logout", nil, nil)
}

type userResponse struct {
	User model.Student `json:"user"`
}

// CurrentUser fetches the authenticated student's profile.
func (c *Client) CurrentUser(ctx context.Context) (model.Student, error) {
	var res userResponse
	if err := c.get(ctx, "/user", nil, &res); err != nil {
		return model.Student{}, err
	}
	return res.User, nil
}

// UpdateProfile updates the student's name and email.
func (c *Client) UpdateProfile(ctx context.Context, name, email string) (model.Student, error) {
	var res userResponse
	body := map[string]string{"name": name, "email": email}
	if err := c.post(ctx, "/profile/update", body, &res); err != nil {
		return model.Student{}, err
	}
	return res.User, nil
}

// ChangePasswordRequest carries the password change form.
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ChangePassword updates the password for the logged-in student.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return c.post(ctx, "/password/update", req, nil)
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPasswordRequest carries the reset form.
type ResetPasswordRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ResetPassword sets a new password from the reset flow.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.post(ctx, "/reset-password", req, nil)
}
