package models

// SignupRequest registers a new account. CaptchaResponse is required only
// when the captcha verifier is enabled.
type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=2,max=64"`
	Password        string `json:"password" validate:"required,min=8"`
	RememberMe      bool   `json:"rememberMe"`
	CaptchaResponse string `json:"captchaResponse"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// ForgotPasswordRequest starts the password-reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password-reset flow. The token arrives
// as a query parameter, the new password in the body.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ResendVerificationRequest re-sends the verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UserInfo is the public projection of a user returned by auth endpoints.
type UserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	IsVerified bool   `json:"isVerified"`
}

// Info converts a full user row into its public projection.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Username: u.Username, IsVerified: u.IsVerified}
}
