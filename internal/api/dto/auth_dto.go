package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
	Name      string    `json:"name"`
}

// SessionResponse describes the caller's resolved session.
type SessionResponse struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	Name      string `json:"name"`
}

// SetCompanyRequest switches the admin's active company.
type SetCompanyRequest struct {
	CompanyID string `json:"company_id"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// RegisterUserRequest provisions an identity.
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUserResponse mirrors the provisioning endpoint contract.
type RegisterUserResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid,omitempty"`
	Code    string `json:"code,omitempty"`
}

// DeleteUserRequest removes an identity.
type DeleteUserRequest struct {
	Email string `json:"email"`
}

// DeleteUserResponse mirrors the provisioning endpoint contract.
type DeleteUserResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
