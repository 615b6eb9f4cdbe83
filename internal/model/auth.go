package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Img         string `json:"img" validate:"omitempty,url,max=2048"`
	IsSeller    bool   `json:"isSeller"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Description string `json:"desc" validate:"omitempty,max=1000"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// LoginRequest accepts either a username or an email alongside the password.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// NormalizeEmail trims and lower-cases an address so lookups do not depend
// on how the user typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OTPCode accepts the code as a JSON string or number and keeps it as text.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OTPCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = OTPCode(n.String())
	return nil
}

func (c OTPCode) String() string {
	return string(c)
}

type VerifyOTPRequest struct {
	OTP OTPCode `json:"otp" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

type ResetPasswordRequest struct {
	OTP         OTPCode `json:"otp" validate:"required"`
	NewPassword string  `json:"newPassword" validate:"required,min=8,max=72"`
}

// ChallengeIssued is returned whenever a login or reset OTP has been mailed.
// The client keeps Token to submit the code and Email to request a resend.
type ChallengeIssued struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// LoginResult is the outcome of a verified login OTP.
type LoginResult struct {
	SessionToken string
	User         *User
}

// SessionClaims is the payload of the session JWT.
type SessionClaims struct {
	UserID   uuid.UUID `json:"id"`
	IsSeller bool      `json:"isSeller"`
	jwt.RegisteredClaims
}
