package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChallengeKind distinguishes the OTP challenges owned by an existing user.
type ChallengeKind string

const (
	ChallengeKindLogin         ChallengeKind = "login"
	ChallengeKindPasswordReset ChallengeKind = "password-reset"
)

func (k ChallengeKind) Valid() bool {
	return k == ChallengeKindLogin || k == ChallengeKindPasswordReset
}

// RegistrationPayload is the user data held back until the activation OTP is
// verified. PasswordHash is already hashed.
type RegistrationPayload struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	IsSeller     bool   `json:"isSeller"`
	Img          string `json:"img,omitempty"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Description  string `json:"desc,omitempty"`
}

// PendingActivation is a registration awaiting its OTP. One per email.
type PendingActivation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Payload   []byte    `gorm:"not null" json:"payload"`
	OTP       string    `gorm:"column:otp;not null" json:"otp"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PendingActivation) TableName() string {
	return "pending_activations"
}

func NewPendingActivation(p RegistrationPayload, otp, token string, expiresAt time.Time) (*PendingActivation, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &PendingActivation{
		Token:     token,
		Email:     p.Email,
		Payload:   raw,
		OTP:       otp,
		ExpiresAt: expiresAt,
	}, nil
}

// Registration decodes the held-back payload.
func (p *PendingActivation) Registration() (RegistrationPayload, error) {
	var out RegistrationPayload
	err := json.Unmarshal(p.Payload, &out)
	return out, err
}

// Challenge is a login or password-reset OTP. One per (user, kind).
type Challenge struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	Token     string        `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uq_challenge_subject" json:"userId"`
	Kind      ChallengeKind `gorm:"type:varchar(32);not null;uniqueIndex:uq_challenge_subject" json:"kind"`
	OTP       string        `gorm:"column:otp;not null" json:"otp"`
	ExpiresAt time.Time     `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// Expired reports whether expiresAt has passed at now.
func Expired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
