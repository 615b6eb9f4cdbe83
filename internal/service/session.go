package service

import (
	"errors"
	"fmt"
	"time"

	"gigster_auth/internal/config"
	"gigster_auth/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionIssuer signs the session credential handed out after a verified login.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewSessionIssuer(cfg *config.Config) *SessionIssuer {
	ttl := cfg.JWT.SessionTTL
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &SessionIssuer{
		secret: []byte(cfg.JWT.SecretKey),
		ttl:    ttl,
		issuer: cfg.App.Name,
	}
}

// Issue returns an HS256 token carrying the user's id and seller flag.
func (s *SessionIssuer) Issue(user *model.User, now time.Time) (string, error) {
	claims := &model.SessionClaims{
		UserID:   user.UserID,
		IsSeller: user.IsSeller,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token produced by Issue and returns its claims.
func (s *SessionIssuer) Parse(tokenString string) (*model.SessionClaims, error) {
	claims := &model.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("session token has no user id")
	}
	return claims, nil
}
