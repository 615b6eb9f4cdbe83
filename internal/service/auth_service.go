//go:generate mockery --name AuthService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigster_auth/internal/config"
	"gigster_auth/internal/middleware"
	"gigster_auth/internal/model"
	"gigster_auth/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService drives the three OTP flows: registration to activation,
// login to session, and forgot password to reset.
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.ChallengeIssued, error)
	VerifyRegistration(ctx context.Context, token, otp string) (*model.User, error)
	ResendRegistration(ctx context.Context, email string) (*model.ChallengeIssued, error)

	Login(ctx context.Context, req *model.LoginRequest) (*model.ChallengeIssued, error)
	VerifyLogin(ctx context.Context, token, otp string) (*model.LoginResult, error)
	ResendLogin(ctx context.Context, email string) (*model.ChallengeIssued, error)

	ForgotPassword(ctx context.Context, email string) (*model.ChallengeIssued, error)
	ResendForgotPassword(ctx context.Context, email string) (*model.ChallengeIssued, error)
	ResetPassword(ctx context.Context, token, otp, newPassword string) error

	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	store    repository.ChallengeStore
	mailer   Mailer
	otpGen   OTPGenerator
	sessions *SessionIssuer
	cfg      *config.Config

	now      func() time.Time
	newToken func() string
}

// AuthOption overrides a default dependency of the auth service.
type AuthOption func(*authService)

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// WithTokenSource sets the generator of opaque correlation tokens.
func WithTokenSource(newToken func() string) AuthOption {
	return func(s *authService) { s.newToken = newToken }
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	store repository.ChallengeStore,
	mailer Mailer,
	otpGen OTPGenerator,
	cfg *config.Config,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		db:       db,
		userRepo: userRepo,
		store:    store,
		mailer:   mailer,
		otpGen:   otpGen,
		sessions: NewSessionIssuer(cfg),
		cfg:      cfg,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Registration ---

func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.ChallengeIssued, error) {
	email := model.NormalizeEmail(req.Email)
	logger := middleware.GetLogger(ctx).With("email", email)

	_, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err == nil {
		logger.Warn("Register rejected: email already in use")
		return nil, model.NewAppError("DUPLICATE_EMAIL", "This email is already registered.", "email", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, errInternal("Failed to check the email.", err)
	}

	_, err = s.userRepo.FindByUsername(ctx, s.db, req.Username)
	if err == nil {
		logger.Warn("Register rejected: username already in use", "username", req.Username)
		return nil, model.NewAppError("DUPLICATE_USERNAME", "This username is already taken.", "username", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, errInternal("Failed to check the username.", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, errInternal("Failed to process the password.", err)
	}

	payload := model.RegistrationPayload{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		IsSeller:     req.IsSeller,
		Img:          req.Img,
		Country:      req.Country,
		Phone:        req.Phone,
		Description:  req.Description,
	}
	issued, err := s.issueActivation(ctx, payload, false)
	if err != nil {
		return nil, err
	}

	logger.Info("Registration pending activation")
	return issued, nil
}

func (s *authService) VerifyRegistration(ctx context.Context, token, otp string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	pending, err := s.store.FindPendingActivationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Activation token not found")
			return nil, errInvalidOrExpired()
		}
		logger.Error("Failed to look up pending activation", "error", err)
		return nil, errInternal("Failed to verify the account.", err)
	}

	if model.Expired(pending.ExpiresAt, s.now()) {
		logger.Warn("Activation token expired", "email", pending.Email, "expires_at", pending.ExpiresAt)
		if err := s.store.DeletePendingActivation(ctx, token); err != nil {
			logger.Warn("Failed to delete expired activation", "error", err)
		}
		return nil, errInvalidOrExpired()
	}

	if !otpMatches(pending.OTP, otp) {
		logger.Warn("Activation OTP mismatch", "email", pending.Email)
		return nil, errOTPMismatch()
	}

	reg, err := pending.Registration()
	if err != nil {
		logger.Error("Failed to decode registration payload", "error", err)
		return nil, errInternal("Failed to verify the account.", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		IsSeller:     reg.IsSeller,
		Img:          reg.Img,
		Country:      reg.Country,
		Phone:        reg.Phone,
		Description:  reg.Description,
	}
	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		if errors.Is(err, model.ErrConflict) {
			// Someone else claimed the username or email after this registration started.
			logger.Warn("Activation conflicts with an existing user", "email", reg.Email)
			if delErr := s.store.DeletePendingActivation(ctx, token); delErr != nil {
				logger.Warn("Failed to delete conflicting activation", "error", delErr)
			}
			return nil, model.NewAppError("DUPLICATE_ENTRY", "The username or email is already registered.", "username,email", model.ErrConflict)
		}
		logger.Error("Failed to create user", "error", err)
		return nil, errInternal("Failed to create the account.", err)
	}

	if err := s.store.DeletePendingActivation(ctx, token); err != nil {
		logger.Error("Failed to delete used activation", "error", err, "user_id", user.UserID)
	}

	logger.Info("Account activated", "user_id", user.UserID)
	return user, nil
}

func (s *authService) ResendRegistration(ctx context.Context, email string) (*model.ChallengeIssued, error) {
	email = model.NormalizeEmail(email)
	logger := middleware.GetLogger(ctx).With("email", email)

	pending, err := s.store.FindPendingActivationByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Resend requested without a pending activation")
			return nil, model.NewAppError("NO_PENDING_ACTIVATION", "No pending activation for this email.", "email", model.ErrNotFound)
		}
		return nil, errInternal("Failed to resend the verification.", err)
	}

	reg, err := pending.Registration()
	if err != nil {
		logger.Error("Failed to decode registration payload", "error", err)
		return nil, errInternal("Failed to resend the verification.", err)
	}

	issued, err := s.issueActivation(ctx, reg, true)
	if err != nil {
		return nil, err
	}
	logger.Info("Activation OTP resent")
	return issued, nil
}

// issueActivation stores a fresh activation for payload.Email, replacing any
// earlier one, and mails the code with the verification link.
func (s *authService) issueActivation(ctx context.Context, payload model.RegistrationPayload, resend bool) (*model.ChallengeIssued, error) {
	logger := middleware.GetLogger(ctx)

	otp, err := s.otpGen.Generate()
	if err != nil {
		return nil, errInternal("Failed to generate the code.", err)
	}
	token := s.newToken()

	pending, err := model.NewPendingActivation(payload, otp, token, s.expiry())
	if err != nil {
		return nil, errInternal("Failed to store the registration.", err)
	}
	if err := s.store.SavePendingActivation(ctx, pending); err != nil {
		return nil, errInternal("Failed to store the registration.", err)
	}

	link := fmt.Sprintf("%s/verify/%s", strings.TrimRight(s.cfg.App.FrontendURL, "/"), token)
	if err := s.sendOTPEmail(ctx, payload.Email, purposeActivation, resend, otp, link); err != nil {
		logger.Error("Failed to send activation email", "error", err)
		return nil, errEmailSend(err)
	}
	return &model.ChallengeIssued{Token: token, Email: payload.Email}, nil
}

// --- Login ---

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.ChallengeIssued, error) {
	logger := middleware.GetLogger(ctx).With("username", req.Username, "email", req.Email)

	var user *model.User
	var err error
	if req.Username != "" {
		user, err = s.userRepo.FindByUsername(ctx, s.db, req.Username)
	} else {
		user, err = s.userRepo.FindByEmail(ctx, s.db, model.NormalizeEmail(req.Email))
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, errWrongCredentials()
		}
		logger.Error("Login failed: db error", "error", err)
		return nil, errInternal("Failed to log in.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Login failed: password mismatch", "user_id", user.UserID)
		return nil, errWrongCredentials()
	}

	issued, err := s.issueChallenge(ctx, user, model.ChallengeKindLogin, false)
	if err != nil {
		return nil, err
	}
	logger.Info("Login OTP issued", "user_id", user.UserID)
	return issued, nil
}

func (s *authService) VerifyLogin(ctx context.Context, token, otp string) (*model.LoginResult, error) {
	logger := middleware.GetLogger(ctx)

	challenge, err := s.verifyChallenge(ctx, token, otp, model.ChallengeKindLogin)
	if err != nil {
		return nil, err
	}

	user, err := s.findChallengeUser(ctx, challenge)
	if err != nil {
		return nil, err
	}

	// The code must not be usable twice, so a failed delete fails the login.
	if err := s.store.DeleteChallenge(ctx, token); err != nil {
		logger.Error("Failed to delete used login challenge", "error", err, "user_id", user.UserID)
		return nil, errInternal("Failed to complete the login.", err)
	}

	sessionToken, err := s.sessions.Issue(user, s.now())
	if err != nil {
		logger.Error("Failed to sign session token", "error", err, "user_id", user.UserID)
		return nil, errInternal("Failed to complete the login.", err)
	}

	logger.Info("Login successful", "user_id", user.UserID)
	return &model.LoginResult{SessionToken: sessionToken, User: user}, nil
}

func (s *authService) ResendLogin(ctx context.Context, email string) (*model.ChallengeIssued, error) {
	return s.issueChallengeByEmail(ctx, email, model.ChallengeKindLogin, true)
}

// --- Password reset ---

func (s *authService) ForgotPassword(ctx context.Context, email string) (*model.ChallengeIssued, error) {
	return s.issueChallengeByEmail(ctx, email, model.ChallengeKindPasswordReset, false)
}

func (s *authService) ResendForgotPassword(ctx context.Context, email string) (*model.ChallengeIssued, error) {
	return s.issueChallengeByEmail(ctx, email, model.ChallengeKindPasswordReset, true)
}

func (s *authService) ResetPassword(ctx context.Context, token, otp, newPassword string) error {
	logger := middleware.GetLogger(ctx)

	challenge, err := s.verifyChallenge(ctx, token, otp, model.ChallengeKindPasswordReset)
	if err != nil {
		return err
	}

	user, err := s.findChallengeUser(ctx, challenge)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", "error", err)
		return errInternal("Failed to process the password.", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, s.db, user.UserID, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errUserNotFound()
		}
		logger.Error("Failed to update password", "error", err, "user_id", user.UserID)
		return errInternal("Failed to reset the password.", err)
	}

	if err := s.store.DeleteChallenge(ctx, token); err != nil {
		logger.Error("Failed to delete used reset challenge", "error", err, "user_id", user.UserID)
	}

	logger.Info("Password reset successfully", "user_id", user.UserID)
	return nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID)
			return nil, errUserNotFound()
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, errInternal("Failed to load the user.", err)
	}
	return user, nil
}

// --- helpers ---

func (s *authService) issueChallengeByEmail(ctx context.Context, email string, kind model.ChallengeKind, resend bool) (*model.ChallengeIssued, error) {
	email = model.NormalizeEmail(email)
	logger := middleware.GetLogger(ctx).With("email", email, "kind", kind)

	user, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("OTP requested for unknown email")
			return nil, errUserNotFound()
		}
		logger.Error("Failed to look up user", "error", err)
		return nil, errInternal("Failed to send the code.", err)
	}

	issued, err := s.issueChallenge(ctx, user, kind, resend)
	if err != nil {
		return nil, err
	}
	logger.Info("OTP issued", "user_id", user.UserID, "resend", resend)
	return issued, nil
}

// issueChallenge replaces the user's challenge of this kind and mails the code.
func (s *authService) issueChallenge(ctx context.Context, user *model.User, kind model.ChallengeKind, resend bool) (*model.ChallengeIssued, error) {
	logger := middleware.GetLogger(ctx)

	otp, err := s.otpGen.Generate()
	if err != nil {
		return nil, errInternal("Failed to generate the code.", err)
	}
	challenge := &model.Challenge{
		Token:     s.newToken(),
		UserID:    user.UserID,
		Kind:      kind,
		OTP:       otp,
		ExpiresAt: s.expiry(),
	}
	if err := s.store.SaveChallenge(ctx, challenge); err != nil {
		return nil, errInternal("Failed to store the code.", err)
	}

	purpose := purposeLogin
	if kind == model.ChallengeKindPasswordReset {
		purpose = purposePasswordReset
	}
	if err := s.sendOTPEmail(ctx, user.Email, purpose, resend, otp, ""); err != nil {
		logger.Error("Failed to send OTP email", "error", err, "kind", kind)
		return nil, errEmailSend(err)
	}
	return &model.ChallengeIssued{Token: challenge.Token, Email: user.Email}, nil
}

// verifyChallenge checks, in order, that the token exists, has not expired
// and carries otp. A wrong code leaves the challenge in place.
func (s *authService) verifyChallenge(ctx context.Context, token, otp string, kind model.ChallengeKind) (*model.Challenge, error) {
	logger := middleware.GetLogger(ctx).With("kind", kind)

	challenge, err := s.store.FindChallengeByToken(ctx, token, kind)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Challenge token not found")
			return nil, errInvalidOrExpired()
		}
		logger.Error("Failed to look up challenge", "error", err)
		return nil, errInternal("Failed to verify the code.", err)
	}

	if model.Expired(challenge.ExpiresAt, s.now()) {
		logger.Warn("Challenge expired", "user_id", challenge.UserID, "expires_at", challenge.ExpiresAt)
		if err := s.store.DeleteChallenge(ctx, token); err != nil {
			logger.Warn("Failed to delete expired challenge", "error", err)
		}
		return nil, errInvalidOrExpired()
	}

	if !otpMatches(challenge.OTP, otp) {
		logger.Warn("Challenge OTP mismatch", "user_id", challenge.UserID)
		return nil, errOTPMismatch()
	}
	return challenge, nil
}

func (s *authService) findChallengeUser(ctx context.Context, challenge *model.Challenge) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, s.db, challenge.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			middleware.GetLogger(ctx).Warn("Challenge refers to a missing user", "user_id", challenge.UserID)
			return nil, errUserNotFound()
		}
		return nil, errInternal("Failed to load the user.", err)
	}
	return user, nil
}

func (s *authService) sendOTPEmail(ctx context.Context, to string, purpose emailPurpose, resend bool, otp, link string) error {
	subject, body, err := buildOTPEmail(s.appName(), purpose, resend, otp, link, s.otpTTL())
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, to, subject, body)
}

func (s *authService) hashPassword(password string) (string, error) {
	cost := s.cfg.Password.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) expiry() time.Time {
	return s.now().UTC().Add(s.otpTTL())
}

func (s *authService) otpTTL() time.Duration {
	if s.cfg.OTP.TTL > 0 {
		return s.cfg.OTP.TTL
	}
	return config.DefaultOTPTTL
}

func (s *authService) appName() string {
	if s.cfg.App.Name != "" {
		return s.cfg.App.Name
	}
	return config.DefaultAppName
}

// otpMatches compares codes as plain strings after trimming whitespace.
func otpMatches(expected, submitted string) bool {
	return expected != "" && expected == strings.TrimSpace(submitted)
}

func errInvalidOrExpired() error {
	return model.NewAppError("INVALID_OR_EXPIRED", "Invalid or expired OTP/token", "token", model.ErrExpiredOrInvalid)
}

func errOTPMismatch() error {
	return model.NewAppError("INVALID_OTP", "Invalid OTP", "otp", model.ErrOTPMismatch)
}

func errWrongCredentials() error {
	return model.NewAppError("WRONG_CREDENTIALS", "Wrong credentials", "", model.ErrInvalidInput)
}

func errUserNotFound() error {
	return model.NewAppError("USER_NOT_FOUND", "User not found", "", model.ErrNotFound)
}

func errEmailSend(err error) error {
	return model.NewAppError("EMAIL_SEND_FAILED", "Failed to send the email. Please try again later.", "", fmt.Errorf("%w: %v", model.ErrInternalServer, err))
}

func errInternal(message string, err error) error {
	return model.NewAppError("INTERNAL_SERVER_ERROR", message, "", fmt.Errorf("%w: %v", model.ErrInternalServer, err))
}
