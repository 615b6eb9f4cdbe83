package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gigster_auth/internal/config"
	"gigster_auth/internal/middleware"
	"gigster_auth/internal/model"
	"gigster_auth/internal/service"
	"gigster_auth/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	service service.AuthService
	jwtCfg  *config.JWTConfig
}

func NewAuthHandler(s service.AuthService, jwtCfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{service: s, jwtCfg: jwtCfg}
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Email   string `json:"email,omitempty"`
}

type userResponse struct {
	Message string              `json:"message"`
	Token   string              `json:"token,omitempty"`
	User    *model.UserResponse `json:"user"`
}

// Routes mounts the auth endpoints. sessionAuth guards the routes that need
// a logged-in user.
func (h *AuthHandler) Routes(r chi.Router, sessionAuth func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/verify/{token}", h.VerifyRegistration)
	r.Post("/resend/register", h.ResendRegistration)

	r.Post("/login", h.Login)
	r.Post("/login/verify/resend", h.ResendLogin)
	r.Post("/login/verify/{token}", h.VerifyLogin)
	r.Post("/login/resend", h.ResendLogin)

	r.Post("/login/forgot", h.ForgotPassword)
	r.Post("/login/forgot/resend", h.ResendForgotPassword)
	r.Post("/login/reset/{token}", h.ResetPassword)

	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(sessionAuth)
		r.Get("/me", h.GetMe)
	})
}

// decodeAndValidate reads the JSON body into dst, normalizes and validates it, writing
// the error response itself when either step fails.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	if err := webutil.DecodeJSONBody(w, r, dst); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", err))
		return false
	}
	if n, ok := dst.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := webutil.ValidateStruct(dst); err != nil {
		logger.Warn("Request validation failed", "error", err)
		webutil.HandleError(w, logger, err)
		return false
	}
	return true
}

// pathToken returns the {token} URL parameter.
func pathToken(r *http.Request) string {
	return chi.URLParam(r, "token")
}

// Register stores the registration and mails the activation OTP.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.RegisterRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	if _, err := h.service.Register(r.Context(), &req); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, messageResponse{
		Message: "Verification OTP sent to your email. Check your inbox to activate your account.",
	}, logger)
}

// VerifyRegistration activates the account behind the token.
func (h *AuthHandler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.VerifyOTPRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	user, err := h.service.VerifyRegistration(r.Context(), pathToken(r), req.OTP.String())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusCreated, userResponse{
		Message: "Account activated. You can now log in.",
		User:    model.NewUserResponse(user),
	}, logger)
}

func (h *AuthHandler) ResendRegistration(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.EmailRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	if _, err := h.service.ResendRegistration(r.Context(), req.Email); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, messageResponse{
		Message: "A new verification OTP has been sent to your email.",
	}, logger)
}

// Login checks the password and mails a login OTP. The returned token is
// what the client submits together with the code.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.LoginRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	issued, err := h.service.Login(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, tokenResponse{
		Message: "Login OTP sent to your email.",
		Token:   issued.Token,
		Email:   issued.Email,
	}, logger)
}

// VerifyLogin exchanges a login OTP for a session. The session token is
// returned in the body and set as an HTTP-only cookie.
func (h *AuthHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.VerifyOTPRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	result, err := h.service.VerifyLogin(r.Context(), pathToken(r), req.OTP.String())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(result.SessionToken, int(h.jwtCfg.SessionTTL/time.Second)))
	webutil.RespondWithJSON(w, http.StatusOK, userResponse{
		Message: "Login successful.",
		Token:   result.SessionToken,
		User:    model.NewUserResponse(result.User),
	}, logger)
}

func (h *AuthHandler) ResendLogin(w http.ResponseWriter, r *http.Request) {
	h.issueByEmail(w, r, h.service.ResendLogin, "A new login OTP has been sent to your email.")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.issueByEmail(w, r, h.service.ForgotPassword, "Password reset OTP sent to your email.")
}

func (h *AuthHandler) ResendForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.issueByEmail(w, r, h.service.ResendForgotPassword, "A new password reset OTP has been sent to your email.")
}

func (h *AuthHandler) issueByEmail(w http.ResponseWriter, r *http.Request, issue func(ctx context.Context, email string) (*model.ChallengeIssued, error), message string) {
	logger := middleware.GetLogger(r.Context())

	var req model.EmailRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	issued, err := issue(r.Context(), req.Email)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, tokenResponse{Message: message, Token: issued.Token}, logger)
}

// ResetPassword sets a new password once the reset OTP checks out.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req model.ResetPasswordRequest
	if !decodeAndValidate(w, r, logger, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), pathToken(r), req.OTP.String(), req.NewPassword); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset. Please log in."}, logger)
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())
	http.SetCookie(w, h.sessionCookie("", -1))
	webutil.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "User has been logged out."}, logger)
}

// GetMe returns the user behind the session.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.NewUserResponse(user), logger)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.jwtCfg.CookieSecure {
		// The frontend runs on another origin, which needs SameSite=None.
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.jwtCfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.jwtCfg.CookieSecure,
		SameSite: sameSite,
	}
}
