package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gigster_auth/internal/handlers"
	"gigster_auth/internal/model"
	"gigster_auth/internal/service"
	"gigster_auth/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockServer(t *testing.T) (*mocks.AuthService, *httptest.Server) {
	t.Helper()
	cfg := testConfig()
	mockAuthService := mocks.NewAuthService(t)
	authHandler := handlers.NewAuthHandler(mockAuthService, &cfg.JWT)
	server := httptest.NewServer(handlers.NewRouter(cfg, testLogger, authHandler))
	t.Cleanup(server.Close)
	return mockAuthService, server
}

func testUser() *model.User {
	return &model.User{
		UserID:    uuid.New(),
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	validBody := map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
		"isSeller": true,
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(m *mocks.AuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "registers and mails the OTP",
			body: validBody,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(req *model.RegisterRequest) bool {
					return req.Username == "alice" && req.Email == "alice@example.com" && req.IsSeller
				})).Return(&model.ChallengeIssued{Token: "tok-1", Email: "alice@example.com"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "full profile from the web client",
			body: `{"username":"alice","email":"alice@example.com","password":"password123","img":"https://res.cloudinary.com/gigster/image/upload/v1/alice.png","country":"India","phone":"+91 98765 43210","isSeller":true,"desc":"I draw"}`,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(req *model.RegisterRequest) bool {
					return req.Img == "https://res.cloudinary.com/gigster/image/upload/v1/alice.png" &&
						req.Country == "India" && req.Phone == "+91 98765 43210" && req.Description == "I draw" && req.IsSeller
				})).Return(&model.ChallengeIssued{Token: "tok-1", Email: "alice@example.com"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "email is trimmed and lower-cased",
			body: map[string]interface{}{"username": "alice", "email": "  Alice@Example.COM ", "password": "password123"},
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(req *model.RegisterRequest) bool {
					return req.Email == "alice@example.com"
				})).Return(&model.ChallengeIssued{Token: "tok-1", Email: "alice@example.com"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "img is not a url",
			body:           map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "password123", "img": "not a url"},
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "malformed JSON",
			body:           `{"username": "alice"`,
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST_BODY",
		},
		{
			name:           "unknown field",
			body:           `{"username":"alice","email":"alice@example.com","password":"password123","role":"admin"}`,
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST_BODY",
		},
		{
			name:           "missing email",
			body:           map[string]interface{}{"username": "alice", "password": "password123"},
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "short password",
			body:           map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "short"},
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "email already active",
			body: validBody,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, model.NewAppError("DUPLICATE_EMAIL", "This email is already registered.", "email", model.ErrConflict)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "DUPLICATE_EMAIL",
		},
		{
			name: "mail delivery fails",
			body: validBody,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, model.NewAppError("EMAIL_SEND_FAILED", "Failed to send the email.", "", fmt.Errorf("%w: smtp down", model.ErrInternalServer))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "EMAIL_SEND_FAILED",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, server := newMockServer(t)
			tc.setupMock(m)

			_, body := sendRequest(t, server, httpRequestDetails{Method: http.MethodPost, Path: "/api/auth/register", Body: tc.body}, tc.expectedStatus)
			if tc.expectedCode != "" {
				verifyErrorResponse(t, body, tc.expectedCode)
			}
		})
	}
}

func TestAuthHandler_VerifyRegistration(t *testing.T) {
	user := testUser()

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *mocks.AuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "numeric OTP is accepted",
			body: `{"otp": 123456}`,
			setupMock: func(m *mocks.AuthService) {
				m.On("VerifyRegistration", mock.Anything, "tok-1", "123456").Return(user, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "string OTP is trimmed",
			body: `{"otp": " 123456 "}`,
			setupMock: func(m *mocks.AuthService) {
				m.On("VerifyRegistration", mock.Anything, "tok-1", "123456").Return(user, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing OTP",
			body:           `{}`,
			setupMock:      func(m *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown or expired token",
			body: `{"otp": "123456"}`,
			setupMock: func(m *mocks.AuthService) {
				m.On("VerifyRegistration", mock.Anything, "tok-1", "123456").
					Return(nil, model.NewAppError("INVALID_OR_EXPIRED", "Invalid or expired OTP/token", "token", model.ErrExpiredOrInvalid)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_OR_EXPIRED",
		},
		{
			name: "wrong OTP",
			body: `{"otp": "654321"}`,
			setupMock: func(m *mocks.AuthService) {
				m.On("VerifyRegistration", mock.Anything, "tok-1", "654321").
					Return(nil, model.NewAppError("INVALID_OTP", "Invalid OTP", "otp", model.ErrOTPMismatch)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_OTP",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, server := newMockServer(t)
			tc.setupMock(m)

			_, body := sendRequest(t, server, httpRequestDetails{Method: http.MethodPost, Path: "/api/auth/verify/tok-1", Body: tc.body}, tc.expectedStatus)
			if tc.expectedCode != "" {
				verifyErrorResponse(t, body, tc.expectedCode)
				return
			}

			var resp struct {
				Message string              `json:"message"`
				User    *model.UserResponse `json:"user"`
			}
			require.NoError(t, json.Unmarshal(body, &resp))
			require.NotNil(t, resp.User)
			assert.Equal(t, user.UserID, resp.User.UserID)
			assert.NotContains(t, string(body), "password")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns the challenge token", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("Login", mock.Anything, mock.MatchedBy(func(req *model.LoginRequest) bool {
			return req.Email == "alice@example.com" && req.Password == "password123"
		})).Return(&model.ChallengeIssued{Token: "login-tok", Email: "alice@example.com"}, nil).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login",
			Body:   map[string]string{"email": "alice@example.com", "password": "password123"},
		}, http.StatusOK)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, "login-tok", resp["token"])
		assert.Equal(t, "alice@example.com", resp["email"])
	})

	t.Run("neither username nor email", func(t *testing.T) {
		_, server := newMockServer(t)
		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login",
			Body:   map[string]string{"password": "password123"},
		}, http.StatusBadRequest)
		verifyErrorResponse(t, body, "VALIDATION_ERROR")
	})

	t.Run("wrong credentials", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("Login", mock.Anything, mock.Anything).
			Return(nil, model.NewAppError("WRONG_CREDENTIALS", "Wrong credentials", "", model.ErrInvalidInput)).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login",
			Body:   map[string]string{"username": "alice", "password": "nope-nope"},
		}, http.StatusBadRequest)
		verifyErrorResponse(t, body, "WRONG_CREDENTIALS")
	})
}

func TestAuthHandler_VerifyLogin(t *testing.T) {
	t.Run("sets the session cookie", func(t *testing.T) {
		user := testUser()
		m, server := newMockServer(t)
		m.On("VerifyLogin", mock.Anything, "login-tok", "123456").
			Return(&model.LoginResult{SessionToken: "jwt-value", User: user}, nil).Once()

		resp, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/verify/login-tok",
			Body:   `{"otp":"123456"}`,
		}, http.StatusOK)

		cookie := findCookie(resp, "accessToken")
		require.NotNil(t, cookie)
		assert.Equal(t, "jwt-value", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, int(time.Hour/time.Second), cookie.MaxAge)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "jwt-value", payload["token"])
	})

	t.Run("failure sets no cookie", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("VerifyLogin", mock.Anything, "login-tok", "000000").
			Return(nil, model.NewAppError("INVALID_OTP", "Invalid OTP", "otp", model.ErrOTPMismatch)).Once()

		resp, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/verify/login-tok",
			Body:   `{"otp":"000000"}`,
		}, http.StatusBadRequest)

		verifyErrorResponse(t, body, "INVALID_OTP")
		assert.Nil(t, findCookie(resp, "accessToken"))
	})
}

func TestAuthHandler_ResendAndForgot(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
	}{
		{name: "resend login", path: "/api/auth/login/resend", method: "ResendLogin"},
		{name: "resend login alias", path: "/api/auth/login/verify/resend", method: "ResendLogin"},
		{name: "forgot password", path: "/api/auth/login/forgot", method: "ForgotPassword"},
		{name: "resend forgot password", path: "/api/auth/login/forgot/resend", method: "ResendForgotPassword"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, server := newMockServer(t)
			m.On(tc.method, mock.Anything, "alice@example.com").
				Return(&model.ChallengeIssued{Token: "new-tok", Email: "alice@example.com"}, nil).Once()

			_, body := sendRequest(t, server, httpRequestDetails{
				Method: http.MethodPost,
				Path:   tc.path,
				Body:   map[string]string{"email": "alice@example.com"},
			}, http.StatusOK)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, "new-tok", resp["token"])
		})
	}

	t.Run("unknown email", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("ForgotPassword", mock.Anything, "ghost@example.com").
			Return(nil, model.NewAppError("USER_NOT_FOUND", "User not found", "", model.ErrNotFound)).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/forgot",
			Body:   map[string]string{"email": "ghost@example.com"},
		}, http.StatusNotFound)
		verifyErrorResponse(t, body, "USER_NOT_FOUND")
	})

	t.Run("resend registration without pending activation", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("ResendRegistration", mock.Anything, "alice@example.com").
			Return(nil, model.NewAppError("NO_PENDING_ACTIVATION", "No pending activation for this email.", "email", model.ErrNotFound)).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/resend/register",
			Body:   map[string]string{"email": "alice@example.com"},
		}, http.StatusNotFound)
		verifyErrorResponse(t, body, "NO_PENDING_ACTIVATION")
	})

	t.Run("invalid email", func(t *testing.T) {
		_, server := newMockServer(t)
		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/forgot",
			Body:   map[string]string{"email": "not-an-email"},
		}, http.StatusBadRequest)
		verifyErrorResponse(t, body, "VALIDATION_ERROR")
	})
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	t.Run("resets", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("ResetPassword", mock.Anything, "reset-tok", "123456", "brand-new-pass").Return(nil).Once()

		sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/reset/reset-tok",
			Body:   map[string]interface{}{"otp": 123456, "newPassword": "brand-new-pass"},
		}, http.StatusOK)
	})

	t.Run("short new password", func(t *testing.T) {
		_, server := newMockServer(t)
		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/reset/reset-tok",
			Body:   map[string]interface{}{"otp": "123456", "newPassword": "short"},
		}, http.StatusBadRequest)
		verifyErrorResponse(t, body, "VALIDATION_ERROR")
	})

	t.Run("unexpected error is hidden", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("ResetPassword", mock.Anything, "reset-tok", "123456", "brand-new-pass").Return(errors.New("db exploded")).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method: http.MethodPost,
			Path:   "/api/auth/login/reset/reset-tok",
			Body:   map[string]interface{}{"otp": "123456", "newPassword": "brand-new-pass"},
		}, http.StatusInternalServerError)
		verifyErrorResponse(t, body, "INTERNAL_SERVER_ERROR")
		assert.NotContains(t, string(body), "db exploded")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	_, server := newMockServer(t)

	resp, _ := sendRequest(t, server, httpRequestDetails{Method: http.MethodPost, Path: "/api/auth/logout"}, http.StatusOK)

	cookie := findCookie(resp, "accessToken")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandler_GetMe(t *testing.T) {
	cfg := testConfig()
	user := testUser()
	sessionToken, err := service.NewSessionIssuer(cfg).Issue(user, time.Now())
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("GetUser", mock.Anything, user.UserID).Return(user, nil).Once()

		_, body := sendRequest(t, server, httpRequestDetails{
			Method:  http.MethodGet,
			Path:    "/api/auth/me",
			Headers: map[string]string{"Authorization": "Bearer " + sessionToken},
		}, http.StatusOK)

		var resp model.UserResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, user.Email, resp.Email)
	})

	t.Run("session cookie", func(t *testing.T) {
		m, server := newMockServer(t)
		m.On("GetUser", mock.Anything, user.UserID).Return(user, nil).Once()

		sendRequest(t, server, httpRequestDetails{
			Method:  http.MethodGet,
			Path:    "/api/auth/me",
			Cookies: []*http.Cookie{{Name: "accessToken", Value: sessionToken}},
		}, http.StatusOK)
	})

	t.Run("no session", func(t *testing.T) {
		_, server := newMockServer(t)
		_, body := sendRequest(t, server, httpRequestDetails{Method: http.MethodGet, Path: "/api/auth/me"}, http.StatusUnauthorized)
		verifyErrorResponse(t, body, "UNAUTHORIZED")
	})

	t.Run("forged token", func(t *testing.T) {
		_, server := newMockServer(t)
		_, body := sendRequest(t, server, httpRequestDetails{
			Method:  http.MethodGet,
			Path:    "/api/auth/me",
			Headers: map[string]string{"Authorization": "Bearer " + sessionToken + "x"},
		}, http.StatusUnauthorized)
		verifyErrorResponse(t, body, "INVALID_SESSION")
	})
}

func TestRouter_Health(t *testing.T) {
	cfg := testConfig()
	authHandler := handlers.NewAuthHandler(mocks.NewAuthService(t), &cfg.JWT)

	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(handlers.NewRouter(cfg, testLogger, authHandler))
		defer server.Close()
		sendRequest(t, server, httpRequestDetails{Method: http.MethodGet, Path: "/health"}, http.StatusOK)
	})

	t.Run("failing check", func(t *testing.T) {
		failing := func(_ context.Context) error { return errors.New("redis down") }
		server := httptest.NewServer(handlers.NewRouter(cfg, testLogger, authHandler, failing))
		defer server.Close()
		sendRequest(t, server, httpRequestDetails{Method: http.MethodGet, Path: "/health"}, http.StatusServiceUnavailable)
	})
}
