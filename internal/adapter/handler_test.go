package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/echo-quest/user-service/internal/entity"
	"github.com/echo-quest/user-service/internal/repository"
	"github.com/echo-quest/user-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *MockUserRepository) CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}
func (m *MockUserRepository) UpdateVerificationCode(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, code, expiresAt)
	return args.Error(0)
}
func (m *MockUserRepository) MarkEmailAsVerified(ctx context.Context, userID primitive.ObjectID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendEmailVerification(toEmail, toName, verificationCode string) error {
	args := m.Called(toEmail, toName, verificationCode)
	return args.Error(0)
}

// stubHasher avoids bcrypt cost in handler tests.
type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (stubHasher) Verify(plaintext, hash string) bool    { return hash == "hashed:"+plaintext }

type testResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func newTestServer(repo *MockUserRepository, mailSender *MockMailer, healthErr error) http.Handler {
	logger := zap.NewNop()
	ucase := usecase.NewAuthUsecase(repo, mailSender, stubHasher{}, logger)
	handler := NewAuthHandler(ucase, func(ctx context.Context) error { return healthErr }, logger)
	return NewRouter(handler, logger)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp testResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func signupBody() map[string]string {
	return map[string]string{
		"email":           "a@b.com",
		"username":        "abcd",
		"firstName":       "Jo",
		"password":        "Abcdef1!",
		"confirmPassword": "Abcdef1!",
	}
}

func TestSignupEndpoint_Created(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(nil, repository.ErrUserNotFound)
	repo.On("FindByUsername", mock.Anything, "abcd").Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	mailSender.On("SendEmailVerification", "a@b.com", "abcd", mock.Anything).Return(nil)

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Signup successful. Please verify your email.", resp.Message)
}

func TestSignupEndpoint_ValidationFailure(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	body := signupBody()
	body["confirmPassword"] = "Different1!"

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, "Passwords do not match.")

	// Validation failure short-circuits before any side effect.
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	mailSender.AssertNotCalled(t, "SendEmailVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupEndpoint_UsernameTaken(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(nil, repository.ErrUserNotFound)
	repo.On("FindByUsername", mock.Anything, "abcd").Return(&entity.User{Username: "abcd"}, nil)

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Username is already taken.", resp.Message)
}

func TestSignupEndpoint_AlreadyVerifiedIsNeutral(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	repo.On("FindByEmail", mock.Anything, "a@b.com").
		Return(&entity.User{ID: primitive.NewObjectID(), Email: "a@b.com", IsVerified: true}, nil)

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "If an account exists for this email, a verification email has been sent.", resp.Message)
}

func TestSignupEndpoint_Resent(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	existing := &entity.User{ID: primitive.NewObjectID(), Email: "a@b.com", Username: "abcd"}
	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(existing, nil)
	repo.On("UpdateVerificationCode", mock.Anything, existing.ID, mock.Anything, mock.Anything).Return(nil)
	mailSender.On("SendEmailVerification", "a@b.com", "abcd", mock.Anything).Return(nil)

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Verification email resent. Please check your inbox.", resp.Message)
}

func TestSignupEndpoint_SendFailure(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(nil, repository.ErrUserNotFound)
	repo.On("FindByUsername", mock.Anything, "abcd").Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	mailSender.On("SendEmailVerification", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("provider unavailable"))

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to send verification email.", resp.Message)
}

func TestSignupEndpoint_RepositoryErrorIsOpaque(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	repo.On("FindByEmail", mock.Anything, "a@b.com").Return(nil, errors.New("connection reset by peer"))

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/signup", signupBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal Server Error", resp.Message)
}

func TestSignupEndpoint_MalformedBody(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	newTestServer(repo, mailSender, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	userID := primitive.NewObjectID()
	expiry := time.Now().Add(1 * time.Hour)

	t.Run("valid code", func(t *testing.T) {
		repo := new(MockUserRepository)
		mailSender := new(MockMailer)
		repo.On("FindByEmail", mock.Anything, "a@b.com").
			Return(&entity.User{ID: userID, VerificationCode: "123456", VerificationCodeExpiry: &expiry}, nil)
		repo.On("MarkEmailAsVerified", mock.Anything, userID).Return(nil)

		rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/verify-email",
			map[string]string{"email": "a@b.com", "code": "123456"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "Email verified successfully.", resp.Message)
	})

	t.Run("wrong code", func(t *testing.T) {
		repo := new(MockUserRepository)
		mailSender := new(MockMailer)
		repo.On("FindByEmail", mock.Anything, "a@b.com").
			Return(&entity.User{ID: userID, VerificationCode: "123456", VerificationCodeExpiry: &expiry}, nil)

		rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/verify-email",
			map[string]string{"email": "a@b.com", "code": "654321"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid or expired verification code.", resp.Message)
	})

	t.Run("invalid payload", func(t *testing.T) {
		repo := new(MockUserRepository)
		mailSender := new(MockMailer)

		rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodPost, "/api/auth/verify-email",
			map[string]string{"email": "a@b.com", "code": "12"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Errors, "Verification code must be a 6-digit number.")
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestHealthEndpoint(t *testing.T) {
	repo := new(MockUserRepository)
	mailSender := new(MockMailer)

	rec, resp := doRequest(t, newTestServer(repo, mailSender, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = doRequest(t, newTestServer(repo, mailSender, errors.New("no reachable servers")), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
}
