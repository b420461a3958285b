package adapter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/echo-quest/user-service/internal/usecase"
	"github.com/echo-quest/user-service/internal/validation"
	"go.uber.org/zap"
)

// Response messages, kept stable: clients and the anti-enumeration guarantee
// depend on the exact wording.
const (
	msgSignupSuccess   = "Signup successful. Please verify your email."
	msgNeutral         = "If an account exists for this email, a verification email has been sent."
	msgResent          = "Verification email resent. Please check your inbox."
	msgUsernameTaken   = "Username is already taken."
	msgSendFailed      = "Failed to send verification email."
	msgVerified        = "Email verified successfully."
	msgAlreadyVerified = "Email is already verified."
	msgInvalidCode     = "Invalid or expired verification code."
	msgInternalError   = "Internal Server Error"
)

type apiResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type AuthHandler struct {
	usecase *usecase.AuthUsecase
	health  func(ctx context.Context) error
	logger  *zap.Logger
}

func NewAuthHandler(ucase *usecase.AuthUsecase, health func(ctx context.Context) error, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		usecase: ucase,
		health:  health,
		logger:  logger.Named("AuthHTTPHandler"),
	}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req validation.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode request body for Signup", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid request body"})
		return
	}

	input, validationErrs := validation.ValidateSignup(req)
	if len(validationErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Errors: validationErrs})
		return
	}
	h.logger.Info("Signup request received", zap.String("email", input.Email))

	outcome, err := h.usecase.Signup(r.Context(), usecase.SignupData{
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		h.logger.Error("Signup failed", zap.String("email", input.Email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: msgInternalError})
		return
	}

	switch outcome {
	case usecase.SignupCreated:
		writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: msgSignupSuccess})
	case usecase.SignupResent:
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgResent})
	case usecase.SignupNeutral:
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgNeutral})
	case usecase.SignupUsernameTaken:
		writeJSON(w, http.StatusConflict, apiResponse{Success: false, Message: msgUsernameTaken})
	case usecase.SignupSendFailed:
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: msgSendFailed})
	default:
		h.logger.Error("Unhandled signup outcome", zap.Int("outcome", int(outcome)))
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: msgInternalError})
	}
}

// VerifyEmail handles POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req validation.VerifyEmailInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode request body for VerifyEmail", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid request body"})
		return
	}

	input, validationErrs := validation.ValidateVerifyEmail(req)
	if len(validationErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Errors: validationErrs})
		return
	}

	outcome, err := h.usecase.VerifyEmail(r.Context(), input.Email, input.Code)
	if err != nil {
		h.logger.Error("VerifyEmail failed", zap.String("email", input.Email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: msgInternalError})
		return
	}

	switch outcome {
	case usecase.VerifyOK:
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgVerified})
	case usecase.VerifyAlreadyVerified:
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgAlreadyVerified})
	default:
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: msgInvalidCode})
	}
}

// Health handles GET /health.
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health(r.Context()); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, apiResponse{Success: false, Message: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
