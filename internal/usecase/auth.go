package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/echo-quest/user-service/internal/entity"
	"github.com/echo-quest/user-service/internal/repository"
	"github.com/echo-quest/user-service/internal/verification"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SignupOutcome classifies the result of a signup attempt. The HTTP layer maps
// each outcome to a status code and response message.
type SignupOutcome int

const (
	// SignupCreated: new unverified record persisted, verification email sent.
	SignupCreated SignupOutcome = iota
	// SignupResent: existing unverified record got a fresh code, email sent.
	SignupResent
	// SignupNeutral: the email belongs to a verified account, or a concurrent
	// signup won the email uniqueness race. Indistinguishable from the caller's
	// side to prevent account enumeration.
	SignupNeutral
	// SignupUsernameTaken: username conflict, detected by pre-check or at write.
	SignupUsernameTaken
	// SignupSendFailed: the record was persisted or updated, but the
	// verification email could not be delivered. Retrying signup resends.
	SignupSendFailed
)

// VerifyOutcome classifies the result of redeeming a verification code.
type VerifyOutcome int

const (
	// VerifyOK: code matched within its expiry; the account is now verified.
	VerifyOK VerifyOutcome = iota
	// VerifyAlreadyVerified: the account needs no verification.
	VerifyAlreadyVerified
	// VerifyInvalidCode: unknown email, wrong code, or expired code.
	VerifyInvalidCode
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error)
	UpdateVerificationCode(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error
	MarkEmailAsVerified(ctx context.Context, userID primitive.ObjectID) error
}

type Mailer interface {
	SendEmailVerification(toEmail, toName, verificationCode string) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// SignupData is validated, normalized signup input.
type SignupData struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthUsecase struct {
	repo   UserRepository
	mailer Mailer
	hasher PasswordHasher
	logger *zap.Logger

	now          func() time.Time
	generateCode func() (string, error)
}

func NewAuthUsecase(repo UserRepository, mailer Mailer, hasher PasswordHasher, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		repo:         repo,
		mailer:       mailer,
		hasher:       hasher,
		logger:       logger.Named("AuthUsecase"),
		now:          time.Now,
		generateCode: verification.GenerateCode,
	}
}

// Signup runs the registration state machine: hash the password, look up the
// email, then branch on new vs. existing-unverified vs. existing-verified.
// Uniqueness violations at the write are recovered and mapped to the same
// outcomes as their pre-check equivalents.
func (u *AuthUsecase) Signup(ctx context.Context, data SignupData) (SignupOutcome, error) {
	hashedPassword, err := u.hasher.Hash(data.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}
	codeExpiry := u.now().Add(verification.CodeExpiry)

	existing, err := u.repo.FindByEmail(ctx, data.Email)
	switch {
	case err == nil:
		if existing.IsVerified {
			// No side effect, no new code. Response stays neutral so callers
			// cannot distinguish this from a first-time signup.
			return SignupNeutral, nil
		}
		return u.resendVerification(ctx, existing, codeExpiry)
	case errors.Is(err, repository.ErrUserNotFound):
		return u.registerUser(ctx, data, hashedPassword, codeExpiry)
	default:
		return 0, err
	}
}

func (u *AuthUsecase) registerUser(ctx context.Context, data SignupData, hashedPassword string, codeExpiry time.Time) (SignupOutcome, error) {
	_, err := u.repo.FindByUsername(ctx, data.Username)
	if err == nil {
		return SignupUsernameTaken, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return 0, err
	}

	code, err := u.generateCode()
	if err != nil {
		return 0, err
	}

	newUser := &entity.User{
		Email:                  data.Email,
		Username:               data.Username,
		FirstName:              data.FirstName,
		LastName:               data.LastName,
		Password:               hashedPassword,
		Role:                   entity.RoleUser,
		IsVerified:             false,
		VerificationCode:       code,
		VerificationCodeExpiry: &codeExpiry,
		CreatedAt:              u.now(),
	}

	if _, err := u.repo.CreateUser(ctx, newUser); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			// A concurrent signup for the same email completed between lookup
			// and write. Same neutral response as the already-verified case.
			u.logger.Warn("Email uniqueness race during signup", zap.String("email", data.Email))
			return SignupNeutral, nil
		case errors.Is(err, repository.ErrDuplicateUsername):
			u.logger.Warn("Username uniqueness race during signup", zap.String("username", data.Username))
			return SignupUsernameTaken, nil
		}
		return 0, err
	}

	if err := u.mailer.SendEmailVerification(data.Email, data.Username, code); err != nil {
		// The record is already persisted; the caller recovers by retrying
		// signup, which takes the resend path.
		u.logger.Error("Failed to send verification email after signup",
			zap.String("email", data.Email), zap.Error(err))
		return SignupSendFailed, nil
	}
	return SignupCreated, nil
}

func (u *AuthUsecase) resendVerification(ctx context.Context, existing *entity.User, codeExpiry time.Time) (SignupOutcome, error) {
	code, err := u.generateCode()
	if err != nil {
		return 0, err
	}

	if err := u.repo.UpdateVerificationCode(ctx, existing.ID, code, codeExpiry); err != nil {
		return 0, err
	}

	if err := u.mailer.SendEmailVerification(existing.Email, existing.Username, code); err != nil {
		u.logger.Error("Failed to resend verification email",
			zap.String("email", existing.Email), zap.Error(err))
		return SignupSendFailed, nil
	}
	return SignupResent, nil
}

// VerifyEmail redeems a verification code for an account. Unknown emails,
// wrong codes, and expired codes all collapse into VerifyInvalidCode.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, email, code string) (VerifyOutcome, error) {
	user, err := u.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return VerifyInvalidCode, nil
		}
		return 0, err
	}

	if user.IsVerified {
		return VerifyAlreadyVerified, nil
	}
	if user.VerificationCode == "" || user.VerificationCode != code {
		return VerifyInvalidCode, nil
	}
	if user.VerificationCodeExpiry == nil || u.now().After(*user.VerificationCodeExpiry) {
		return VerifyInvalidCode, nil
	}

	if err := u.repo.MarkEmailAsVerified(ctx, user.ID); err != nil {
		return 0, err
	}
	u.logger.Info("Email verified", zap.String("userID", user.ID.Hex()))
	return VerifyOK, nil
}
