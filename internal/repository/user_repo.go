package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/echo-quest/user-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUserNotFound      = errors.New("user not found")
)

type mongoUser struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Email                  string             `bson:"email"`
	Username               string             `bson:"username"`
	FirstName              string             `bson:"first_name"`
	LastName               string             `bson:"last_name,omitempty"`
	Password               string             `bson:"password"`
	Role                   string             `bson:"role"`
	IsVerified             bool               `bson:"is_verified"`
	VerificationCode       string             `bson:"verification_code,omitempty"`
	VerificationCodeExpiry *time.Time         `bson:"verification_code_expiry,omitempty"`
	LastLogin              *time.Time         `bson:"last_login,omitempty"`
	CreatedAt              time.Time          `bson:"created_at"`
}

func (m *mongoUser) toEntity() *entity.User {
	return &entity.User{
		ID:                     m.ID,
		Email:                  m.Email,
		Username:               m.Username,
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		Password:               m.Password,
		Role:                   m.Role,
		IsVerified:             m.IsVerified,
		VerificationCode:       m.VerificationCode,
		VerificationCodeExpiry: m.VerificationCodeExpiry,
		LastLogin:              m.LastLogin,
		CreatedAt:              m.CreatedAt,
	}
}

func fromEntity(e *entity.User) *mongoUser {
	return &mongoUser{
		ID:                     e.ID,
		Email:                  e.Email,
		Username:               e.Username,
		FirstName:              e.FirstName,
		LastName:               e.LastName,
		Password:               e.Password,
		Role:                   e.Role,
		IsVerified:             e.IsVerified,
		VerificationCode:       e.VerificationCode,
		VerificationCodeExpiry: e.VerificationCodeExpiry,
		LastLogin:              e.LastLogin,
		CreatedAt:              e.CreatedAt,
	}
}

type UserRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure unique indexes (idempotent operation). Storage-level uniqueness on
	// email and username is what makes the duplicate-key race recovery correct.
	userCollection := db.Collection("users")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := userCollection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	} else {
		logger.Info("Successfully ensured indexes for users collection")
	}

	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

// CreateUser inserts a new user record. The entity's Password must already be
// hashed. Duplicate key violations are mapped to ErrDuplicateEmail or
// ErrDuplicateUsername so callers can recover from lookup/insert races.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	r.logger.Info("Attempting to create user in repository", zap.String("email", user.Email), zap.String("username", user.Username))

	dbUser := fromEntity(user)
	if dbUser.ID.IsZero() {
		dbUser.ID = primitive.NewObjectID()
	}
	if dbUser.CreatedAt.IsZero() {
		dbUser.CreatedAt = time.Now()
	}
	if dbUser.Role == "" {
		dbUser.Role = entity.RoleUser
	}

	_, err := r.db.Collection("users").InsertOne(ctx, dbUser)
	if err != nil {
		if dupErr := mapDuplicateKeyError(err); dupErr != nil {
			r.logger.Warn("Duplicate key during user creation",
				zap.String("email", user.Email),
				zap.String("username", user.Username),
				zap.Error(err))
			return primitive.NilObjectID, dupErr
		}
		r.logger.Error("Database error during user creation", zap.String("email", user.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}
	r.logger.Info("User created successfully in repository", zap.String("userID", dbUser.ID.Hex()))
	return dbUser.ID, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by email from repository", zap.String("email", email))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by email in repository", zap.String("email", email))
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by username from repository", zap.String("username", username))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"username": username}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by username in repository", zap.String("username", username))
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by username", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

// UpdateVerificationCode overwrites the stored code and expiry for a resend.
// An unverified record only ever carries the most recently issued code.
func (r *UserRepository) UpdateVerificationCode(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	r.logger.Info("Updating verification code", zap.String("userID", userID.Hex()))
	update := bson.M{
		"$set": bson.M{
			"verification_code":        code,
			"verification_code_expiry": expiresAt,
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("DB error updating verification code", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for verification code update", zap.String("userID", userID.Hex()))
		return ErrUserNotFound
	}
	return nil
}

// MarkEmailAsVerified flips the verified flag and clears the stored code and
// expiry; a verified record has no requirement to retain a code.
func (r *UserRepository) MarkEmailAsVerified(ctx context.Context, userID primitive.ObjectID) error {
	r.logger.Info("Marking email as verified", zap.String("userID", userID.Hex()))
	update := bson.M{
		"$set": bson.M{
			"is_verified": true,
		},
		"$unset": bson.M{
			"verification_code":        "",
			"verification_code_expiry": "",
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("DB error marking email as verified", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for marking email as verified", zap.String("userID", userID.Hex()))
		return ErrUserNotFound
	}
	return nil
}

// mapDuplicateKeyError inspects a Mongo write error for unique index
// violations (code 11000) and returns the matching sentinel error, or nil.
func mapDuplicateKeyError(err error) error {
	var writeException mongo.WriteException
	if !errors.As(err, &writeException) {
		return nil
	}
	for _, writeError := range writeException.WriteErrors {
		if writeError.Code != 11000 {
			continue
		}
		if strings.Contains(writeError.Message, "email_1") {
			return ErrDuplicateEmail
		}
		if strings.Contains(writeError.Message, "username_1") {
			return ErrDuplicateUsername
		}
	}
	return nil
}
