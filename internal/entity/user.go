package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the persisted account record.
type User struct {
	ID                     primitive.ObjectID
	Email                  string
	Username               string
	FirstName              string
	LastName               string // optional
	Password               string // This will be the hashed password
	Role                   string // "user", "admin"
	IsVerified             bool
	VerificationCode       string
	VerificationCodeExpiry *time.Time
	LastLogin              *time.Time
	CreatedAt              time.Time
}
