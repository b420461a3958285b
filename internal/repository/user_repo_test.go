package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate email index",
			err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{
				Code:    11000,
				Message: `E11000 duplicate key error collection: echo-quest-db.users index: email_1 dup key: { email: "a@b.com" }`,
			}}},
			want: ErrDuplicateEmail,
		},
		{
			name: "duplicate username index",
			err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{
				Code:    11000,
				Message: `E11000 duplicate key error collection: echo-quest-db.users index: username_1 dup key: { username: "abcd" }`,
			}}},
			want: ErrDuplicateUsername,
		},
		{
			name: "non-duplicate write error",
			err: mongo.WriteException{WriteErrors: mongo.WriteErrors{{
				Code:    121,
				Message: "Document failed validation",
			}}},
			want: nil,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection reset by peer"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapDuplicateKeyError(tt.err))
		})
	}
}
