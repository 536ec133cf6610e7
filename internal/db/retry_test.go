package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

// duplicateKeyError builds an error that IsMongoDuplicateKeyError recognizes.
func duplicateKeyError(key string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.collection index: _id_ dup key: { : %q }", key),
	}}}
}

func TestWithRetries_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		return nil
	}, 3, IsMongoDuplicateKeyError)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_NonDuplicateErrorIsNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := WithRetries(func() error {
		calls++
		return boom
	}, 3, IsMongoDuplicateKeyError)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_ExhaustsRetriesOnPersistentDuplicate(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		return duplicateKeyError("STUCK")
	}, 3, IsMongoDuplicateKeyError)

	assert.Error(t, err)
	assert.True(t, IsMongoDuplicateKeyError(err))
	// Initial attempt plus three retries
	assert.Equal(t, 4, calls)
}

func TestWithRetries_DuplicateResolvesMidway(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		if calls < 3 {
			return duplicateKeyError("COLLIDE")
		}
		return nil
	}, 3, IsMongoDuplicateKeyError)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsMongoDuplicateKeyError_OtherWriteError(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "document failed validation"}}}
	assert.False(t, IsMongoDuplicateKeyError(err))
}
