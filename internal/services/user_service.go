package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

// IUserService exposes the slice of the external profile record this core
// is allowed to touch: identity reads for notification payloads and the
// rating aggregate write.
type IUserService interface {
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	UpdateRating(ctx context.Context, userID utils.SixID, rating float64) error
}

const usersCollection = "users"

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// FindByID finds a user by their ID.
// Returns mongo.ErrNoDocuments if the profile record does not exist.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.String(), err)
	}
	return &user, nil
}

// UpdateRating writes the aggregate rating into the user's profile record,
// rounded to one decimal place. The record must already exist; this service
// never creates profiles.
func (s *userService) UpdateRating(ctx context.Context, userID utils.SixID, rating float64) error {
	collection := s.db.Collection(usersCollection)
	rounded := math.Round(rating*10) / 10

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"rating": rounded, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error updating rating for user %s: %w", userID.String(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
