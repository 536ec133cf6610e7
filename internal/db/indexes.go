package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the trade/review/chat queries depend on.
// The unique review index is the source of truth for the one-review-per-pair
// rule; application-level checks are only a friendlier first line.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	reviewIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "trade_request", Value: 1},
			{Key: "reviewer", Value: 1},
			{Key: "reviewee", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("trade_reviewer_reviewee_unique"),
	}
	if _, err := database.Collection("reviews").Indexes().CreateOne(ctx, reviewIdx); err != nil {
		return fmt.Errorf("failed to create review uniqueness index: %w", err)
	}

	reviewListIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "reviewee", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := database.Collection("reviews").Indexes().CreateOne(ctx, reviewListIdx); err != nil {
		return fmt.Errorf("failed to create review listing index: %w", err)
	}

	messageIdxs := []mongo.IndexModel{
		{Keys: bson.D{{Key: "trade_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}}},
	}
	if _, err := database.Collection("messages").Indexes().CreateMany(ctx, messageIdxs); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	tradeIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender", Value: 1},
			{Key: "receiver", Value: 1},
			{Key: "sender_skill", Value: 1},
			{Key: "receiver_skill", Value: 1},
			{Key: "status", Value: 1},
		},
	}
	if _, err := database.Collection("trade_requests").Indexes().CreateOne(ctx, tradeIdx); err != nil {
		return fmt.Errorf("failed to create trade duplicate-check index: %w", err)
	}

	return nil
}
