package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillswap/server/internal/db"
	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

var (
	// ErrInvalidRating is returned for ratings outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidReviewText is returned when the trimmed text is empty or over 500 chars.
	ErrInvalidReviewText = errors.New("review text must be between 1 and 500 characters")
	// ErrTradeNotCompleted is returned when reviewing a trade that is not completed.
	ErrTradeNotCompleted = errors.New("trade must be completed before it can be reviewed")
	// ErrInvalidReviewee is returned when the reviewee is not the reviewer's counterpart.
	ErrInvalidReviewee = errors.New("reviewee must be the other participant of the trade")
	// ErrDuplicateReview is returned when a review already exists for the
	// (trade, reviewer, reviewee) triple.
	ErrDuplicateReview = errors.New("a review for this trade already exists")
)

// ReviewStats aggregates a reviewee's full review population, independent of
// the page being returned.
type ReviewStats struct {
	Average   float64       `json:"average"`
	Total     int64         `json:"total"`
	Histogram map[int]int64 `json:"histogram"`
}

// ReviewPage is one page of reviews plus full-population stats.
type ReviewPage struct {
	Reviews  []models.Review `json:"reviews"`
	Stats    ReviewStats     `json:"stats"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// IReviewService defines the interface for the review engine.
type IReviewService interface {
	Submit(ctx context.Context, tradeID, reviewerID, revieweeID utils.SixID, rating int, reviewText string) (*models.Review, error)
	ListForUser(ctx context.Context, userID utils.SixID, page, pageSize int) (*ReviewPage, error)
	ListForTrade(ctx context.Context, tradeID, callerID utils.SixID) ([]models.Review, error)
	RecomputeAllAggregates(ctx context.Context) error
}

const (
	reviewsCollection = "reviews"

	defaultReviewPageSize = 20
)

type reviewService struct {
	db       *mongo.Database
	trades   ITradeService
	users    IUserService
	notifier Notifier
}

// NewReviewService creates a new ReviewService.
func NewReviewService(database *mongo.Database, trades ITradeService, users IUserService, notifier Notifier) IReviewService {
	return &reviewService{db: database, trades: trades, users: users, notifier: notifier}
}

// Submit validates and persists a review of the reviewer's counterpart in a
// completed trade. The unique (trade, reviewer, reviewee) index is the true
// serialization point: of two concurrent submissions exactly one insert
// succeeds and the loser surfaces ErrDuplicateReview. The aggregate-rating
// recomputation afterwards is best effort; its failure is logged, never
// surfaced.
func (s *reviewService) Submit(ctx context.Context, tradeID, reviewerID, revieweeID utils.SixID, rating int, reviewText string) (*models.Review, error) {
	zero := utils.SixID{}
	if tradeID == zero || reviewerID == zero || revieweeID == zero {
		return nil, ErrMissingField
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	reviewText = strings.TrimSpace(reviewText)
	if len(reviewText) < 1 || len(reviewText) > 500 {
		return nil, ErrInvalidReviewText
	}

	trade, err := s.trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.TradeCompleted {
		return nil, ErrTradeNotCompleted
	}
	if !trade.IsParticipant(reviewerID) {
		return nil, ErrNotParticipant
	}
	if revieweeID != trade.OtherParticipant(reviewerID) {
		return nil, ErrInvalidReviewee
	}

	// You review the skill the other party taught you
	skillReviewed := trade.SenderSkill
	if reviewerID == trade.Sender {
		skillReviewed = trade.ReceiverSkill
	}

	collection := s.db.Collection(reviewsCollection)

	// Friendly pre-check; the unique index below is what actually enforces this
	count, err := collection.CountDocuments(ctx, bson.M{
		"trade_request": tradeID,
		"reviewer":      reviewerID,
		"reviewee":      revieweeID,
	})
	if err != nil {
		return nil, fmt.Errorf("error checking for existing review: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TradeRequest:  tradeID,
		Reviewer:      reviewerID,
		Reviewee:      revieweeID,
		Rating:        rating,
		Review:        reviewText,
		SkillReviewed: skillReviewed,
		CreatedAt:     time.Now().UTC(),
	}
	review.GenIDIfEmpty()

	// Insert directly rather than via db.InsertOne: a duplicate key here is
	// the uniqueness constraint firing, and must not be retried away.
	if _, err := collection.InsertOne(ctx, review); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("error inserting review: %w", err)
	}

	if err := s.recomputeAggregate(ctx, revieweeID); err != nil {
		log.Printf("Review %s: failed to recompute rating for user %s: %v",
			review.ID.String(), revieweeID.String(), err)
	}

	s.notifyReview(ctx, review)

	return review, nil
}

// ListForUser returns one page of reviews where the user is reviewee, newest
// first, plus stats computed over the full unpaged population.
func (s *reviewService) ListForUser(ctx context.Context, userID utils.SixID, page, pageSize int) (*ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultReviewPageSize
	}

	collection := s.db.Collection(reviewsCollection)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := collection.Find(ctx, bson.M{"reviewee": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing reviews for user %s: %w", userID.String(), err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("error decoding reviews: %w", err)
	}

	stats, err := s.statsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ReviewPage{Reviews: reviews, Stats: *stats, Page: page, PageSize: pageSize}, nil
}

// ListForTrade returns all reviews for a trade; only participants may look.
func (s *reviewService) ListForTrade(ctx context.Context, tradeID, callerID utils.SixID) ([]models.Review, error) {
	trade, err := s.trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}

	cursor, err := s.db.Collection(reviewsCollection).Find(ctx, bson.M{"trade_request": tradeID})
	if err != nil {
		return nil, fmt.Errorf("error listing reviews for trade %s: %w", tradeID.String(), err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("error decoding reviews: %w", err)
	}
	return reviews, nil
}

// RecomputeAllAggregates recomputes the stored rating for every user that
// has at least one review. Driven by the background reconciliation task to
// heal aggregates whose synchronous recomputation failed.
func (s *reviewService) RecomputeAllAggregates(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id": "$reviewee",
			"avg": bson.M{"$avg": "$rating"},
		}}},
	}
	cursor, err := s.db.Collection(reviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("error aggregating review ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		ID  utils.SixID `bson:"_id"`
		Avg float64     `bson:"avg"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error decoding rating aggregates: %w", err)
	}

	var failed int
	for _, res := range results {
		if err := s.users.UpdateRating(ctx, res.ID, res.Avg); err != nil {
			failed++
			log.Printf("Rating reconciliation: failed to update user %s: %v", res.ID.String(), err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("rating reconciliation failed for %d of %d users", failed, len(results))
	}
	log.Printf("Rating reconciliation updated %d users", len(results))
	return nil
}

// recomputeAggregate recalculates the mean rating for one reviewee and
// writes it into their profile record.
func (s *reviewService) recomputeAggregate(ctx context.Context, revieweeID utils.SixID) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"reviewee": revieweeID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": nil,
			"avg": bson.M{"$avg": "$rating"},
		}}},
	}
	cursor, err := s.db.Collection(reviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("error aggregating ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return fmt.Errorf("error decoding rating aggregate: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	return s.users.UpdateRating(ctx, revieweeID, results[0].Avg)
}

// statsForUser computes mean, total and histogram over every review of the
// user, regardless of pagination.
func (s *reviewService) statsForUser(ctx context.Context, userID utils.SixID) (*ReviewStats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"reviewee": userID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$rating",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.db.Collection(reviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating review stats: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("error decoding review stats: %w", err)
	}

	stats := &ReviewStats{Histogram: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, b := range buckets {
		stats.Histogram[b.Rating] = b.Count
		stats.Total += b.Count
		sum += int64(b.Rating) * b.Count
	}
	if stats.Total > 0 {
		stats.Average = math.Round(float64(sum)/float64(stats.Total)*10) / 10
	}
	return stats, nil
}

// notifyReview dispatches a best-effort REVIEW_RECEIVED event to the reviewee.
func (s *reviewService) notifyReview(ctx context.Context, review *models.Review) {
	if s.notifier == nil {
		return
	}
	payload := ReviewNotification{
		TradeID:    review.TradeRequest.String(),
		ReviewerID: review.Reviewer.String(),
		Rating:     review.Rating,
	}
	if reviewer, err := s.users.FindByID(ctx, review.Reviewer); err == nil {
		payload.ReviewerName = reviewer.Name
		payload.ReviewerAvatar = reviewer.Avatar
	} else {
		log.Printf("Review %s: could not load reviewer %s: %v", review.ID.String(), review.Reviewer.String(), err)
	}
	s.notifier.Dispatch(review.Reviewee.String(), EventReviewReceived, payload)
}
