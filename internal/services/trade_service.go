package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillswap/server/internal/db"
	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

var (
	// ErrMissingField is returned when a required id or field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrSelfTrade is returned when a user proposes a trade with themselves.
	ErrSelfTrade = errors.New("cannot create a trade with yourself")
	// ErrDuplicateTrade is returned when a pending trade already exists for
	// the exact same (sender, receiver, senderSkill, receiverSkill) tuple.
	ErrDuplicateTrade = errors.New("a pending trade for this skill pairing already exists")
	// ErrNotParticipant is returned when the acting user is neither the
	// sender nor the receiver of the trade.
	ErrNotParticipant = errors.New("user is not a participant of this trade")
	// ErrInvalidStatus is returned for a status outside accepted/rejected/completed.
	ErrInvalidStatus = errors.New("invalid trade status")
)

// ITradeService defines the interface for the trade lifecycle engine.
type ITradeService interface {
	Create(ctx context.Context, senderID, receiverID, senderSkillID, receiverSkillID utils.SixID, message string) (*models.TradeRequest, error)
	UpdateStatus(ctx context.Context, tradeID, actingUserID utils.SixID, status models.TradeStatus) (*models.TradeRequest, error)
	FindByID(ctx context.Context, tradeID utils.SixID) (*models.TradeRequest, error)
	ListForUser(ctx context.Context, userID utils.SixID) ([]models.TradeRequest, error)
}

const tradesCollection = "trade_requests"

type tradeService struct {
	db       *mongo.Database
	users    IUserService
	skills   ISkillService
	notifier Notifier
}

// NewTradeService creates a new TradeService.
func NewTradeService(database *mongo.Database, users IUserService, skills ISkillService, notifier Notifier) ITradeService {
	return &tradeService{db: database, users: users, skills: skills, notifier: notifier}
}

// Create persists a new pending trade request after duplicate suppression
// and notifies the receiver. The duplicate check is scoped to the exact
// skill pairing, not to all pairings between the two users.
func (s *tradeService) Create(ctx context.Context, senderID, receiverID, senderSkillID, receiverSkillID utils.SixID, message string) (*models.TradeRequest, error) {
	zero := utils.SixID{}
	if senderID == zero || receiverID == zero || senderSkillID == zero || receiverSkillID == zero {
		return nil, ErrMissingField
	}
	if receiverID == senderID {
		return nil, ErrSelfTrade
	}

	collection := s.db.Collection(tradesCollection)

	count, err := collection.CountDocuments(ctx, bson.M{
		"sender":         senderID,
		"receiver":       receiverID,
		"sender_skill":   senderSkillID,
		"receiver_skill": receiverSkillID,
		"status":         models.TradePending,
	})
	if err != nil {
		return nil, fmt.Errorf("error checking for duplicate trade: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateTrade
	}

	now := time.Now().UTC()
	doc, err := db.InsertOne(ctx, collection, &models.TradeRequest{
		Sender:        senderID,
		Receiver:      receiverID,
		SenderSkill:   senderSkillID,
		ReceiverSkill: receiverSkillID,
		Status:        models.TradePending,
		CompletedBy:   []utils.SixID{},
		Message:       message,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting trade request: %w", err)
	}
	trade := doc.(*models.TradeRequest)

	s.notifyTrade(ctx, trade, senderID, receiverID, EventTradeRequestReceived)

	return trade, nil
}

// FindByID resolves a trade request by id.
// Returns mongo.ErrNoDocuments if absent.
func (s *tradeService) FindByID(ctx context.Context, tradeID utils.SixID) (*models.TradeRequest, error) {
	var trade models.TradeRequest
	err := s.db.Collection(tradesCollection).FindOne(ctx, bson.M{"_id": tradeID}).Decode(&trade)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding trade %s: %w", tradeID.String(), err)
	}
	return &trade, nil
}

// ListForUser returns all trades where the user is sender or receiver,
// newest first.
func (s *tradeService) ListForUser(ctx context.Context, userID utils.SixID) ([]models.TradeRequest, error) {
	filter := bson.M{"$or": bson.A{bson.M{"sender": userID}, bson.M{"receiver": userID}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(tradesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing trades for user %s: %w", userID.String(), err)
	}
	defer cursor.Close(ctx)

	var trades []models.TradeRequest
	if err := cursor.All(ctx, &trades); err != nil {
		return nil, fmt.Errorf("error decoding trades: %w", err)
	}
	return trades, nil
}

// UpdateStatus applies an accept/reject/complete transition on behalf of a
// participant. Accept and reject are deliberately not idempotent: repeating
// the call re-sends the counterpart notification, matching how the lifecycle
// behaved historically. Completion uses atomic storage updates so that two
// racing completion calls flip the trade to completed exactly once.
func (s *tradeService) UpdateStatus(ctx context.Context, tradeID, actingUserID utils.SixID, status models.TradeStatus) (*models.TradeRequest, error) {
	trade, err := s.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParticipant(actingUserID) {
		return nil, ErrNotParticipant
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if status == models.TradeCompleted {
		return s.markCompleted(ctx, trade, actingUserID)
	}

	collection := s.db.Collection(tradesCollection)
	now := time.Now().UTC()
	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": tradeID},
		bson.M{"$set": bson.M{"status": status, "updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("error updating trade %s status: %w", tradeID.String(), err)
	}
	trade.Status = status
	trade.UpdatedAt = now

	event := EventTradeRequestAccepted
	if status == models.TradeRejected {
		event = EventTradeRequestRejected
	}
	// Notify the original sender with the acting party's identity
	s.notifyTrade(ctx, trade, actingUserID, trade.Sender, event)

	return trade, nil
}

// markCompleted appends the acting user to completed_by with set semantics
// and, once both participants are present, flips the status with a
// conditional update. The $addToSet plus the status!=completed filter make
// the dual-confirmation transition atomic at the storage layer, so two
// concurrent completion calls cannot lose an update or both claim the flip.
func (s *tradeService) markCompleted(ctx context.Context, trade *models.TradeRequest, actingUserID utils.SixID) (*models.TradeRequest, error) {
	collection := s.db.Collection(tradesCollection)
	now := time.Now().UTC()

	after := options.After
	var updated models.TradeRequest
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": trade.ID},
		bson.M{
			"$addToSet": bson.M{"completed_by": actingUserID},
			"$set":      bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("error marking trade %s complete: %w", trade.ID.String(), err)
	}

	if updated.HasCompleted(updated.Sender) && updated.HasCompleted(updated.Receiver) {
		// Flip to completed at most once, whoever gets here first wins.
		result, err := collection.UpdateOne(ctx,
			bson.M{"_id": trade.ID, "status": bson.M{"$ne": models.TradeCompleted}},
			bson.M{"$set": bson.M{"status": models.TradeCompleted, "updated_at": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("error completing trade %s: %w", trade.ID.String(), err)
		}
		updated.Status = models.TradeCompleted
		if result.ModifiedCount == 1 {
			// Both parties hear about the completion, each seeing the other as partner
			s.notifyTrade(ctx, &updated, updated.Receiver, updated.Sender, EventTradeRequestCompleted)
			s.notifyTrade(ctx, &updated, updated.Sender, updated.Receiver, EventTradeRequestCompleted)
		}
		return &updated, nil
	}

	// Only one side has confirmed so far; tell the other who marked it.
	s.notifyTrade(ctx, &updated, actingUserID, updated.OtherParticipant(actingUserID), EventTradeMarkedComplete)
	return &updated, nil
}

// notifyTrade dispatches a best-effort trade notification to targetID,
// describing aboutUserID (the counterpart the target should see). Lookup
// failures are logged and the notification skipped; the business operation
// has already succeeded by the time this runs.
func (s *tradeService) notifyTrade(ctx context.Context, trade *models.TradeRequest, aboutUserID, targetID utils.SixID, event string) {
	if s.notifier == nil {
		return
	}
	payload := TradeNotification{
		TradeID: trade.ID.String(),
		UserID:  aboutUserID.String(),
		Message: trade.Message,
		Status:  string(trade.Status),
	}

	about, err := s.users.FindByID(ctx, aboutUserID)
	if err != nil {
		log.Printf("Trade %s: could not load user %s for %s notification: %v",
			trade.ID.String(), aboutUserID.String(), event, err)
	} else {
		payload.UserName = about.Name
		payload.UserAvatar = about.Avatar
	}

	if senderSkill, err := s.skills.FindByID(ctx, trade.SenderSkill); err == nil {
		payload.SenderSkill = senderSkill.Name
	} else {
		log.Printf("Trade %s: could not load sender skill %s: %v", trade.ID.String(), trade.SenderSkill.String(), err)
	}
	if receiverSkill, err := s.skills.FindByID(ctx, trade.ReceiverSkill); err == nil {
		payload.ReceiverSkill = receiverSkill.Name
	} else {
		log.Printf("Trade %s: could not load receiver skill %s: %v", trade.ID.String(), trade.ReceiverSkill.String(), err)
	}

	s.notifier.Dispatch(targetID.String(), event, payload)
}
