package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillswap/server/internal/db"
	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

// ErrEmptyMessage is returned when a chat message is empty after trimming.
var ErrEmptyMessage = errors.New("message text must not be empty")

// TaskEnqueuer is the slice of asynq.Client the chat service needs.
// Satisfied by *asynq.Client; mocked in tests.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// UnreadConversation is one sender's bucket of unread messages, pushed to a
// user when they (re)connect.
type UnreadConversation struct {
	SenderID    string `json:"conversationSenderId"`
	SenderName  string `json:"senderName"`
	Count       int64  `json:"count"`
	LastMessage string `json:"lastMessage"`
	TradeID     string `json:"tradeId"`
}

// IChatService defines the chat store operations.
type IChatService interface {
	SaveMessage(ctx context.Context, senderID, receiverID, tradeID utils.SixID, text, attachment string) (*models.Message, error)
	History(ctx context.Context, tradeID, requestingUserID utils.SixID) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID utils.SixID) (int64, error)
	UnreadBySender(ctx context.Context, userID utils.SixID) ([]UnreadConversation, error)
}

const messagesCollection = "messages"

// TypeAttachmentResize must match the task name registered by the worker mux.
const TypeAttachmentResize = "attachment:resize"

type chatService struct {
	db         *mongo.Database
	users      IUserService
	taskClient TaskEnqueuer
}

// NewChatService creates a new ChatService. taskClient may be nil, in which
// case attachment resize tasks are skipped.
func NewChatService(database *mongo.Database, users IUserService, taskClient TaskEnqueuer) IChatService {
	return &chatService{db: database, users: users, taskClient: taskClient}
}

// SaveMessage validates and persists a chat message with read=false.
// Persistence happens before, and independent of, any live-delivery attempt:
// a message is never lost, only its live delivery may be missed.
func (s *chatService) SaveMessage(ctx context.Context, senderID, receiverID, tradeID utils.SixID, text, attachment string) (*models.Message, error) {
	zero := utils.SixID{}
	if senderID == zero || receiverID == zero || tradeID == zero {
		return nil, ErrMissingField
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	now := time.Now().UTC()
	doc, err := db.InsertOne(ctx, s.db.Collection(messagesCollection), &models.Message{
		Sender:     senderID,
		Receiver:   receiverID,
		TradeID:    tradeID,
		Message:    text,
		Attachment: attachment,
		Read:       false,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting message: %w", err)
	}
	msg := doc.(*models.Message)

	if attachment != "" && s.taskClient != nil {
		task := asynq.NewTask(TypeAttachmentResize, []byte(fmt.Sprintf(`{"key":%q}`, attachment)))
		if _, err := s.taskClient.Enqueue(task); err != nil {
			log.Printf("Message %s: failed to enqueue attachment resize for %s: %v", msg.ID.String(), attachment, err)
		}
	}

	return msg, nil
}

// History returns all messages of a trade conversation oldest first, then
// bulk-marks every message addressed to the requesting user as read.
func (s *chatService) History(ctx context.Context, tradeID, requestingUserID utils.SixID) ([]models.Message, error) {
	collection := s.db.Collection(messagesCollection)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, bson.M{"trade_id": tradeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error loading history for trade %s: %w", tradeID.String(), err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("error decoding messages: %w", err)
	}

	_, err = collection.UpdateMany(ctx,
		bson.M{"trade_id": tradeID, "receiver": requestingUserID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return nil, fmt.Errorf("error marking messages read for trade %s: %w", tradeID.String(), err)
	}

	return messages, nil
}

// UnreadCount counts messages addressed to the user that are still unread.
func (s *chatService) UnreadCount(ctx context.Context, userID utils.SixID) (int64, error) {
	count, err := s.db.Collection(messagesCollection).CountDocuments(ctx,
		bson.M{"receiver": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages for user %s: %w", userID.String(), err)
	}
	return count, nil
}

// UnreadBySender groups the user's unread messages by sender, carrying the
// latest message text and its trade for each conversation. Sender names are
// resolved best effort; an unresolvable sender keeps an empty name.
func (s *chatService) UnreadBySender(ctx context.Context, userID utils.SixID) ([]UnreadConversation, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"receiver": userID, "read": false}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":          "$sender",
			"count":        bson.M{"$sum": 1},
			"last_message": bson.M{"$last": "$message"},
			"trade_id":     bson.M{"$last": "$trade_id"},
		}}},
	}
	cursor, err := s.db.Collection(messagesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error grouping unread messages for user %s: %w", userID.String(), err)
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Sender      utils.SixID `bson:"_id"`
		Count       int64       `bson:"count"`
		LastMessage string      `bson:"last_message"`
		TradeID     utils.SixID `bson:"trade_id"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("error decoding unread groups: %w", err)
	}

	conversations := make([]UnreadConversation, 0, len(buckets))
	for _, b := range buckets {
		conv := UnreadConversation{
			SenderID:    b.Sender.String(),
			Count:       b.Count,
			LastMessage: b.LastMessage,
			TradeID:     b.TradeID.String(),
		}
		if sender, err := s.users.FindByID(ctx, b.Sender); err == nil {
			conv.SenderName = sender.Name
		} else {
			log.Printf("Unread snapshot: could not load sender %s: %v", b.Sender.String(), err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}
