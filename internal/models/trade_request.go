package models

import (
	"time"

	"skillswap/server/internal/utils"
)

// TradeStatus is the lifecycle state of a trade request.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeCompleted TradeStatus = "completed"
)

// Valid reports whether s is a status a participant may request.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeAccepted, TradeRejected, TradeCompleted:
		return true
	}
	return false
}

// TradeRequest is a proposed skill-for-skill exchange between two users.
// Sender/receiver and the two offered skills are immutable after creation.
// The document is never deleted; rejected and completed trades remain as an
// audit trail.
type TradeRequest struct {
	Base          `bson:",inline"`
	Sender        utils.SixID   `bson:"sender" json:"sender"`
	Receiver      utils.SixID   `bson:"receiver" json:"receiver"`
	SenderSkill   utils.SixID   `bson:"sender_skill" json:"senderSkill"`
	ReceiverSkill utils.SixID   `bson:"receiver_skill" json:"receiverSkill"`
	Status        TradeStatus   `bson:"status" json:"status"`
	CompletedBy   []utils.SixID `bson:"completed_by" json:"completedBy"`
	Message       string        `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updatedAt"`
}

// IsParticipant reports whether userID is the trade's sender or receiver.
func (t *TradeRequest) IsParticipant(userID utils.SixID) bool {
	return userID == t.Sender || userID == t.Receiver
}

// OtherParticipant returns the counterpart of userID in this trade.
// Callers must check IsParticipant first.
func (t *TradeRequest) OtherParticipant(userID utils.SixID) utils.SixID {
	if userID == t.Sender {
		return t.Receiver
	}
	return t.Sender
}

// HasCompleted reports whether userID already marked the trade complete.
func (t *TradeRequest) HasCompleted(userID utils.SixID) bool {
	for _, id := range t.CompletedBy {
		if id == userID {
			return true
		}
	}
	return false
}
