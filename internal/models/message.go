package models

import (
	"time"

	"skillswap/server/internal/utils"
)

// Message is a chat message scoped to a trade conversation.
// Messages are persisted before any live-delivery attempt and never deleted.
// Read flips false->true only, in bulk, when the receiver retrieves history.
type Message struct {
	Base       `bson:",inline"`
	Sender     utils.SixID `bson:"sender" json:"sender"`
	Receiver   utils.SixID `bson:"receiver" json:"receiver"`
	TradeID    utils.SixID `bson:"trade_id" json:"tradeId"`
	Message    string      `bson:"message" json:"message"`
	Attachment string      `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Read       bool        `bson:"read" json:"read"`
	CreatedAt  time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `bson:"updated_at" json:"updatedAt"`
}
