package models

import (
	"time"

	"skillswap/server/internal/utils"
)

// Review is a post-trade rating of one participant by the other.
// At most one review may exist per (trade_request, reviewer, reviewee);
// the unique compound index created in db.EnsureIndexes is the source of
// truth for that constraint. Reviews are never mutated or deleted.
type Review struct {
	Base          `bson:",inline"`
	TradeRequest  utils.SixID `bson:"trade_request" json:"tradeRequest"`
	Reviewer      utils.SixID `bson:"reviewer" json:"reviewer"`
	Reviewee      utils.SixID `bson:"reviewee" json:"reviewee"`
	Rating        int         `bson:"rating" json:"rating"`
	Review        string      `bson:"review" json:"review"`
	SkillReviewed utils.SixID `bson:"skill_reviewed" json:"skillReviewed"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
}
