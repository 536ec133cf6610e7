package models

import (
	"time"

	"skillswap/server/internal/utils"
)

// User is the external profile record. Profile CRUD lives outside this
// service; the trade/review/chat core only reads identity fields for
// notification payloads and writes the rating aggregate.
type User struct {
	Base          `bson:",inline"`
	Name          string        `bson:"name" json:"name"`
	Avatar        string        `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Rating        float64       `bson:"rating" json:"rating"`
	SkillsOffered []utils.SixID `bson:"skills_offered,omitempty" json:"skillsOffered,omitempty"`
	SkillsWanted  []utils.SixID `bson:"skills_wanted,omitempty" json:"skillsWanted,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updatedAt"`
}
